package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/ironlog"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	eng, err := ironlog.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	ctx := context.Background()
	squat := domain.NewExercise("bob", "squat", "Squat", "legs")
	squat.TimerEnabled = false
	require.NoError(t, eng.SaveExercise(ctx, squat))
	require.NoError(t, eng.SaveTemplate(ctx, &domain.Template{
		ID: "legs", UserID: "bob", Name: "Legs", Slots: []domain.Slot{domain.Single("squat")},
	}))
	return NewServer(eng)
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func structured[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, "%+v", res.Content)
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestTools_WorkoutLifecycle(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleStartSession(ctx, callTool("start_session", map[string]any{"user_id": "bob", "template_id": "legs"}))
	require.NoError(t, err)
	session := structured[domain.ActiveSession](t, res)
	assert.Equal(t, "legs", session.TemplateID)

	res, err = s.handleSetValue(ctx, callTool("set_value", map[string]any{
		"user_id": "bob", "slot": float64(0), "set": float64(0), "exercise_id": "squat", "field": "weight", "value": 100.0,
	}))
	require.NoError(t, err)
	assert.Equal(t, 100.0, structured[domain.ActiveSession](t, res).Exercise(0, "squat").Sets[0].Weight)

	res, err = s.handleAddSet(ctx, callTool("add_set", map[string]any{"user_id": "bob", "slot": "0"}))
	require.NoError(t, err)
	assert.Len(t, structured[domain.ActiveSession](t, res).Exercise(0, "squat").Sets, 2)

	res, err = s.handleEndSession(ctx, callTool("end_session", map[string]any{"user_id": "bob"}))
	require.NoError(t, err)
	pending := structured[PendingConfirmation](t, res)
	assert.True(t, pending.PendingConfirmation)

	res, err = s.handleEndSession(ctx, callTool("end_session", map[string]any{"user_id": "bob", "confirmed": true}))
	require.NoError(t, err)
	record := structured[domain.ExecutionRecord](t, res)
	assert.Equal(t, domain.ExecutionIncomplete, record.Status)

	res, err = s.handleListHistory(ctx, callTool("list_history", map[string]any{"user_id": "bob"}))
	require.NoError(t, err)
	assert.Len(t, structured[[]domain.ExecutionRecord](t, res), 1)

	res, err = s.handleNextTemplate(ctx, callTool("next_template", map[string]any{"user_id": "bob"}))
	require.NoError(t, err)
	assert.Equal(t, "legs", structured[domain.Template](t, res).ID)
}

func TestTools_SetFocusAndBulk(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleStartSession(ctx, callTool("start_session", map[string]any{"user_id": "bob", "template_id": "legs"}))
	require.NoError(t, err)

	res, err := s.handleSetFocus(ctx, callTool("set_focus", map[string]any{"user_id": "bob"}))
	require.NoError(t, err)
	assert.Nil(t, structured[domain.ActiveSession](t, res).FocusedSlot)

	res, err = s.handleApplyBulk(ctx, callTool("apply_bulk", map[string]any{"user_id": "bob", "slot": float64(0), "exercise_id": "squat", "reps": float64(5)}))
	require.NoError(t, err)
	squat := structured[domain.ActiveSession](t, res).Exercise(0, "squat")
	assert.Equal(t, 5.0, squat.Sets[0].Reps)
	assert.Equal(t, 0.0, squat.Sets[0].Weight)

	res, err = s.handleToggleSet(ctx, callTool("toggle_set", map[string]any{"user_id": "bob", "slot": float64(0), "set": float64(0)}))
	require.NoError(t, err)
	assert.True(t, structured[domain.ActiveSession](t, res).Exercise(0, "squat").Sets[0].Completed)
}

func TestTools_Errors(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleGetSession(ctx, callTool("get_session", map[string]any{"user_id": "bob"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleStartSession(ctx, callTool("start_session", map[string]any{"template_id": "legs"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "user_id is required")

	res, err = s.handleToggleSet(ctx, callTool("toggle_set", map[string]any{"user_id": "bob", "slot": "first", "set": 0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNewServer_RegistersTools(t *testing.T) {
	s := newTestServer(t)
	tools := s.MCPServer().ListTools()
	for _, name := range []string{
		"start_session", "get_session", "toggle_set", "set_value", "add_set", "remove_set",
		"set_focus", "apply_bulk", "end_session", "next_template", "list_history",
	} {
		assert.Contains(t, tools, name)
	}
}
