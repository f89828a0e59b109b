package mcp

import (
	"context"
	"strings"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"
)

type userArgs struct {
	UserID string `mapstructure:"user_id"`
}

type startArgs struct {
	UserID     string `mapstructure:"user_id"`
	TemplateID string `mapstructure:"template_id"`
}

type slotArgs struct {
	UserID string `mapstructure:"user_id"`
	Slot   int    `mapstructure:"slot"`
}

type setArgs struct {
	UserID string `mapstructure:"user_id"`
	Slot   int    `mapstructure:"slot"`
	Set    int    `mapstructure:"set"`
}

type valueArgs struct {
	UserID     string  `mapstructure:"user_id"`
	Slot       int     `mapstructure:"slot"`
	Set        int     `mapstructure:"set"`
	ExerciseID string  `mapstructure:"exercise_id"`
	Field      string  `mapstructure:"field"`
	Value      float64 `mapstructure:"value"`
}

type focusArgs struct {
	UserID string `mapstructure:"user_id"`
	Slot   *int   `mapstructure:"slot"`
}

type bulkArgs struct {
	UserID     string   `mapstructure:"user_id"`
	Slot       int      `mapstructure:"slot"`
	ExerciseID string   `mapstructure:"exercise_id"`
	Weight     *float64 `mapstructure:"weight"`
	Reps       *float64 `mapstructure:"reps"`
}

type endArgs struct {
	UserID    string `mapstructure:"user_id"`
	Confirmed bool   `mapstructure:"confirmed"`
}

// PendingConfirmation is returned by end_session for an unconfirmed incomplete workout.
type PendingConfirmation struct {
	PendingConfirmation bool                   `json:"pending_confirmation"`
	Status              domain.ExecutionStatus `json:"status"`
}

// bind decodes the tool arguments into out. Numbers may arrive as JSON
// floats or strings.
func bind(request mcp.CallToolRequest, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(request.GetArguments()); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}

func requireUser(userID string) (string, error) {
	id := strings.TrimSpace(userID)
	if id == "" {
		return "", errors.New("user_id is required")
	}
	return id, nil
}

// result turns an engine outcome into a tool result. Engine failures are
// reported to the model as tool errors, not protocol errors.
func (s *Server) result(tool string, v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if errors.Is(err, domain.ErrStorageUnavailable) {
			s.logger.Error("MCP tool failed", "tool", tool, "err", err)
		}
		msg := err.Error()
		if hints := errors.GetAllHints(err); len(hints) > 0 {
			msg += " (" + strings.Join(hints, "; ") + ")"
		}
		return mcp.NewToolResultError(msg), nil
	}
	return mcp.NewToolResultStructuredOnly(v), nil
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args startArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.StartSession(ctx, userID, args.TemplateID)
	return s.result("start_session", session, err)
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args userArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.ActiveSession(ctx, userID)
	return s.result("get_session", session, err)
}

func (s *Server) handleToggleSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args setArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.ToggleSetCompletion(ctx, userID, args.Slot, args.Set)
	return s.result("toggle_set", session, err)
}

func (s *Server) handleSetValue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args valueArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.SetSetValue(ctx, userID, args.Slot, args.ExerciseID, args.Set, domain.Field(args.Field), args.Value)
	return s.result("set_value", session, err)
}

func (s *Server) handleAddSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args slotArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.AddSet(ctx, userID, args.Slot)
	return s.result("add_set", session, err)
}

func (s *Server) handleRemoveSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args slotArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.RemoveSet(ctx, userID, args.Slot)
	return s.result("remove_set", session, err)
}

func (s *Server) handleSetFocus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args focusArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.SetFocus(ctx, userID, args.Slot)
	return s.result("set_focus", session, err)
}

func (s *Server) handleApplyBulk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args bulkArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	session, err := s.engine.ApplyBulkToExercise(ctx, userID, args.Slot, args.ExerciseID, args.Weight, args.Reps)
	return s.result("apply_bulk", session, err)
}

func (s *Server) handleEndSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args endArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	record, err := s.engine.EndSession(ctx, userID, args.Confirmed)
	if errors.Is(err, domain.ErrConfirmationRequired) {
		return mcp.NewToolResultStructuredOnly(PendingConfirmation{
			PendingConfirmation: true,
			Status:              domain.ExecutionIncomplete,
		}), nil
	}
	return s.result("end_session", record, err)
}

func (s *Server) handleNextTemplate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args userArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tmpl, err := s.engine.NextTemplate(ctx, userID)
	return s.result("next_template", tmpl, err)
}

func (s *Server) handleListHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args userArgs
	if err := bind(request, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := requireUser(args.UserID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.engine.History(ctx, userID)
	if records == nil && err == nil {
		records = []domain.ExecutionRecord{}
	}
	return s.result("list_history", records, err)
}
