package runner

import (
	"testing"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	weight, reps := 60.0, 8.0

	tests := []struct {
		line string
		want Command
	}{
		{"t 1 2", Command{Kind: CmdToggle, Slot: 0, Set: 1}},
		{"TOGGLE 3 1", Command{Kind: CmdToggle, Slot: 2, Set: 0}},
		{"w 1 1 62.5", Command{Kind: CmdValue, Slot: 0, Set: 0, Field: domain.FieldWeight, Value: 62.5}},
		{"r 2 3 10 row", Command{Kind: CmdValue, Slot: 1, Set: 2, Field: domain.FieldReps, Value: 10, ExerciseID: "row"}},
		{"w 1 1 7,5", Command{Kind: CmdValue, Field: domain.FieldWeight, Value: 7.5}},
		{"add 2", Command{Kind: CmdAddSet, Slot: 1}},
		{"rm 1", Command{Kind: CmdRemove, Slot: 0}},
		{"f", Command{Kind: CmdFocus, Slotless: true}},
		{"f 4", Command{Kind: CmdFocus, Slot: 3}},
		{"bulk 1 w=60 r=8", Command{Kind: CmdBulk, Weight: &weight, Reps: &reps}},
		{"bulk 2 row r=8", Command{Kind: CmdBulk, Slot: 1, ExerciseID: "row", Reps: &reps}},
		{"timer 90", Command{Kind: CmdTimer, Seconds: 90}},
		{"timer stop", Command{Kind: CmdStop}},
		{"end", Command{Kind: CmdEnd}},
		{"abandon", Command{Kind: CmdAbandon}},
		{"?", Command{Kind: CmdHelp}},
		{"exit", Command{Kind: CmdQuit}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseCommand(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	for _, line := range []string{
		"t 0 1",
		"t 1",
		"w 1 1 -5",
		"w 1 1 abc",
		"add",
		"bulk 1",
		"bulk 1 row",
		"bulk 1 x=3",
		"timer soon",
		"timer -1",
	} {
		t.Run(line, func(t *testing.T) {
			_, err := ParseCommand(line)
			assert.Error(t, err)
		})
	}

	_, err := ParseCommand("dance")
	assert.True(t, errors.Is(err, ErrUnknownCommand))
	_, err = ParseCommand("   ")
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestFormatFrame(t *testing.T) {
	s := &domain.ActiveSession{
		TemplateID: "upper",
		ExecutionData: domain.ExecutionData{
			{Slot: 0, ExerciseID: "bench"}: {ExerciseID: "bench", Completed: true, Sets: []domain.ExecutedSet{{Number: 1, Weight: 60, Reps: 8, Completed: true}}},
			{Slot: 1, ExerciseID: "row"}:   {ExerciseID: "row", Sets: []domain.ExecutedSet{{Number: 1, Weight: 40.5, Reps: 10}}},
		},
		FocusedSlot: domain.SlotRef(1),
	}
	out := FormatFrame(Frame{Session: s, Names: map[string]string{"bench": "Bench Press"}, Message: "hi"})

	assert.Contains(t, out, "## 1. [x] Bench Press")
	assert.Contains(t, out, "## 2. [ ] row")
	assert.Contains(t, out, "| 1 | row | 40.5 | 10 |  |")
	assert.NotContains(t, out, "| 1 | Bench Press |")
	assert.Contains(t, out, "> hi")
}
