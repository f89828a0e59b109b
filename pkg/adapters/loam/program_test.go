package loam_test

import (
	"context"
	"testing"

	"github.com/aretw0/ironlog/internal/testutils"
	"github.com/aretw0/ironlog/pkg/adapters/loam"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProgram(t *testing.T, files map[string]string) string {
	t.Helper()
	return testutils.WriteTree(t, files)
}

var pushProgram = map[string]string{
	"exercises/bench.md": `---
name: Bench Press
muscle_group: chest
timer_seconds: 90
---
Pause on the chest.`,
	"exercises/fly.md": `---
name: Cable Fly
muscle_group: chest
timer_enabled: false
---
`,
	"dip.yaml": `kind: exercise
id: dip
name: Dip
unit_primary: km
`,
	"templates/push.md": `---
name: Push
sequence_order: 1
slots:
  - bench
  - [fly, dip]
---
Chest and triceps.`,
	"templates/stretch.md": `---
name: Stretch
sequence_order: 2
sporadic: true
---
`,
}

func TestProgram_Exercises(t *testing.T) {
	p, err := loam.Open(writeProgram(t, pushProgram))
	require.NoError(t, err)
	ctx := context.Background()

	bench, err := p.GetExercise(ctx, "alice", "bench")
	require.NoError(t, err)
	assert.Equal(t, "alice", bench.UserID)
	assert.Equal(t, "Bench Press", bench.Name)
	assert.Equal(t, 90, bench.TimerSeconds)
	assert.True(t, bench.TimerEnabled)
	assert.Equal(t, "Pause on the chest.", bench.Notes)

	fly, err := p.GetExercise(ctx, "alice", "fly")
	require.NoError(t, err)
	assert.False(t, fly.TimerEnabled)
	assert.Equal(t, domain.DefaultTimerSeconds, fly.TimerSeconds)

	dip, err := p.GetExercise(ctx, "alice", "dip")
	require.NoError(t, err)
	assert.Equal(t, "km", dip.UnitPrimary)
	assert.Equal(t, "reps", dip.UnitSecondary)

	list, err := p.ListExercises(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Bench Press", "Cable Fly", "Dip"}, []string{list[0].Name, list[1].Name, list[2].Name})
	assert.Equal(t, "Pause on the chest.", list[0].Notes, "listed exercises carry their document body too")
	assert.Empty(t, list[1].Notes)

	_, err = p.GetExercise(ctx, "alice", "squat")
	assert.ErrorIs(t, err, domain.ErrExerciseNotFound)
}

func TestProgram_Templates(t *testing.T) {
	p, err := loam.Open(writeProgram(t, pushProgram))
	require.NoError(t, err)
	ctx := context.Background()

	push, err := p.GetTemplate(ctx, "alice", "push")
	require.NoError(t, err)
	require.Len(t, push.Slots, 2)
	assert.Equal(t, []string{"bench"}, push.Slots[0].ExerciseIDs)
	assert.Equal(t, []string{"fly", "dip"}, push.Slots[1].ExerciseIDs)

	list, err := p.ListTemplates(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "push", list[0].ID)
	assert.True(t, list[1].Sporadic)

	_, err = p.GetTemplate(ctx, "alice", "legs")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestProgram_InvalidSlot(t *testing.T) {
	p, err := loam.Open(writeProgram(t, map[string]string{
		"templates/bad.md": "---\nslots:\n  - [row, row]\n---\n",
	}))
	require.NoError(t, err)

	_, err = p.GetTemplate(context.Background(), "alice", "bad")
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)
}

func TestProgram_DetectsCollisions(t *testing.T) {
	p, err := loam.Open(writeProgram(t, map[string]string{
		"exercises/row.md":   "---\nname: Row\n---\n",
		"exercises/row.json": `{"name": "Barbell Row"}`,
	}))
	require.NoError(t, err)

	_, err = p.ListExercises(context.Background(), "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision")
}

func TestProgram_ReadOnly(t *testing.T) {
	p, err := loam.Open(writeProgram(t, pushProgram))
	require.NoError(t, err)

	err = p.SaveExercise(context.Background(), domain.NewExercise("alice", "row", "Row", "back"))
	assert.ErrorIs(t, err, loam.ErrReadOnly)
}
