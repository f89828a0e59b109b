package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextTemplate(t *testing.T) {
	a := domain.Template{ID: "A", SequenceOrder: 1}
	b := domain.Template{ID: "B", SequenceOrder: 2}
	c := domain.Template{ID: "C", SequenceOrder: 3}
	d := domain.Template{ID: "D", SequenceOrder: 4, Sporadic: true}

	tests := []struct {
		name      string
		templates []domain.Template
		pointer   string
		want      string
		wantOK    bool
	}{
		{"Pointer In Middle", []domain.Template{a, b, c}, "B", "C", true},
		{"Pointer Last Wraps", []domain.Template{a, b, c}, "C", "A", true},
		{"No Pointer", []domain.Template{a, b, c}, "", "A", true},
		{"Unknown Pointer Restarts", []domain.Template{a, b, c}, "gone", "A", true},
		{"Sporadic Skipped", []domain.Template{a, d, b}, "A", "B", true},
		{"Only Sporadic", []domain.Template{d}, "", "D", true},
		{"Only Sporadic With Pointer", []domain.Template{d}, "D", "D", true},
		{"Empty", nil, "A", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.NextTemplate(tt.templates, tt.pointer)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestSlot_JSONAcceptsBothShapes(t *testing.T) {
	var tmpl domain.Template
	err := json.Unmarshal([]byte(`{"id":"t1","slots":["squat",{"ids":["curl","dip"]}]}`), &tmpl)
	require.NoError(t, err)

	require.Len(t, tmpl.Slots, 2)
	assert.Equal(t, []string{"squat"}, tmpl.Slots[0].ExerciseIDs)
	assert.False(t, tmpl.Slots[0].IsCombined())
	assert.Equal(t, []string{"curl", "dip"}, tmpl.Slots[1].ExerciseIDs)
	assert.True(t, tmpl.Slots[1].IsCombined())

	out, err := json.Marshal(tmpl.Slots)
	require.NoError(t, err)
	assert.JSONEq(t, `["squat",{"ids":["curl","dip"]}]`, string(out))
}

func TestTemplate_Validate(t *testing.T) {
	valid := domain.Template{ID: "t", Slots: []domain.Slot{domain.Single("a"), domain.Combined("b", "c")}}
	assert.NoError(t, valid.Validate())

	cases := map[string]domain.Template{
		"missing id":     {Slots: []domain.Slot{domain.Single("a")}},
		"empty slot":     {ID: "t", Slots: []domain.Slot{{}}},
		"three in slot":  {ID: "t", Slots: []domain.Slot{{ExerciseIDs: []string{"a", "b", "c"}}}},
		"repeated pair":  {ID: "t", Slots: []domain.Slot{domain.Combined("a", "a")}},
		"blank exercise": {ID: "t", Slots: []domain.Slot{domain.Single("")}},
	}
	for name, tmpl := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, tmpl.Validate(), domain.ErrInvalidTemplate)
		})
	}
}

func TestExecutionData_KeysSurviveEncoding(t *testing.T) {
	// The same exercise in two slots must stay two entries.
	session := &domain.ActiveSession{
		UserID:     "u1",
		TemplateID: "t1",
		ExecutionData: domain.ExecutionData{
			{Slot: 0, ExerciseID: "squat"}: {ExerciseID: "squat", Sets: []domain.ExecutedSet{{Number: 1, Weight: 100, Reps: 5}}},
			{Slot: 2, ExerciseID: "squat"}: {ExerciseID: "squat", Sets: []domain.ExecutedSet{{Number: 1, Weight: 80, Reps: 8}}},
		},
		FocusedSlot: domain.SlotRef(2),
	}

	data, err := json.Marshal(session)
	require.NoError(t, err)

	var loaded domain.ActiveSession
	require.NoError(t, json.Unmarshal(data, &loaded))

	require.Len(t, loaded.ExecutionData, 2)
	assert.Equal(t, 100.0, loaded.Exercise(0, "squat").Sets[0].Weight)
	assert.Equal(t, 80.0, loaded.Exercise(2, "squat").Sets[0].Weight)
	require.NotNil(t, loaded.FocusedSlot)
	assert.Equal(t, 2, *loaded.FocusedSlot)
}

func TestActiveSession_CloneIsDeep(t *testing.T) {
	original := &domain.ActiveSession{
		ExecutionData: domain.ExecutionData{
			{Slot: 0, ExerciseID: "a"}: {ExerciseID: "a", Sets: []domain.ExecutedSet{{Number: 1}}},
		},
		FocusedSlot: domain.SlotRef(0),
	}

	clone := original.Clone()
	clone.Exercise(0, "a").Sets[0].Completed = true
	*clone.FocusedSlot = 3

	assert.False(t, original.Exercise(0, "a").Sets[0].Completed)
	assert.Equal(t, 0, *original.FocusedSlot)
}

func TestExecutionRecord_Volume(t *testing.T) {
	record := domain.ExecutionRecord{
		ExecutedExercises: []domain.ExecutedExercise{
			{ExerciseID: "a", Sets: []domain.ExecutedSet{
				{Weight: 100, Reps: 5, Completed: true},
				{Weight: 100, Reps: 5, Completed: false},
			}},
			{ExerciseID: "b", Sets: []domain.ExecutedSet{
				{Weight: 20, Reps: 10, Completed: true},
			}},
		},
	}
	assert.Equal(t, 700.0, record.Volume())
	assert.NotNil(t, record.Find("b"))
	assert.Nil(t, record.Find("c"))
}

func TestNewExercise_Defaults(t *testing.T) {
	ex := domain.NewExercise("u1", "e1", "Squat", "legs")
	assert.True(t, ex.TimerEnabled)
	assert.Equal(t, 60, ex.TimerSeconds)
	assert.Equal(t, "kg", ex.UnitPrimary)
	assert.Equal(t, "reps", ex.UnitSecondary)

	bare := domain.Exercise{ID: "x", TimerSeconds: -5}
	bare.Normalize()
	assert.Equal(t, "kg", bare.UnitPrimary)
	assert.Equal(t, "reps", bare.UnitSecondary)
	assert.Equal(t, 0, bare.TimerSeconds)
}

func TestUnavailable_MarksAndPreservesCause(t *testing.T) {
	cause := assert.AnError
	err := domain.Unavailable(cause)

	assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, domain.Unavailable(nil))
	assert.True(t, domain.IsNotFound(domain.ErrTemplateNotFound))
	assert.False(t, domain.IsNotFound(err))
}
