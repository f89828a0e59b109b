package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// UserID is always present to identify the target.
	UserID string `json:"user_id"`

	TemplateID *string `json:"template_id,omitempty"`

	// Focus is set when focus moved. FocusCleared distinguishes "no focus"
	// from "unchanged".
	Focus        *int `json:"focus,omitempty"`
	FocusCleared bool `json:"focus_cleared,omitempty"`

	// Exercises contains only added or modified entries, whole.
	Exercises []ExerciseDelta `json:"exercises,omitempty"`

	// Removed lists keys that no longer exist.
	Removed []ExerciseKey `json:"removed,omitempty"`
}

// ExerciseKey is the JSON form of a SlotKey.
type ExerciseKey struct {
	Slot       int    `json:"slot"`
	ExerciseID string `json:"exercise_id"`
}

// ExerciseDelta carries the new value of one executed exercise.
type ExerciseDelta struct {
	Slot int `json:"slot"`
	ExecutedExercise
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *ActiveSession) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{UserID: newSession.UserID}

	if oldSession == nil || oldSession.TemplateID != newSession.TemplateID {
		id := newSession.TemplateID
		diff.TemplateID = &id
	}

	diffFocus(diff, oldSession, newSession)

	for _, k := range newSession.ExecutionData.Keys() {
		newEx := newSession.ExecutionData[k]
		if oldSession != nil {
			if oldEx, ok := oldSession.ExecutionData[k]; ok && reflect.DeepEqual(oldEx, newEx) {
				continue
			}
		}
		diff.Exercises = append(diff.Exercises, ExerciseDelta{Slot: k.Slot, ExecutedExercise: *newEx})
	}

	if oldSession != nil {
		for _, k := range oldSession.ExecutionData.Keys() {
			if _, ok := newSession.ExecutionData[k]; !ok {
				diff.Removed = append(diff.Removed, ExerciseKey{Slot: k.Slot, ExerciseID: k.ExerciseID})
			}
		}
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffFocus(diff *SessionDiff, old, new *ActiveSession) {
	var before *int
	if old != nil {
		before = old.FocusedSlot
	}
	after := new.FocusedSlot

	switch {
	case after == nil && before != nil:
		diff.FocusCleared = true
	case after != nil && (before == nil || *before != *after):
		f := *after
		diff.Focus = &f
	}
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.TemplateID == nil &&
		d.Focus == nil &&
		!d.FocusCleared &&
		len(d.Exercises) == 0 &&
		len(d.Removed) == 0
}
