package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// SessionStatus is the lifecycle of the engine's in-memory copy of a session.
// Autosave is only valid while the session is active.
type SessionStatus string

const (
	StatusActive     SessionStatus = "active"
	StatusFinalizing SessionStatus = "finalizing"
	StatusClosed     SessionStatus = "closed"
)

// Field names a numeric value of a set.
type Field string

const (
	FieldWeight Field = "weight"
	FieldReps   Field = "reps"
)

// Valid reports whether f is weight or reps.
func (f Field) Valid() bool {
	return f == FieldWeight || f == FieldReps
}

// Default values for sets that have nothing to copy from.
const (
	DefaultSetWeight = 0
	DefaultSetReps   = 10
)

// ExecutedSet is one series of an exercise.
type ExecutedSet struct {
	Number    int     `json:"number"`
	Weight    float64 `json:"weight"`
	Reps      float64 `json:"reps"`
	Completed bool    `json:"completed"`
}

// ExecutedExercise holds the sets of one exercise within a slot.
type ExecutedExercise struct {
	ExerciseID string        `json:"exercise_id"`
	Completed  bool          `json:"completed"`
	Sets       []ExecutedSet `json:"sets"`
}

// Clone returns a deep copy.
func (e *ExecutedExercise) Clone() *ExecutedExercise {
	if e == nil {
		return nil
	}
	c := *e
	c.Sets = append([]ExecutedSet(nil), e.Sets...)
	return &c
}

// AllSetsCompleted reports whether the exercise has sets and every one is done.
func (e *ExecutedExercise) AllSetsCompleted() bool {
	if len(e.Sets) == 0 {
		return false
	}
	for _, s := range e.Sets {
		if !s.Completed {
			return false
		}
	}
	return true
}

// CompletedSets counts the completed sets.
func (e *ExecutedExercise) CompletedSets() int {
	n := 0
	for _, s := range e.Sets {
		if s.Completed {
			n++
		}
	}
	return n
}

// SlotKey identifies an exercise within a session. The slot index is part of
// the key because the same exercise may appear in more than one slot.
type SlotKey struct {
	Slot       int
	ExerciseID string
}

// ExecutionData maps slot keys to executed exercises.
// It is encoded as an array ordered by slot, then exercise id.
type ExecutionData map[SlotKey]*ExecutedExercise

type executionEntry struct {
	Slot int `json:"slot"`
	ExecutedExercise
}

// Keys returns the keys ordered by slot, then exercise id.
func (d ExecutionData) Keys() []SlotKey {
	keys := make([]SlotKey, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Slot != keys[j].Slot {
			return keys[i].Slot < keys[j].Slot
		}
		return keys[i].ExerciseID < keys[j].ExerciseID
	})
	return keys
}

func (d ExecutionData) MarshalJSON() ([]byte, error) {
	entries := make([]executionEntry, 0, len(d))
	for _, k := range d.Keys() {
		ex := d[k]
		if ex == nil {
			continue
		}
		entries = append(entries, executionEntry{Slot: k.Slot, ExecutedExercise: *ex})
	}
	return json.Marshal(entries)
}

func (d *ExecutionData) UnmarshalJSON(data []byte) error {
	var entries []executionEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	out := make(ExecutionData, len(entries))
	for _, e := range entries {
		ex := e.ExecutedExercise
		out[SlotKey{Slot: e.Slot, ExerciseID: ex.ExerciseID}] = &ex
	}
	*d = out
	return nil
}

// Clone returns a deep copy.
func (d ExecutionData) Clone() ExecutionData {
	if d == nil {
		return nil
	}
	out := make(ExecutionData, len(d))
	for k, v := range d {
		out[k] = v.Clone()
	}
	return out
}

// ActiveSession is the live, resumable state of one workout in progress.
// A user has at most one.
type ActiveSession struct {
	UserID        string        `json:"user_id"`
	TemplateID    string        `json:"template_id"`
	StartedAt     time.Time     `json:"started_at"`
	ExecutionData ExecutionData `json:"execution_data"`
	FocusedSlot   *int          `json:"focused_slot"`
}

// Clone returns a deep copy, so callers can't mutate the engine's state through it.
func (s *ActiveSession) Clone() *ActiveSession {
	if s == nil {
		return nil
	}
	c := *s
	c.ExecutionData = s.ExecutionData.Clone()
	if s.FocusedSlot != nil {
		f := *s.FocusedSlot
		c.FocusedSlot = &f
	}
	return &c
}

// Exercise returns the executed exercise at key, or nil.
func (s *ActiveSession) Exercise(slot int, exerciseID string) *ExecutedExercise {
	return s.ExecutionData[SlotKey{Slot: slot, ExerciseID: exerciseID}]
}

// IsFocused reports whether slot is the focused one.
func (s *ActiveSession) IsFocused(slot int) bool {
	return s.FocusedSlot != nil && *s.FocusedSlot == slot
}

// AllCompleted reports whether every executed exercise is marked completed.
func (s *ActiveSession) AllCompleted() bool {
	for _, ex := range s.ExecutionData {
		if !ex.Completed {
			return false
		}
	}
	return true
}

// SlotRef returns a pointer to i, the form used for FocusedSlot.
func SlotRef(i int) *int {
	return &i
}
