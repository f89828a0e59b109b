package runtime

import (
	"math"
	"time"

	"github.com/aretw0/ironlog/pkg/domain"
)

// Result is the outcome of a mutation: the new session and the effects the
// host must run. Changed is false for no-op calls, in which case Session is
// the unmodified input.
type Result struct {
	Session *domain.ActiveSession
	Effects []domain.Effect
	Changed bool
}

// Machine applies mutations to the sessions of one template.
// It never performs I/O and never mutates its input.
type Machine struct {
	template   *domain.Template
	exercises  map[string]*domain.Exercise
	focusDelay time.Duration
}

// Option configures a Machine.
type Option func(*Machine)

// WithFocusDelay overrides the pause before focus moves past a completed slot.
func WithFocusDelay(d time.Duration) Option {
	return func(m *Machine) {
		m.focusDelay = d
	}
}

// NewMachine creates a machine for tmpl. exercises provides the rest timer
// settings and may miss ids; unknown exercises have no timer.
func NewMachine(tmpl *domain.Template, exercises map[string]*domain.Exercise, opts ...Option) *Machine {
	m := &Machine{
		template:   tmpl,
		exercises:  exercises,
		focusDelay: domain.FocusAdvanceDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Template returns the template the machine was built for.
func (m *Machine) Template() *domain.Template {
	return m.template
}

// SlotCount returns the number of slots known to the session.
func (m *Machine) SlotCount(s *domain.ActiveSession) int {
	n := len(m.template.Slots)
	for k := range s.ExecutionData {
		if k.Slot+1 > n {
			n = k.Slot + 1
		}
	}
	return n
}

// SlotKeys returns the keys of slot in template order. Sessions seeded from
// an older version of the template fall back to the keys they actually hold.
func (m *Machine) SlotKeys(s *domain.ActiveSession, slot int) []domain.SlotKey {
	var keys []domain.SlotKey
	for _, id := range m.template.SlotIDs(slot) {
		k := domain.SlotKey{Slot: slot, ExerciseID: id}
		if _, ok := s.ExecutionData[k]; ok {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		return keys
	}
	for _, k := range s.ExecutionData.Keys() {
		if k.Slot == slot {
			keys = append(keys, k)
		}
	}
	return keys
}

func unchanged(s *domain.ActiveSession) Result {
	return Result{Session: s}
}

// ToggleSetCompletion flips set on every exercise of slot. The new value is
// the opposite of the first exercise's current one.
//
// Completing a set starts the rest timer of the first exercise with a timer.
// When the slot is then fully done, or set is its last index, every exercise
// of the slot is marked completed and a delayed focus advance is requested.
// Clearing a set marks the slot's exercises not completed.
func (m *Machine) ToggleSetCompletion(s *domain.ActiveSession, slot, set int) Result {
	keys := m.SlotKeys(s, slot)
	if len(keys) == 0 || set < 0 {
		return unchanged(s)
	}
	for _, k := range keys {
		if set >= len(s.ExecutionData[k].Sets) {
			return unchanged(s)
		}
	}

	next := s.Clone()
	first := next.ExecutionData[keys[0]]
	completed := !first.Sets[set].Completed
	for _, k := range keys {
		next.ExecutionData[k].Sets[set].Completed = completed
	}

	res := Result{Session: next, Changed: true}
	if !completed {
		for _, k := range keys {
			next.ExecutionData[k].Completed = false
		}
		return res
	}

	for _, k := range keys {
		if ex := m.exercises[k.ExerciseID]; ex != nil && ex.TimerEnabled {
			res.Effects = append(res.Effects, domain.Effect{
				Kind:    domain.EffectStartTimer,
				Slot:    slot,
				Seconds: ex.TimerSeconds,
			})
			break
		}
	}

	allDone := true
	for _, k := range keys {
		if !next.ExecutionData[k].AllSetsCompleted() {
			allDone = false
			break
		}
	}
	if allDone || set == len(first.Sets)-1 {
		for _, k := range keys {
			next.ExecutionData[k].Completed = true
		}
		res.Effects = append(res.Effects, domain.Effect{
			Kind:  domain.EffectAdvanceFocus,
			Slot:  slot,
			Delay: m.focusDelay,
		})
	}
	return res
}

// AdvanceFocus moves focus from slot to the next one. It does nothing if
// focus has moved away from slot in the meantime or slot is the last one.
func (m *Machine) AdvanceFocus(s *domain.ActiveSession, slot int) Result {
	if !s.IsFocused(slot) || slot+1 >= m.SlotCount(s) {
		return unchanged(s)
	}
	next := s.Clone()
	next.FocusedSlot = domain.SlotRef(slot + 1)
	return Result{Session: next, Changed: true}
}

func validValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// SetSetValue writes field on one set of one exercise. Other exercises of the
// slot keep their own values.
func (m *Machine) SetSetValue(s *domain.ActiveSession, slot int, exerciseID string, set int, field domain.Field, value float64) (Result, error) {
	if !field.Valid() {
		return unchanged(s), domain.ErrInvalidField
	}
	ex := s.Exercise(slot, exerciseID)
	if ex == nil || set < 0 || set >= len(ex.Sets) || !validValue(value) {
		return unchanged(s), nil
	}

	next := s.Clone()
	target := &next.Exercise(slot, exerciseID).Sets[set]
	switch field {
	case domain.FieldWeight:
		if target.Weight == value {
			return unchanged(s), nil
		}
		target.Weight = value
	case domain.FieldReps:
		if target.Reps == value {
			return unchanged(s), nil
		}
		target.Reps = value
	}
	return Result{Session: next, Changed: true}, nil
}

// AddSet appends a set to every exercise of slot and marks them not completed.
func (m *Machine) AddSet(s *domain.ActiveSession, slot int) Result {
	keys := m.SlotKeys(s, slot)
	if len(keys) == 0 {
		return unchanged(s)
	}

	next := s.Clone()
	for _, k := range keys {
		ex := next.ExecutionData[k]
		ex.Sets = append(ex.Sets, nextSet(ex.Sets))
		ex.Completed = false
	}
	return Result{Session: next, Changed: true}
}

// RemoveSet drops the last set of every exercise of slot. A slot never goes
// below one set. Each exercise is completed afterwards iff its remaining sets are.
func (m *Machine) RemoveSet(s *domain.ActiveSession, slot int) Result {
	keys := m.SlotKeys(s, slot)
	if len(keys) == 0 || len(s.ExecutionData[keys[0]].Sets) <= 1 {
		return unchanged(s)
	}

	next := s.Clone()
	for _, k := range keys {
		ex := next.ExecutionData[k]
		if len(ex.Sets) > 0 {
			ex.Sets = ex.Sets[:len(ex.Sets)-1]
		}
		ex.Completed = ex.AllSetsCompleted()
	}
	return Result{Session: next, Changed: true}
}

// SetFocus expands slot, or collapses it when it already has focus.
// A nil slot clears focus.
func (m *Machine) SetFocus(s *domain.ActiveSession, slot *int) Result {
	next := s.Clone()
	switch {
	case slot == nil:
		if s.FocusedSlot == nil {
			return unchanged(s)
		}
		next.FocusedSlot = nil
	case *slot < 0 || *slot >= m.SlotCount(s):
		return unchanged(s)
	case s.IsFocused(*slot):
		next.FocusedSlot = nil
	default:
		next.FocusedSlot = domain.SlotRef(*slot)
	}
	return Result{Session: next, Changed: true}
}

// ApplyBulkToExercise overwrites weight and reps on every set of one
// exercise. Nil or invalid values leave the current ones untouched.
func (m *Machine) ApplyBulkToExercise(s *domain.ActiveSession, slot int, exerciseID string, weight, reps *float64) Result {
	ex := s.Exercise(slot, exerciseID)
	setWeight := weight != nil && validValue(*weight)
	setReps := reps != nil && validValue(*reps)
	if ex == nil || (!setWeight && !setReps) {
		return unchanged(s)
	}

	next := s.Clone()
	target := next.Exercise(slot, exerciseID)
	for i := range target.Sets {
		if setWeight {
			target.Sets[i].Weight = *weight
		}
		if setReps {
			target.Sets[i].Reps = *reps
		}
	}
	return Result{Session: next, Changed: true}
}
