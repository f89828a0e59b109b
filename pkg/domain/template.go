package domain

import (
	"bytes"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Slot is one position of a template. It holds a single exercise or a
// combined pair performed back to back (a bi-set).
type Slot struct {
	ExerciseIDs []string `json:"ids"`
}

// Single builds a slot with one exercise.
func Single(exerciseID string) Slot {
	return Slot{ExerciseIDs: []string{exerciseID}}
}

// Combined builds a bi-set slot.
func Combined(first, second string) Slot {
	return Slot{ExerciseIDs: []string{first, second}}
}

// IsCombined reports whether the slot is a bi-set.
func (s Slot) IsCombined() bool {
	return len(s.ExerciseIDs) == 2
}

// Validate checks the slot holds one exercise or exactly two distinct ones.
func (s Slot) Validate() error {
	switch len(s.ExerciseIDs) {
	case 1:
		if s.ExerciseIDs[0] == "" {
			return errors.Wrap(ErrInvalidTemplate, "slot has an empty exercise id")
		}
	case 2:
		if s.ExerciseIDs[0] == "" || s.ExerciseIDs[1] == "" {
			return errors.Wrap(ErrInvalidTemplate, "combined slot has an empty exercise id")
		}
		if s.ExerciseIDs[0] == s.ExerciseIDs[1] {
			return errors.Wrapf(ErrInvalidTemplate, "combined slot repeats exercise %q", s.ExerciseIDs[0])
		}
	default:
		return errors.Wrapf(ErrInvalidTemplate, "slot must hold 1 or 2 exercises, got %d", len(s.ExerciseIDs))
	}
	return nil
}

// MarshalJSON encodes a single slot as its bare exercise id and a combined
// slot as {"ids": [...]}.
func (s Slot) MarshalJSON() ([]byte, error) {
	if len(s.ExerciseIDs) == 1 {
		return json.Marshal(s.ExerciseIDs[0])
	}
	type plain Slot
	return json.Marshal(plain(s))
}

// UnmarshalJSON accepts both slot encodings.
func (s *Slot) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		s.ExerciseIDs = []string{id}
		return nil
	}
	type plain Slot
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Slot(p)
	return nil
}

// Template is an ordered plan of slots.
type Template struct {
	ID            string `json:"id"`
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	SequenceOrder int    `json:"sequence_order"`
	Sporadic      bool   `json:"sporadic"`
	Slots         []Slot `json:"slots"`
}

// Validate checks every slot of the template.
func (t *Template) Validate() error {
	if t.ID == "" {
		return errors.Wrap(ErrInvalidTemplate, "template id is required")
	}
	for i, slot := range t.Slots {
		if err := slot.Validate(); err != nil {
			return errors.Wrapf(err, "slot %d", i)
		}
	}
	return nil
}

// SlotIDs returns the exercise ids of slot i, or nil when out of range.
func (t *Template) SlotIDs(i int) []string {
	if i < 0 || i >= len(t.Slots) {
		return nil
	}
	return t.Slots[i].ExerciseIDs
}

// ExerciseIDs returns every distinct exercise id referenced by the template, in slot order.
func (t *Template) ExerciseIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, slot := range t.Slots {
		for _, id := range slot.ExerciseIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}
