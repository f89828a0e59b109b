package cli

import (
	"context"
	"io"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Seed is a catalog file: exercises and templates for one user.
//
//	exercises:
//	  - id: bench
//	    name: Bench Press
//	    muscle_group: chest
//	    timer_seconds: 90
//	templates:
//	  - id: upper
//	    name: Upper
//	    sequence_order: 1
//	    slots: [bench, [squat, row]]
type Seed struct {
	Exercises []*domain.Exercise
	Templates []*domain.Template
}

type seedFile struct {
	Exercises []yaml.Node    `yaml:"exercises"`
	Templates []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
	ID            string      `yaml:"id"`
	Name          string      `yaml:"name"`
	SequenceOrder int         `yaml:"sequence_order"`
	Sporadic      bool        `yaml:"sporadic"`
	Slots         []yaml.Node `yaml:"slots"`
}

// ParseSeed decodes a catalog file for userID. Exercises start from the
// NewExercise defaults; a slot is an exercise id or a list of two ids.
func ParseSeed(r io.Reader, userID string) (*Seed, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "failed to parse catalog file")
	}

	seed := &Seed{}
	for i := range f.Exercises {
		ex := domain.NewExercise(userID, "", "", "")
		if err := f.Exercises[i].Decode(ex); err != nil {
			return nil, errors.Wrapf(err, "exercise #%d", i+1)
		}
		ex.UserID = userID
		if ex.ID == "" {
			return nil, errors.Newf("exercise #%d has no id", i+1)
		}
		ex.Normalize()
		seed.Exercises = append(seed.Exercises, ex)
	}

	for _, t := range f.Templates {
		tmpl := &domain.Template{
			ID:            t.ID,
			UserID:        userID,
			Name:          t.Name,
			SequenceOrder: t.SequenceOrder,
			Sporadic:      t.Sporadic,
		}
		for j := range t.Slots {
			slot, err := parseSlot(&t.Slots[j])
			if err != nil {
				return nil, errors.Wrapf(err, "template %s slot %d", t.ID, j+1)
			}
			tmpl.Slots = append(tmpl.Slots, slot)
		}
		if err := tmpl.Validate(); err != nil {
			return nil, errors.Wrapf(err, "template %q", t.ID)
		}
		seed.Templates = append(seed.Templates, tmpl)
	}
	return seed, nil
}

func parseSlot(n *yaml.Node) (domain.Slot, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return domain.Single(n.Value), nil
	case yaml.SequenceNode:
		var ids []string
		if err := n.Decode(&ids); err != nil {
			return domain.Slot{}, err
		}
		return domain.Slot{ExerciseIDs: ids}, nil
	}
	return domain.Slot{}, errors.Newf("line %d: a slot is an id or a list of ids", n.Line)
}

// Import saves every exercise, then every template, through the engine so
// the same validation applies as for the APIs.
func (s *Stack) Import(ctx context.Context, seed *Seed) error {
	for _, ex := range seed.Exercises {
		if err := s.Engine.SaveExercise(ctx, ex); err != nil {
			return errors.Wrapf(err, "failed to import exercise %s", ex.ID)
		}
	}
	for _, t := range seed.Templates {
		if err := s.Engine.SaveTemplate(ctx, t); err != nil {
			return errors.Wrapf(err, "failed to import template %s", t.ID)
		}
	}
	s.Logger.Info("Catalog imported", "exercises", len(seed.Exercises), "templates", len(seed.Templates))
	return nil
}
