package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
)

type entityKey struct {
	userID string
	id     string
}

// Catalog implements ports.ExerciseCatalog in memory.
type Catalog struct {
	mu        sync.RWMutex
	exercises map[entityKey]domain.Exercise
}

var _ ports.ExerciseCatalog = (*Catalog)(nil)

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{exercises: make(map[entityKey]domain.Exercise)}
}

// NewCatalogFrom creates a catalog holding exercises.
// This improves DX for tests.
func NewCatalogFrom(exercises ...*domain.Exercise) (*Catalog, error) {
	c := NewCatalog()
	for _, ex := range exercises {
		if err := c.SaveExercise(context.Background(), ex); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) GetExercise(ctx context.Context, userID, exerciseID string) (*domain.Exercise, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ex, ok := c.exercises[entityKey{userID, exerciseID}]
	if !ok {
		return nil, errors.Wrapf(domain.ErrExerciseNotFound, "exercise %s", exerciseID)
	}
	return &ex, nil
}

func (c *Catalog) ListExercises(ctx context.Context, userID string) ([]domain.Exercise, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var list []domain.Exercise
	for k, ex := range c.exercises {
		if k.userID == userID {
			list = append(list, ex)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (c *Catalog) SaveExercise(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == "" {
		return errors.New("exercise missing ID")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exercises[entityKey{exercise.UserID, exercise.ID}] = *exercise
	return nil
}

func (c *Catalog) DeleteExercise(ctx context.Context, userID, exerciseID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exercises, entityKey{userID, exerciseID})
	return nil
}

// Templates implements ports.TemplateRepository in memory.
type Templates struct {
	mu        sync.RWMutex
	templates map[entityKey]domain.Template
}

var _ ports.TemplateRepository = (*Templates)(nil)

// NewTemplates creates an empty repository.
func NewTemplates() *Templates {
	return &Templates{templates: make(map[entityKey]domain.Template)}
}

// NewTemplatesFrom creates a repository holding templates.
func NewTemplatesFrom(templates ...*domain.Template) (*Templates, error) {
	r := NewTemplates()
	for _, t := range templates {
		if err := r.SaveTemplate(context.Background(), t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func copyTemplate(t domain.Template) domain.Template {
	slots := make([]domain.Slot, len(t.Slots))
	for i, s := range t.Slots {
		slots[i] = domain.Slot{ExerciseIDs: append([]string(nil), s.ExerciseIDs...)}
	}
	t.Slots = slots
	return t
}

func (r *Templates) GetTemplate(ctx context.Context, userID, templateID string) (*domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[entityKey{userID, templateID}]
	if !ok {
		return nil, errors.Wrapf(domain.ErrTemplateNotFound, "template %s", templateID)
	}
	t = copyTemplate(t)
	return &t, nil
}

func (r *Templates) ListTemplates(ctx context.Context, userID string) ([]domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var list []domain.Template
	for k, t := range r.templates {
		if k.userID == userID {
			list = append(list, copyTemplate(t))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SequenceOrder != list[j].SequenceOrder {
			return list[i].SequenceOrder < list[j].SequenceOrder
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (r *Templates) SaveTemplate(ctx context.Context, template *domain.Template) error {
	if err := template.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[entityKey{template.UserID, template.ID}] = copyTemplate(*template)
	return nil
}

func (r *Templates) DeleteTemplate(ctx context.Context, userID, templateID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.templates, entityKey{userID, templateID})
	return nil
}
