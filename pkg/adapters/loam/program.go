// Package loam reads a training program (exercises and templates) from a
// directory of Markdown, YAML or JSON documents managed by Loam.
package loam

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/aretw0/loam"
	"github.com/cockroachdb/errors"
)

// ErrReadOnly is returned by the write methods. Programs are edited as files.
var ErrReadOnly = errors.New("program directory is read-only")

// Program serves a directory as both catalog and template repository.
// The program is shared: every user sees the same documents, stamped with
// their own user id.
type Program struct {
	Repo *loam.TypedRepository[DocumentMetadata]
}

var (
	_ ports.ExerciseCatalog    = (*Program)(nil)
	_ ports.TemplateRepository = (*Program)(nil)
	_ ports.Watchable          = (*Program)(nil)
)

// New wraps a typed Loam repository.
func New(repo *loam.TypedRepository[DocumentMetadata]) *Program {
	return &Program{Repo: repo}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Program, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving program directory %s", dir)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize loam")
	}
	return New(loam.NewTypedRepository[DocumentMetadata](repo)), nil
}

type entry struct {
	id     string
	source string
	meta   DocumentMetadata
}

// kindOf falls back to the parent directory when kind is not declared.
func kindOf(docID string, meta DocumentMetadata) string {
	if meta.Kind != "" {
		return strings.ToLower(meta.Kind)
	}
	dir := path.Dir(filepath.ToSlash(docID))
	switch {
	case strings.HasSuffix(dir, "exercises"):
		return KindExercise
	case strings.HasSuffix(dir, "templates"):
		return KindTemplate
	}
	return ""
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(id, path.Ext(id))
}

// scan lists the documents of one kind keyed by entity id.
// List carries metadata only; bodies are read with Get.
func (p *Program) scan(ctx context.Context, kind string) (map[string]entry, error) {
	docs, err := p.Repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loam list failed")
	}

	entries := make(map[string]entry)
	for _, doc := range docs {
		if kindOf(doc.ID, doc.Data) != kind {
			continue
		}
		id := doc.Data.ID
		if id == "" {
			id = path.Base(trimExtension(doc.ID))
		}
		id = trimExtension(id)

		if existing, ok := entries[id]; ok {
			return nil, errors.Newf("collision detected: %s id %q is defined in both %q and %q", kind, id, existing.source, doc.ID)
		}
		entries[id] = entry{id: id, source: doc.ID, meta: doc.Data}
	}
	return entries, nil
}

// exercise reads the document body, which holds the exercise notes.
func (p *Program) exercise(ctx context.Context, userID string, e entry) (*domain.Exercise, error) {
	doc, err := p.Repo.Get(ctx, e.source)
	if err != nil {
		return nil, errors.Wrapf(err, "loam get failed for %s", e.source)
	}
	return toExercise(userID, e, doc.Content), nil
}

func toExercise(userID string, e entry, content string) *domain.Exercise {
	name := e.meta.Name
	if name == "" {
		name = e.id
	}
	ex := domain.NewExercise(userID, e.id, name, e.meta.MuscleGroup)
	ex.Notes = strings.TrimSpace(content)
	if e.meta.TimerEnabled != nil {
		ex.TimerEnabled = *e.meta.TimerEnabled
	}
	if e.meta.TimerSeconds != nil {
		ex.TimerSeconds = *e.meta.TimerSeconds
	}
	if e.meta.UnitPrimary != "" {
		ex.UnitPrimary = e.meta.UnitPrimary
	}
	if e.meta.UnitSecondary != "" {
		ex.UnitSecondary = e.meta.UnitSecondary
	}
	ex.Normalize()
	return ex
}

// parseSlots accepts "bench" or ["fly", "dip"] for each slot.
func parseSlots(raw []any) ([]domain.Slot, error) {
	slots := make([]domain.Slot, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			slots = append(slots, domain.Single(v))
		case []any:
			ids := make([]string, 0, len(v))
			for _, id := range v {
				s, ok := id.(string)
				if !ok {
					return nil, errors.Wrapf(domain.ErrInvalidTemplate, "slot %d: expected exercise id, got %T", i, id)
				}
				ids = append(ids, s)
			}
			slots = append(slots, domain.Slot{ExerciseIDs: ids})
		default:
			return nil, errors.Wrapf(domain.ErrInvalidTemplate, "slot %d: expected string or list, got %T", i, item)
		}
	}
	return slots, nil
}

func toTemplate(userID string, e entry) (*domain.Template, error) {
	slots, err := parseSlots(e.meta.Slots)
	if err != nil {
		return nil, errors.Wrapf(err, "template %s", e.source)
	}
	name := e.meta.Name
	if name == "" {
		name = e.id
	}
	t := &domain.Template{
		ID:            e.id,
		UserID:        userID,
		Name:          name,
		SequenceOrder: e.meta.SequenceOrder,
		Sporadic:      e.meta.Sporadic,
		Slots:         slots,
	}
	if err := t.Validate(); err != nil {
		return nil, errors.Wrapf(err, "template %s", e.source)
	}
	return t, nil
}

func (p *Program) GetExercise(ctx context.Context, userID, exerciseID string) (*domain.Exercise, error) {
	entries, err := p.scan(ctx, KindExercise)
	if err != nil {
		return nil, err
	}
	e, ok := entries[exerciseID]
	if !ok {
		return nil, errors.Wrapf(domain.ErrExerciseNotFound, "exercise %s", exerciseID)
	}
	return p.exercise(ctx, userID, e)
}

func (p *Program) ListExercises(ctx context.Context, userID string) ([]domain.Exercise, error) {
	entries, err := p.scan(ctx, KindExercise)
	if err != nil {
		return nil, err
	}
	list := make([]domain.Exercise, 0, len(entries))
	for _, e := range entries {
		ex, err := p.exercise(ctx, userID, e)
		if err != nil {
			return nil, err
		}
		list = append(list, *ex)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (p *Program) SaveExercise(ctx context.Context, exercise *domain.Exercise) error {
	return ErrReadOnly
}

func (p *Program) DeleteExercise(ctx context.Context, userID, exerciseID string) error {
	return ErrReadOnly
}

func (p *Program) GetTemplate(ctx context.Context, userID, templateID string) (*domain.Template, error) {
	entries, err := p.scan(ctx, KindTemplate)
	if err != nil {
		return nil, err
	}
	e, ok := entries[templateID]
	if !ok {
		return nil, errors.Wrapf(domain.ErrTemplateNotFound, "template %s", templateID)
	}
	return toTemplate(userID, e)
}

func (p *Program) ListTemplates(ctx context.Context, userID string) ([]domain.Template, error) {
	entries, err := p.scan(ctx, KindTemplate)
	if err != nil {
		return nil, err
	}
	list := make([]domain.Template, 0, len(entries))
	for _, e := range entries {
		t, err := toTemplate(userID, e)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SequenceOrder != list[j].SequenceOrder {
			return list[i].SequenceOrder < list[j].SequenceOrder
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (p *Program) SaveTemplate(ctx context.Context, template *domain.Template) error {
	return ErrReadOnly
}

func (p *Program) DeleteTemplate(ctx context.Context, userID, templateID string) error {
	return ErrReadOnly
}

// Watch implements ports.Watchable. It emits the id of every changed document.
func (p *Program) Watch(ctx context.Context) (<-chan string, error) {
	events, err := p.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
