package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
)

var (
	_ ports.ExerciseCatalog    = (*DB)(nil)
	_ ports.TemplateRepository = (*DB)(nil)
)

const exerciseColumns = `user_id, id, name, muscle_group, notes, timer_enabled, timer_seconds, unit_primary, unit_secondary`

type scanner interface {
	Scan(dest ...any) error
}

func scanExercise(row scanner) (*domain.Exercise, error) {
	var ex domain.Exercise
	err := row.Scan(&ex.UserID, &ex.ID, &ex.Name, &ex.MuscleGroup, &ex.Notes,
		&ex.TimerEnabled, &ex.TimerSeconds, &ex.UnitPrimary, &ex.UnitSecondary)
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

func (d *DB) GetExercise(ctx context.Context, userID, exerciseID string) (*domain.Exercise, error) {
	ex, err := scanExercise(d.queryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE user_id = ? AND id = ?`, userID, exerciseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrExerciseNotFound, "exercise %s", exerciseID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying exercise")
	}
	return ex, nil
}

func (d *DB) ListExercises(ctx context.Context, userID string) ([]domain.Exercise, error) {
	rows, err := d.query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying exercises")
	}
	defer rows.Close()

	list := []domain.Exercise{}
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning exercise")
		}
		list = append(list, *ex)
	}
	return list, rows.Err()
}

func (d *DB) SaveExercise(ctx context.Context, ex *domain.Exercise) error {
	err := d.exec(ctx, `INSERT INTO exercises (`+exerciseColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			muscle_group = excluded.muscle_group,
			notes = excluded.notes,
			timer_enabled = excluded.timer_enabled,
			timer_seconds = excluded.timer_seconds,
			unit_primary = excluded.unit_primary,
			unit_secondary = excluded.unit_secondary`,
		ex.UserID, ex.ID, ex.Name, ex.MuscleGroup, ex.Notes,
		ex.TimerEnabled, ex.TimerSeconds, ex.UnitPrimary, ex.UnitSecondary)
	if err != nil {
		return errors.Wrapf(err, "saving exercise %s", ex.ID)
	}
	return nil
}

func (d *DB) DeleteExercise(ctx context.Context, userID, exerciseID string) error {
	if err := d.exec(ctx, `DELETE FROM exercises WHERE user_id = ? AND id = ?`, userID, exerciseID); err != nil {
		return errors.Wrapf(err, "deleting exercise %s", exerciseID)
	}
	return nil
}

const templateColumns = `user_id, id, name, sequence_order, sporadic, slots`

func scanTemplate(row scanner) (*domain.Template, error) {
	var (
		t     domain.Template
		slots string
	)
	if err := row.Scan(&t.UserID, &t.ID, &t.Name, &t.SequenceOrder, &t.Sporadic, &slots); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(slots), &t.Slots); err != nil {
		return nil, errors.Wrapf(err, "decoding slots of template %s", t.ID)
	}
	return &t, nil
}

func (d *DB) GetTemplate(ctx context.Context, userID, templateID string) (*domain.Template, error) {
	t, err := scanTemplate(d.queryRow(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE user_id = ? AND id = ?`, userID, templateID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrTemplateNotFound, "template %s", templateID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying template")
	}
	return t, nil
}

func (d *DB) ListTemplates(ctx context.Context, userID string) ([]domain.Template, error) {
	rows, err := d.query(ctx,
		`SELECT `+templateColumns+` FROM templates WHERE user_id = ? ORDER BY sequence_order, id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying templates")
	}
	defer rows.Close()

	list := []domain.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning template")
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

func (d *DB) SaveTemplate(ctx context.Context, t *domain.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	slots := t.Slots
	if slots == nil {
		slots = []domain.Slot{}
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return errors.Wrap(err, "encoding slots")
	}

	err = d.exec(ctx, `INSERT INTO templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, id) DO UPDATE SET
			name = excluded.name,
			sequence_order = excluded.sequence_order,
			sporadic = excluded.sporadic,
			slots = excluded.slots`,
		t.UserID, t.ID, t.Name, t.SequenceOrder, t.Sporadic, string(data))
	if err != nil {
		return errors.Wrapf(err, "saving template %s", t.ID)
	}
	return nil
}

func (d *DB) DeleteTemplate(ctx context.Context, userID, templateID string) error {
	if err := d.exec(ctx, `DELETE FROM templates WHERE user_id = ? AND id = ?`, userID, templateID); err != nil {
		return errors.Wrapf(err, "deleting template %s", templateID)
	}
	return nil
}
