package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
)

var _ ports.ExecutionArchive = (*DB)(nil)

func (d *DB) AppendExecution(ctx context.Context, r *domain.ExecutionRecord) error {
	data, err := json.Marshal(r.ExecutedExercises)
	if err != nil {
		return errors.Wrap(err, "encoding executed exercises")
	}
	err = d.exec(ctx, `INSERT INTO executions (id, user_id, template_id, finished_at, status, exercises)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.TemplateID, r.FinishedAt.UnixNano(), string(r.Status), string(data))
	if err != nil {
		return errors.Wrapf(err, "inserting execution %s", r.ID)
	}
	return nil
}

func (d *DB) ListExecutions(ctx context.Context, userID string) ([]domain.ExecutionRecord, error) {
	rows, err := d.query(ctx, `SELECT id, user_id, template_id, finished_at, status, exercises
		FROM executions WHERE user_id = ? ORDER BY finished_at DESC, id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying executions")
	}
	defer rows.Close()

	records := []domain.ExecutionRecord{}
	for rows.Next() {
		var (
			r         domain.ExecutionRecord
			finished  int64
			status    string
			exercises string
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.TemplateID, &finished, &status, &exercises); err != nil {
			return nil, errors.Wrap(err, "scanning execution")
		}
		if err := json.Unmarshal([]byte(exercises), &r.ExecutedExercises); err != nil {
			return nil, errors.Wrapf(err, "decoding execution %s", r.ID)
		}
		r.FinishedAt = time.Unix(0, finished).UTC()
		r.Status = domain.ExecutionStatus(status)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (d *DB) SetLastCompleted(ctx context.Context, userID, templateID string) error {
	err := d.exec(ctx, `INSERT INTO last_completed (user_id, template_id) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET template_id = excluded.template_id`, userID, templateID)
	if err != nil {
		return errors.Wrap(err, "updating last completed template")
	}
	return nil
}

func (d *DB) LastCompleted(ctx context.Context, userID string) (string, error) {
	var id string
	err := d.queryRow(ctx, `SELECT template_id FROM last_completed WHERE user_id = ?`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "querying last completed template")
	}
	return id, nil
}
