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

// Sessions adapts DB to ports.SessionStore. It is a separate type because
// the snapshot methods would collide with the catalog ones.
type Sessions struct {
	db *DB
}

var _ ports.SessionStore = (*Sessions)(nil)

// Sessions returns the session store view of d.
func (d *DB) Sessions() *Sessions {
	return &Sessions{db: d}
}

func (s *Sessions) Save(ctx context.Context, userID string, session *domain.ActiveSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, "encoding session")
	}
	err = s.db.exec(ctx, `INSERT INTO active_sessions (user_id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, string(data), time.Now().UnixNano())
	if err != nil {
		return errors.Wrapf(err, "saving session of %s", userID)
	}
	return nil
}

func (s *Sessions) Load(ctx context.Context, userID string) (*domain.ActiveSession, error) {
	var payload string
	err := s.db.queryRow(ctx, `SELECT payload FROM active_sessions WHERE user_id = ?`, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(domain.ErrSessionNotFound, "user %s", userID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying session")
	}

	var session domain.ActiveSession
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return nil, errors.Wrap(err, "decoding session")
	}
	return &session, nil
}

func (s *Sessions) Delete(ctx context.Context, userID string) error {
	if err := s.db.exec(ctx, `DELETE FROM active_sessions WHERE user_id = ?`, userID); err != nil {
		return errors.Wrapf(err, "deleting session of %s", userID)
	}
	return nil
}

func (s *Sessions) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.query(ctx, `SELECT user_id FROM active_sessions ORDER BY user_id`)
	if err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	defer rows.Close()

	users := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scanning session")
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
