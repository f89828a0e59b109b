package redis

import (
	"context"
	"encoding/json"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
	backend "github.com/redis/go-redis/v9"
)

// Archive implements ports.ExecutionArchive. Each user's records are kept in
// a sorted set scored by FinishedAt in milliseconds.
type Archive struct {
	client *backend.Client
	prefix string
}

var _ ports.ExecutionArchive = (*Archive)(nil)

// NewArchive creates an archive under prefix.
func NewArchive(client *backend.Client, prefix string) *Archive {
	return &Archive{client: client, prefix: prefix}
}

func (a *Archive) recordsKey(userID string) string {
	return a.prefix + "executions:" + userID
}

func (a *Archive) lastKey(userID string) string {
	return a.prefix + "last-completed:" + userID
}

func (a *Archive) AppendExecution(ctx context.Context, record *domain.ExecutionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "failed to marshal execution record")
	}
	err = a.client.ZAdd(ctx, a.recordsKey(record.UserID), backend.Z{
		Score:  float64(record.FinishedAt.UnixMilli()),
		Member: data,
	}).Err()
	if err != nil {
		return errors.Wrapf(err, "failed to append execution %s", record.ID)
	}
	return nil
}

func (a *Archive) ListExecutions(ctx context.Context, userID string) ([]domain.ExecutionRecord, error) {
	members, err := a.client.ZRevRange(ctx, a.recordsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list executions of %s", userID)
	}

	records := make([]domain.ExecutionRecord, 0, len(members))
	for _, m := range members {
		var r domain.ExecutionRecord
		if err := json.Unmarshal([]byte(m), &r); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal execution record")
		}
		records = append(records, r)
	}
	return records, nil
}

func (a *Archive) SetLastCompleted(ctx context.Context, userID, templateID string) error {
	if err := a.client.Set(ctx, a.lastKey(userID), templateID, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to set last completed template of %s", userID)
	}
	return nil
}

func (a *Archive) LastCompleted(ctx context.Context, userID string) (string, error) {
	id, err := a.client.Get(ctx, a.lastKey(userID)).Result()
	if errors.Is(err, backend.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to get last completed template of %s", userID)
	}
	return id, nil
}
