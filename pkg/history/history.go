// Package history answers "what did I do last time" from the execution archive.
package history

import (
	"context"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/cockroachdb/errors"
)

// Lookup implements ports.HistoryLookup on top of an ExecutionArchive.
type Lookup struct {
	archive ports.ExecutionArchive
}

var _ ports.HistoryLookup = (*Lookup)(nil)

// NewLookup creates a lookup reading from archive.
func NewLookup(archive ports.ExecutionArchive) *Lookup {
	return &Lookup{archive: archive}
}

// LastPerformance scans the user's records newest first and returns the
// first execution of exerciseID with at least one completed set.
func (l *Lookup) LastPerformance(ctx context.Context, userID, exerciseID string) (*domain.ExecutedExercise, error) {
	records, err := l.archive.ListExecutions(ctx, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list executions of user %s", userID)
	}
	return Latest(records, exerciseID), nil
}

// Latest finds the newest usable performance of exerciseID in records,
// which must be ordered newest first. The result is a copy.
func Latest(records []domain.ExecutionRecord, exerciseID string) *domain.ExecutedExercise {
	for i := range records {
		for j := range records[i].ExecutedExercises {
			ex := &records[i].ExecutedExercises[j]
			if ex.ExerciseID == exerciseID && ex.CompletedSets() > 0 {
				return ex.Clone()
			}
		}
	}
	return nil
}
