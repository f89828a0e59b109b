package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
)

// Archive implements ports.ExecutionArchive in memory.
type Archive struct {
	mu      sync.RWMutex
	records map[string][]domain.ExecutionRecord
	last    map[string]string
}

var _ ports.ExecutionArchive = (*Archive)(nil)

// NewArchive creates an empty archive.
func NewArchive() *Archive {
	return &Archive{
		records: make(map[string][]domain.ExecutionRecord),
		last:    make(map[string]string),
	}
}

func copyRecord(r domain.ExecutionRecord) domain.ExecutionRecord {
	exercises := make([]domain.ExecutedExercise, len(r.ExecutedExercises))
	for i := range r.ExecutedExercises {
		exercises[i] = *r.ExecutedExercises[i].Clone()
	}
	r.ExecutedExercises = exercises
	return r
}

func (a *Archive) AppendExecution(ctx context.Context, record *domain.ExecutionRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records[record.UserID] = append(a.records[record.UserID], copyRecord(*record))
	return nil
}

func (a *Archive) ListExecutions(ctx context.Context, userID string) ([]domain.ExecutionRecord, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	list := make([]domain.ExecutionRecord, 0, len(a.records[userID]))
	for _, r := range a.records[userID] {
		list = append(list, copyRecord(r))
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].FinishedAt.After(list[j].FinishedAt)
	})
	return list, nil
}

func (a *Archive) SetLastCompleted(ctx context.Context, userID, templateID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last[userID] = templateID
	return nil
}

func (a *Archive) LastCompleted(ctx context.Context, userID string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last[userID], nil
}
