package ports

import (
	"context"

	"github.com/aretw0/ironlog/pkg/domain"
)

// ExecutionArchive is the append-only store of finished workouts.
// It also keeps the user's "last completed template" pointer.
type ExecutionArchive interface {
	// AppendExecution writes a new record. Records are never updated.
	AppendExecution(ctx context.Context, record *domain.ExecutionRecord) error

	// ListExecutions returns the user's records ordered by FinishedAt, newest first.
	ListExecutions(ctx context.Context, userID string) ([]domain.ExecutionRecord, error)

	// SetLastCompleted moves the user's pointer to templateID.
	SetLastCompleted(ctx context.Context, userID, templateID string) error

	// LastCompleted returns the pointer, or "" when unset.
	LastCompleted(ctx context.Context, userID string) (string, error)
}

// HistoryLookup finds previous performances used to seed new sessions.
type HistoryLookup interface {
	// LastPerformance returns the most recent execution of the exercise that had
	// at least one completed set, or nil when there is none.
	LastPerformance(ctx context.Context, userID, exerciseID string) (*domain.ExecutedExercise, error)
}
