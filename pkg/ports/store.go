package ports

import (
	"context"

	"github.com/aretw0/ironlog/pkg/domain"
)

// SessionStore defines the interface for persisting active session snapshots.
// It holds at most one snapshot per user, which is what lets a workout survive a restart.
type SessionStore interface {
	// Save persists the snapshot for a given user, replacing any previous one.
	Save(ctx context.Context, userID string, session *domain.ActiveSession) error

	// Load retrieves the snapshot for a given user.
	// Returns domain.ErrSessionNotFound if the user has no workout in progress.
	Load(ctx context.Context, userID string) (*domain.ActiveSession, error)

	// Delete removes the snapshot for a given user. Deleting a missing snapshot is not an error.
	Delete(ctx context.Context, userID string) error

	// List returns the ids of users with a stored snapshot.
	List(ctx context.Context) ([]string, error)
}
