package session_test

import (
	"context"
	"testing"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/session"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedFor(userID, templateID string, calls *int) session.SeedFunc {
	return func(ctx context.Context) (*domain.ActiveSession, error) {
		*calls++
		return newSession(userID, templateID), nil
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("Seeds And Persists When Empty", func(t *testing.T) {
		store := &SlowStore{}
		calls := 0

		s, resumed, err := session.Resolve(ctx, store, "u1", "push", seedFor("u1", "push", &calls))
		require.NoError(t, err)
		assert.False(t, resumed)
		assert.Equal(t, 1, calls)
		assert.Equal(t, "push", s.TemplateID)
		assert.Equal(t, 1, store.saves)
	})

	t.Run("Resumes Same Template Verbatim", func(t *testing.T) {
		store := &SlowStore{}
		stored := newSession("u1", "push")
		stored.FocusedSlot = domain.SlotRef(3)
		require.NoError(t, store.Save(ctx, "u1", stored))
		calls := 0

		s, resumed, err := session.Resolve(ctx, store, "u1", "push", seedFor("u1", "push", &calls))
		require.NoError(t, err)
		assert.True(t, resumed)
		assert.Equal(t, 0, calls, "a resumed session is never re-seeded")
		assert.Equal(t, 3, *s.FocusedSlot)
	})

	t.Run("Replaces Other Template", func(t *testing.T) {
		store := &SlowStore{}
		require.NoError(t, store.Save(ctx, "u1", newSession("u1", "push")))
		calls := 0

		s, resumed, err := session.Resolve(ctx, store, "u1", "legs", seedFor("u1", "legs", &calls))
		require.NoError(t, err)
		assert.False(t, resumed)
		assert.Equal(t, "legs", s.TemplateID)

		loaded, err := store.Load(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, "legs", loaded.TemplateID)
	})

	t.Run("Load Failure Aborts", func(t *testing.T) {
		store := &SlowStore{loadErr: errors.New("disk on fire")}
		calls := 0

		_, _, err := session.Resolve(ctx, store, "u1", "push", seedFor("u1", "push", &calls))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))
		assert.Equal(t, 0, calls)
	})

	t.Run("Save Failure Keeps Session", func(t *testing.T) {
		store := &SlowStore{saveErr: errors.New("read-only")}
		calls := 0

		s, resumed, err := session.Resolve(ctx, store, "u1", "push", seedFor("u1", "push", &calls))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))
		assert.False(t, resumed)
		require.NotNil(t, s)
	})

	t.Run("Seed Failure", func(t *testing.T) {
		store := &SlowStore{}
		_, _, err := session.Resolve(ctx, store, "u1", "push", func(ctx context.Context) (*domain.ActiveSession, error) {
			return nil, domain.ErrTemplateNotFound
		})
		assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
	})
}
