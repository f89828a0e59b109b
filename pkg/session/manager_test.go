package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/aretw0/ironlog/pkg/session"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data    map[string]*domain.ActiveSession
	mu      sync.Mutex
	saves   int
	loadErr error
	saveErr error
}

func (s *SlowStore) Save(ctx context.Context, userID string, session *domain.ActiveSession) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}
	if s.data == nil {
		s.data = make(map[string]*domain.ActiveSession)
	}
	s.data[userID] = session.Clone()
	s.saves++
	return nil
}

func (s *SlowStore) Load(ctx context.Context, userID string) (*domain.ActiveSession, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if session, ok := s.data[userID]; ok {
		return session.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func newSession(userID, templateID string) *domain.ActiveSession {
	return &domain.ActiveSession{
		UserID:        userID,
		TemplateID:    templateID,
		StartedAt:     time.Now(),
		ExecutionData: domain.ExecutionData{},
		FocusedSlot:   domain.SlotRef(0),
	}
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var inside int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := manager.WithLock(ctx, id, func(ctx context.Context) error {
				if n := atomic.AddInt32(&inside, 1); n != 1 {
					t.Errorf("%d goroutines inside the critical section", n)
				}
				defer atomic.AddInt32(&inside, -1)
				return manager.Store().Save(ctx, id, newSession(id, "updated"))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, store.saves)
	loaded, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "updated", loaded.TemplateID)
}

func TestManager_SaveListDelete(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "u1", newSession("u1", "push")))
	require.NoError(t, manager.Save(ctx, "u2", newSession("u2", "pull")))

	users, err := manager.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, users)

	require.NoError(t, manager.Delete(ctx, "u1"))
	_, err = manager.Load(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

// countingLocker records lock and unlock calls.
type countingLocker struct {
	locks, unlocks int32
	err            error
	ttl            time.Duration
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	atomic.AddInt32(&l.locks, 1)
	l.ttl = ttl
	return func(ctx context.Context) error {
		atomic.AddInt32(&l.unlocks, 1)
		return nil
	}, nil
}

func TestManager_DistributedLock(t *testing.T) {
	locker := &countingLocker{}
	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	ctx := context.Background()

	require.NoError(t, manager.Save(ctx, "u1", newSession("u1", "push")))
	assert.EqualValues(t, 1, locker.locks)
	assert.EqualValues(t, 1, locker.unlocks)
	assert.Equal(t, 5*time.Second, locker.ttl)

	locker.err = errors.New("redis down")
	err := manager.Save(ctx, "u1", newSession("u1", "push"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))
}
