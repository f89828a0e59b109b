package ironlog_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/ironlog"
	"github.com/aretw0/ironlog/pkg/adapters/memory"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/aretw0/ironlog/pkg/timer"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = "alice"

var fixedNow = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

// flakyStore fails saves on demand.
type flakyStore struct {
	*memory.Store
	failSave atomic.Bool
	saves    atomic.Int32
}

func (s *flakyStore) Save(ctx context.Context, userID string, session *domain.ActiveSession) error {
	if s.failSave.Load() {
		return errors.New("connection reset")
	}
	s.saves.Add(1)
	return s.Store.Save(ctx, userID, session)
}

// flakyArchive fails appends on demand.
type flakyArchive struct {
	*memory.Archive
	failAppend atomic.Bool
}

func (a *flakyArchive) AppendExecution(ctx context.Context, record *domain.ExecutionRecord) error {
	if a.failAppend.Load() {
		return errors.New("quota exceeded")
	}
	return a.Archive.AppendExecution(ctx, record)
}

type fixture struct {
	store     *flakyStore
	archive   *flakyArchive
	catalog   *memory.Catalog
	templates *memory.Templates
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bench := domain.NewExercise(user, "bench", "Bench Press", "chest")
	bench.TimerSeconds = 90
	fly := domain.NewExercise(user, "fly", "Cable Fly", "chest")
	fly.TimerEnabled = false
	dip := domain.NewExercise(user, "dip", "Dip", "triceps")
	dip.TimerSeconds = 45
	pushdown := domain.NewExercise(user, "pushdown", "Pushdown", "triceps")
	pushdown.TimerEnabled = false
	squat := domain.NewExercise(user, "squat", "Squat", "legs")

	catalog, err := memory.NewCatalogFrom(bench, fly, dip, pushdown, squat)
	require.NoError(t, err)

	templates, err := memory.NewTemplatesFrom(
		&domain.Template{ID: "push", UserID: user, Name: "Push", SequenceOrder: 1, Slots: []domain.Slot{
			domain.Single("bench"), domain.Combined("fly", "dip"), domain.Single("pushdown"),
		}},
		&domain.Template{ID: "legs", UserID: user, Name: "Legs", SequenceOrder: 2, Slots: []domain.Slot{
			domain.Single("squat"),
		}},
		&domain.Template{ID: "stretch", UserID: user, Name: "Stretch", SequenceOrder: 3, Sporadic: true},
	)
	require.NoError(t, err)

	return &fixture{
		store:     &flakyStore{Store: memory.NewStore()},
		archive:   &flakyArchive{Archive: memory.NewArchive()},
		catalog:   catalog,
		templates: templates,
	}
}

func (f *fixture) engine(t *testing.T, opts ...ironlog.Option) *ironlog.Engine {
	t.Helper()
	var seq atomic.Int32
	base := []ironlog.Option{
		ironlog.WithSessionStore(f.store),
		ironlog.WithArchive(f.archive),
		ironlog.WithCatalog(f.catalog),
		ironlog.WithTemplates(f.templates),
		ironlog.WithClock(func() time.Time { return fixedNow }),
		ironlog.WithIDGenerator(func() string { return fmt.Sprintf("rec-%d", seq.Add(1)) }),
		ironlog.WithFocusDelay(20 * time.Millisecond),
		ironlog.WithTimerTick(5 * time.Millisecond),
	}
	eng, err := ironlog.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestEngine_StartSession_SeedsFromHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.archive.AppendExecution(ctx, &domain.ExecutionRecord{
		ID: "prev", UserID: user, TemplateID: "push", FinishedAt: fixedNow.Add(-48 * time.Hour),
		ExecutedExercises: []domain.ExecutedExercise{
			{ExerciseID: "fly", Sets: []domain.ExecutedSet{
				{Number: 1, Weight: 12, Reps: 15, Completed: true},
				{Number: 2, Weight: 14, Reps: 12, Completed: true},
				{Number: 3, Weight: 16, Reps: 10, Completed: true},
			}},
			{ExerciseID: "dip", Sets: []domain.ExecutedSet{{Number: 1, Weight: 10, Reps: 8, Completed: true}}},
		},
	}))

	eng := f.engine(t)
	s, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)

	assert.Equal(t, fixedNow, s.StartedAt)
	assert.Equal(t, 0, *s.FocusedSlot)
	assert.Len(t, s.Exercise(1, "fly").Sets, 3)
	dip := s.Exercise(1, "dip")
	require.Len(t, dip.Sets, 3)
	assert.Equal(t, domain.ExecutedSet{Number: 3, Weight: 10, Reps: 8}, dip.Sets[2])
	assert.Equal(t, []domain.ExecutedSet{{Number: 1, Weight: 0, Reps: 10}}, s.Exercise(0, "bench").Sets)

	stored, err := f.store.Load(ctx, user)
	require.NoError(t, err, "a new session is persisted immediately")
	assert.Equal(t, "push", stored.TemplateID)
}

func TestEngine_StartSession_TemplateNotFound(t *testing.T) {
	eng := newFixture(t).engine(t)

	_, err := eng.StartSession(context.Background(), user, "nope")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestEngine_StartSession_ResumesStoredSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.engine(t)
	_, err := first.StartSession(ctx, user, "push")
	require.NoError(t, err)
	_, err = first.SetFocus(ctx, user, domain.SlotRef(2))
	require.NoError(t, err)
	_, err = first.SetSetValue(ctx, user, 0, "bench", 0, domain.FieldWeight, 80)
	require.NoError(t, err)

	// A fresh engine stands in for an app restart.
	second := f.engine(t)
	s, err := second.StartSession(ctx, user, "push")
	require.NoError(t, err)
	assert.Equal(t, 2, *s.FocusedSlot)
	assert.Equal(t, 80.0, s.Exercise(0, "bench").Sets[0].Weight)
}

func TestEngine_StartSession_OtherTemplateDiscardsStored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eng := f.engine(t)

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	_, err = eng.SetSetValue(ctx, user, 0, "bench", 0, domain.FieldWeight, 80)
	require.NoError(t, err)

	s, err := eng.StartSession(ctx, user, "legs")
	require.NoError(t, err)
	assert.Equal(t, "legs", s.TemplateID)
	assert.Len(t, s.ExecutionData, 1)

	stored, err := f.store.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "legs", stored.TemplateID)

	// Going back to push seeds from scratch.
	s, err = eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.Exercise(0, "bench").Sets[0].Weight)
}

func TestEngine_Toggle_StartsTimerAndAdvancesFocus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var mu sync.Mutex
	var focus []domain.FocusEvent
	var started []domain.TimerEvent
	eng := f.engine(t, ironlog.WithLifecycleHooks(domain.LifecycleHooks{
		OnFocusChange: func(_ context.Context, e *domain.FocusEvent) {
			mu.Lock()
			defer mu.Unlock()
			focus = append(focus, *e)
		},
		OnTimerStart: func(_ context.Context, e *domain.TimerEvent) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, *e)
		},
	}))

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	_, err = eng.SetFocus(ctx, user, domain.SlotRef(1))
	require.NoError(t, err)

	s, err := eng.ToggleSetCompletion(ctx, user, 1, 0)
	require.NoError(t, err)
	assert.True(t, s.Exercise(1, "fly").Completed)
	assert.True(t, s.Exercise(1, "dip").Completed)
	assert.Equal(t, 1, *s.FocusedSlot, "focus moves only after the delay")

	st := eng.Timer(user)
	assert.Equal(t, 45, st.Duration, "the first exercise with a timer wins")

	assert.Eventually(t, func() bool {
		s, err := eng.ActiveSession(ctx, user)
		return err == nil && s.FocusedSlot != nil && *s.FocusedSlot == 2
	}, time.Second, 5*time.Millisecond)

	stored, err := f.store.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, *stored.FocusedSlot, "the advance is autosaved")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, focus, 2)
	assert.False(t, focus[0].Auto)
	assert.True(t, focus[1].Auto)
	assert.Equal(t, 2, *focus[1].Slot)
	require.Len(t, started, 1)
	assert.Equal(t, 45, started[0].Duration)
}

func TestEngine_FocusAdvanceYieldsToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eng := f.engine(t, ironlog.WithFocusDelay(40*time.Millisecond))

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)

	_, err = eng.ToggleSetCompletion(ctx, user, 0, 0)
	require.NoError(t, err)
	_, err = eng.SetFocus(ctx, user, domain.SlotRef(2))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	s, err := eng.ActiveSession(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 2, *s.FocusedSlot)
}

func TestEngine_MutationWithoutSession(t *testing.T) {
	eng := newFixture(t).engine(t)
	ctx := context.Background()

	_, err := eng.AddSet(ctx, user, 0)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	_, err = eng.EndSession(ctx, user, true)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	_, err = eng.ActiveSession(ctx, user)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestEngine_MutationHydratesFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine(t).StartSession(ctx, user, "push")
	require.NoError(t, err)

	other := f.engine(t)
	s, err := other.AddSet(ctx, user, 1)
	require.NoError(t, err)
	assert.Len(t, s.Exercise(1, "fly").Sets, 2)
	assert.Len(t, s.Exercise(1, "dip").Sets, 2)

	stored, err := f.store.Load(ctx, user)
	require.NoError(t, err)
	assert.Len(t, stored.Exercise(1, "dip").Sets, 2)
}

func TestEngine_AutosaveFailureKeepsChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var persistErrors atomic.Int32
	eng := f.engine(t, ironlog.WithLifecycleHooks(domain.LifecycleHooks{
		OnPersistError: func(_ context.Context, e *domain.PersistErrorEvent) {
			assert.True(t, errors.Is(e.Err, domain.ErrStorageUnavailable))
			persistErrors.Add(1)
		},
	}))

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)

	f.store.failSave.Store(true)
	s, err := eng.SetSetValue(ctx, user, 0, "bench", 0, domain.FieldReps, 6)
	require.NoError(t, err, "storage failures never block the workout")
	assert.Equal(t, 6.0, s.Exercise(0, "bench").Sets[0].Reps)
	assert.EqualValues(t, 1, persistErrors.Load())

	// The next successful autosave sends the full state.
	f.store.failSave.Store(false)
	_, err = eng.AddSet(ctx, user, 0)
	require.NoError(t, err)
	stored, err := f.store.Load(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 6.0, stored.Exercise(0, "bench").Sets[0].Reps)
	assert.Len(t, stored.Exercise(0, "bench").Sets, 2)
}

func TestEngine_NoOpDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eng := f.engine(t)

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	before := f.store.saves.Load()

	_, err = eng.RemoveSet(ctx, user, 0)
	require.NoError(t, err)
	_, err = eng.ToggleSetCompletion(ctx, user, 0, 9)
	require.NoError(t, err)

	assert.Equal(t, before, f.store.saves.Load())
}

func TestEngine_EndSession_RequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eng := f.engine(t)

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	_, err = eng.ToggleSetCompletion(ctx, user, 0, 0)
	require.NoError(t, err)

	_, err = eng.EndSession(ctx, user, false)
	assert.ErrorIs(t, err, domain.ErrConfirmationRequired)
	records, _ := f.archive.ListExecutions(ctx, user)
	assert.Empty(t, records)
	_, err = f.store.Load(ctx, user)
	assert.NoError(t, err, "an unconfirmed end leaves the session in place")

	record, err := eng.EndSession(ctx, user, true)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionIncomplete, record.Status)
	assert.Equal(t, "rec-1", record.ID)
	assert.Equal(t, fixedNow, record.FinishedAt)
	assert.Len(t, record.ExecutedExercises, 4)

	records, _ = f.archive.ListExecutions(ctx, user)
	assert.Len(t, records, 1)
	ptr, _ := f.archive.LastCompleted(ctx, user)
	assert.Equal(t, "push", ptr)

	_, err = f.store.Load(ctx, user)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = eng.ActiveSession(ctx, user)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestEngine_EndSession_Completed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ended *domain.ExecutionRecord
	eng := f.engine(t, ironlog.WithLifecycleHooks(domain.LifecycleHooks{
		OnSessionEnd: func(_ context.Context, e *domain.EndEvent) { ended = e.Record },
	}))

	_, err := eng.StartSession(ctx, user, "legs")
	require.NoError(t, err)
	_, err = eng.ToggleSetCompletion(ctx, user, 0, 0)
	require.NoError(t, err)

	record, err := eng.EndSession(ctx, user, false)
	require.NoError(t, err, "a completed workout needs no confirmation")
	assert.Equal(t, domain.ExecutionCompleted, record.Status)
	assert.Equal(t, record, ended)
	assert.Equal(t, timer.State{}, eng.Timer(user), "ending stops the rest timer")

	next, err := eng.NextTemplate(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "push", next.ID, "legs was last, stretch is sporadic, so the rotation wraps")

	// The next session seeds from this one.
	s, err := eng.StartSession(ctx, user, "legs")
	require.NoError(t, err)
	assert.False(t, s.Exercise(0, "squat").Completed)
	assert.False(t, s.Exercise(0, "squat").Sets[0].Completed)
}

func TestEngine_EndSession_FailureIsRetryable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eng := f.engine(t)

	_, err := eng.StartSession(ctx, user, "legs")
	require.NoError(t, err)

	f.archive.failAppend.Store(true)
	_, err = eng.EndSession(ctx, user, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStorageUnavailable))

	// Still active: mutations autosave again.
	_, err = eng.AddSet(ctx, user, 0)
	require.NoError(t, err)
	stored, err := f.store.Load(ctx, user)
	require.NoError(t, err)
	assert.Len(t, stored.Exercise(0, "squat").Sets, 2)

	f.archive.failAppend.Store(false)
	record, err := eng.EndSession(ctx, user, true)
	require.NoError(t, err)
	assert.Len(t, record.ExecutedExercises[0].Sets, 2)
}

func TestEngine_NoAutosaveAfterFinalize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eng := f.engine(t, ironlog.WithFocusDelay(30*time.Millisecond))

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)

	// Schedules a focus advance, then ends before it fires.
	_, err = eng.ToggleSetCompletion(ctx, user, 0, 0)
	require.NoError(t, err)
	_, err = eng.EndSession(ctx, user, true)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)
	_, err = f.store.Load(ctx, user)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "no snapshot may reappear after the end")
}

func TestEngine_RestTimerAlertsOnce(t *testing.T) {
	var alerts atomic.Int32
	var expired atomic.Int32
	eng := newFixture(t).engine(t,
		ironlog.WithAlert(func(userID string) {
			assert.Equal(t, user, userID)
			alerts.Add(1)
		}),
		ironlog.WithLifecycleHooks(domain.LifecycleHooks{
			OnTimerExpire: func(context.Context, *domain.TimerEvent) { expired.Add(1) },
		}),
	)

	eng.StartTimer(user, 2)
	assert.True(t, eng.Timer(user).Active)

	assert.Eventually(t, func() bool { return alerts.Load() == 1 }, time.Second, 2*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.EqualValues(t, 1, alerts.Load())
	assert.EqualValues(t, 1, expired.Load())
	assert.False(t, eng.Timer(user).Active)

	eng.StartTimer(user, 50)
	eng.StopTimer(user)
	assert.Equal(t, timer.State{}, eng.Timer(user))
}

func TestEngine_AbandonSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var abandoned atomic.Bool
	eng := f.engine(t, ironlog.WithLifecycleHooks(domain.LifecycleHooks{
		OnSessionAbandon: func(_ context.Context, e *domain.SessionEvent) {
			abandoned.Store(e.TemplateID == "push")
		},
	}))

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	require.NoError(t, eng.AbandonSession(ctx, user))

	assert.True(t, abandoned.Load())
	_, err = f.store.Load(ctx, user)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	records, _ := eng.History(ctx, user)
	assert.Empty(t, records)
	assert.ErrorIs(t, eng.AbandonSession(ctx, user), domain.ErrNoActiveSession)
}

func TestEngine_SessionChangeStreamsDiffs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var mu sync.Mutex
	var diffs []*domain.SessionDiff
	eng := f.engine(t, ironlog.WithLifecycleHooks(domain.LifecycleHooks{
		OnSessionChange: func(_ context.Context, e *domain.ChangeEvent) {
			mu.Lock()
			defer mu.Unlock()
			diffs = append(diffs, e.Diff)
		},
	}))

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	weight := 22.5
	_, err = eng.ApplyBulkToExercise(ctx, user, 1, "dip", &weight, nil)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, diffs, 2)
	assert.Len(t, diffs[0].Exercises, 4, "the first diff is the whole session")
	require.Len(t, diffs[1].Exercises, 1)
	assert.Equal(t, "dip", diffs[1].Exercises[0].ExerciseID)
	assert.Equal(t, 22.5, diffs[1].Exercises[0].Sets[0].Weight)
}

func TestEngine_SetSetValue_InvalidField(t *testing.T) {
	eng := newFixture(t).engine(t)
	ctx := context.Background()

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	_, err = eng.SetSetValue(ctx, user, 0, "bench", 0, domain.Field("rpe"), 8)
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}

func TestEngine_ReportAndCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eng := f.engine(t)

	err := eng.SaveExercise(ctx, &domain.Exercise{ID: "row", UserID: user, Name: "Row"})
	require.NoError(t, err)
	row, err := f.catalog.GetExercise(ctx, user, "row")
	require.NoError(t, err)
	assert.Equal(t, "kg", row.UnitPrimary)

	err = eng.SaveTemplate(ctx, &domain.Template{ID: "bad", UserID: user, Slots: []domain.Slot{{}}})
	assert.ErrorIs(t, err, domain.ErrInvalidTemplate)

	_, err = eng.StartSession(ctx, user, "legs")
	require.NoError(t, err)
	_, err = eng.SetSetValue(ctx, user, 0, "squat", 0, domain.FieldWeight, 100)
	require.NoError(t, err)
	_, err = eng.ToggleSetCompletion(ctx, user, 0, 0)
	require.NoError(t, err)
	_, err = eng.EndSession(ctx, user, false)
	require.NoError(t, err)

	summary, err := eng.Report(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalExecutions)
	assert.Equal(t, 100, summary.CompletionRate)
	require.Len(t, summary.Volume, 1)
	assert.Equal(t, 1000.0, summary.Volume[0].Volume)
	assert.Equal(t, 1, summary.Frequency[len(summary.Frequency)-1].Count)
}

// mutexLocker serializes every key on one mutex, like a lock shared by replicas.
type mutexLocker struct {
	mu sync.Mutex
}

func (l *mutexLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	return func(context.Context) error {
		l.mu.Unlock()
		return nil
	}, nil
}

func TestEngine_ReplicasSharingStoreSeeEachOthersChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	locker := &mutexLocker{}
	a := f.engine(t, ironlog.WithLocker(locker))
	b := f.engine(t, ironlog.WithLocker(locker))

	_, err := a.StartSession(ctx, user, "push")
	require.NoError(t, err)

	s, err := b.AddSet(ctx, user, 0)
	require.NoError(t, err)
	require.Len(t, s.Exercise(0, "bench").Sets, 2)

	s, err = a.ToggleSetCompletion(ctx, user, 2, 0)
	require.NoError(t, err)
	assert.Len(t, s.Exercise(0, "bench").Sets, 2, "the set added by the other replica survives")
	assert.True(t, s.Exercise(2, "pushdown").Sets[0].Completed)

	stored, err := f.store.Load(ctx, user)
	require.NoError(t, err)
	assert.Len(t, stored.Exercise(0, "bench").Sets, 2)
	assert.True(t, stored.Exercise(2, "pushdown").Sets[0].Completed)

	s, err = b.ActiveSession(ctx, user)
	require.NoError(t, err)
	assert.True(t, s.Exercise(2, "pushdown").Sets[0].Completed)
}

func TestEngine_SnapshotRemovedElsewhereEndsWorkout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eng := f.engine(t)

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	eng.StartTimer(user, 60)

	require.NoError(t, f.store.Delete(ctx, user))

	_, err = eng.AddSet(ctx, user, 0)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = f.store.Load(ctx, user)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "the removed snapshot must not come back")
	_, err = eng.ActiveSession(ctx, user)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.False(t, eng.Timer(user).Active)
}

func TestEngine_SessionReplacedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.engine(t)
	b := f.engine(t)

	_, err := a.StartSession(ctx, user, "push")
	require.NoError(t, err)
	_, err = b.StartSession(ctx, user, "legs")
	require.NoError(t, err)

	s, err := a.AddSet(ctx, user, 0)
	require.NoError(t, err)
	assert.Equal(t, "legs", s.TemplateID)
	assert.Len(t, s.Exercise(0, "squat").Sets, 2)
	assert.Nil(t, s.Exercise(0, "bench"))
}

func TestEngine_CloseCancelsTimerAndFocusAdvance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ticks, expiries, focusChanges atomic.Int32
	eng := f.engine(t, ironlog.WithLifecycleHooks(domain.LifecycleHooks{
		OnTimerTick:   func(context.Context, *domain.TimerEvent) { ticks.Add(1) },
		OnTimerExpire: func(context.Context, *domain.TimerEvent) { expiries.Add(1) },
		OnFocusChange: func(context.Context, *domain.FocusEvent) { focusChanges.Add(1) },
	}))

	_, err := eng.StartSession(ctx, user, "push")
	require.NoError(t, err)
	// Completes slot 0: starts the bench rest timer and schedules the focus advance.
	_, err = eng.ToggleSetCompletion(ctx, user, 0, 0)
	require.NoError(t, err)
	assert.True(t, eng.Timer(user).Active)

	require.NoError(t, eng.Close())
	time.Sleep(10 * time.Millisecond)
	ticksAtClose := ticks.Load()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, ticksAtClose, ticks.Load())
	assert.Zero(t, expiries.Load())
	assert.Zero(t, focusChanges.Load())

	stored, err := f.store.Load(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, stored.FocusedSlot)
	assert.Equal(t, 0, *stored.FocusedSlot, "focus stays on the completed slot")
	assert.True(t, stored.Exercise(0, "bench").Completed, "the snapshot is kept for resume")
}
