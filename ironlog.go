package ironlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ironlog/internal/logging"
	"github.com/aretw0/ironlog/internal/runtime"
	"github.com/aretw0/ironlog/pkg/adapters/memory"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/history"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/aretw0/ironlog/pkg/report"
	"github.com/aretw0/ironlog/pkg/session"
	"github.com/aretw0/ironlog/pkg/timer"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for IronLog.
// It owns the live workout of every user and executes the side effects
// (autosave, rest timer, delayed focus) requested by the session state machine.
type Engine struct {
	store     ports.SessionStore
	locker    ports.DistributedLocker
	catalog   ports.ExerciseCatalog
	templates ports.TemplateRepository
	archive   ports.ExecutionArchive
	history   ports.HistoryLookup
	sessions  *session.Manager

	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	clock      func() time.Time
	newID      func() string
	focusDelay time.Duration
	timerTick  time.Duration
	alert      func(userID string)

	mu       sync.Mutex
	workouts map[string]*workout
	timers   map[string]*timer.RestTimer
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks. Calling it more than
// once merges the hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithSessionStore sets where active session snapshots are persisted.
func WithSessionStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed locking of sessions across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithCatalog sets the exercise catalog.
func WithCatalog(catalog ports.ExerciseCatalog) Option {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithTemplates sets the template repository.
func WithTemplates(templates ports.TemplateRepository) Option {
	return func(e *Engine) {
		e.templates = templates
	}
}

// WithArchive sets the execution archive.
func WithArchive(archive ports.ExecutionArchive) Option {
	return func(e *Engine) {
		e.archive = archive
	}
}

// WithHistory overrides the history lookup used to seed sessions.
// By default it reads from the archive.
func WithHistory(h ports.HistoryLookup) Option {
	return func(e *Engine) {
		e.history = h
	}
}

// WithClock injects the time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithIDGenerator injects the execution record id generator.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithFocusDelay sets the pause before focus moves past a completed slot.
func WithFocusDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.focusDelay = d
	}
}

// WithTimerTick sets the rest timer resolution.
func WithTimerTick(d time.Duration) Option {
	return func(e *Engine) {
		e.timerTick = d
	}
}

// WithAlert sets the callback run once when a rest timer expires.
func WithAlert(fn func(userID string)) Option {
	return func(e *Engine) {
		e.alert = fn
	}
}

// New initializes a new Engine. Collaborators that are not provided default
// to the in-memory adapters.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		clock:      time.Now,
		newID:      uuid.NewString,
		focusDelay: domain.FocusAdvanceDelay,
		timerTick:  timer.DefaultTick,
		workouts:   make(map[string]*workout),
		timers:     make(map[string]*timer.RestTimer),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}
	if e.catalog == nil {
		e.catalog = memory.NewCatalog()
	}
	if e.templates == nil {
		e.templates = memory.NewTemplates()
	}
	if e.archive == nil {
		e.archive = memory.NewArchive()
	}
	if e.history == nil {
		e.history = history.NewLookup(e.archive)
	}
	if e.focusDelay < 0 {
		return nil, errors.Newf("focus delay must not be negative, got %s", e.focusDelay)
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)

	return e, nil
}

// Sessions returns the manager guarding the stored snapshots.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Catalog returns the exercise catalog.
func (e *Engine) Catalog() ports.ExerciseCatalog {
	return e.catalog
}

// Templates returns the template repository.
func (e *Engine) Templates() ports.TemplateRepository {
	return e.templates
}

// StartSession starts or resumes the user's workout of templateID.
//
// A session for the same template, in memory or stored, is resumed verbatim.
// Anything else is replaced by a session seeded from the template and the
// user's history. A failure to persist the fresh session is reported through
// OnPersistError and does not fail the call.
func (e *Engine) StartSession(ctx context.Context, userID, templateID string) (*domain.ActiveSession, error) {
	var out *domain.ActiveSession
	err := e.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		tmpl, err := e.templates.GetTemplate(ctx, userID, templateID)
		if err != nil {
			if errors.Is(err, domain.ErrTemplateNotFound) {
				return err
			}
			return errors.Wrap(domain.Unavailable(err), "failed to load template")
		}

		if w := e.workout(userID); w != nil && w.status == domain.StatusActive {
			// refresh drops w itself when the store no longer has it.
			if cur, err := e.refresh(ctx, w); err == nil {
				if cur.session.TemplateID == templateID {
					out = cur.session.Clone()
					e.fireSession(ctx, e.hooks.OnSessionResume, domain.EventSessionResume, cur.session)
					return nil
				}
				e.discard(cur)
			}
		}

		s, resumed, err := session.Resolve(ctx, e.store, userID, templateID, func(ctx context.Context) (*domain.ActiveSession, error) {
			return e.seed(ctx, userID, tmpl)
		})
		if s == nil {
			return err
		}

		w, loadErr := e.newWorkout(ctx, userID, s, tmpl)
		if loadErr != nil {
			return loadErr
		}
		if err != nil {
			e.reportPersistError(ctx, w, err)
		}

		e.mu.Lock()
		e.workouts[userID] = w
		e.mu.Unlock()

		out = s.Clone()
		if resumed {
			w.logger.Info("Session resumed")
			e.fireSession(ctx, e.hooks.OnSessionResume, domain.EventSessionResume, s)
		} else {
			w.logger.Info("Session started", "slots", len(tmpl.Slots))
			e.stopTimer(userID)
			e.fireSession(ctx, e.hooks.OnSessionStart, domain.EventSessionStart, s)
		}
		e.fireChange(ctx, nil, s)
		return nil
	})
	return out, err
}

func (e *Engine) seed(ctx context.Context, userID string, tmpl *domain.Template) (*domain.ActiveSession, error) {
	last := make(map[string]*domain.ExecutedExercise)
	for _, id := range tmpl.ExerciseIDs() {
		h, err := e.history.LastPerformance(ctx, userID, id)
		if err != nil {
			return nil, errors.Wrapf(domain.Unavailable(err), "failed to look up history of %s", id)
		}
		if h != nil {
			last[id] = h
		}
	}
	return runtime.Seed(userID, tmpl, last, e.clock()), nil
}

// ActiveSession returns the user's workout in progress, from memory or the
// store, without starting one. It returns domain.ErrNoActiveSession if none.
func (e *Engine) ActiveSession(ctx context.Context, userID string) (*domain.ActiveSession, error) {
	var out *domain.ActiveSession
	err := e.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		w, err := e.load(ctx, userID)
		if err != nil {
			return err
		}
		out = w.session.Clone()
		return nil
	})
	return out, err
}

// ToggleSetCompletion flips set on every exercise of slot.
func (e *Engine) ToggleSetCompletion(ctx context.Context, userID string, slot, set int) (*domain.ActiveSession, error) {
	return e.mutate(ctx, userID, func(ctx context.Context, w *workout) (runtime.Result, error) {
		res := w.machine.ToggleSetCompletion(w.session, slot, set)
		if res.Changed {
			ex := res.Session.ExecutionData[w.machine.SlotKeys(res.Session, slot)[0]]
			e.fireSet(ctx, userID, slot, set, ex.Sets[set].Completed, ex.Completed)
		}
		return res, nil
	})
}

// SetSetValue writes the weight or reps of one set of one exercise.
func (e *Engine) SetSetValue(ctx context.Context, userID string, slot int, exerciseID string, set int, field domain.Field, value float64) (*domain.ActiveSession, error) {
	return e.mutate(ctx, userID, func(ctx context.Context, w *workout) (runtime.Result, error) {
		return w.machine.SetSetValue(w.session, slot, exerciseID, set, field, value)
	})
}

// AddSet appends a set to every exercise of slot.
func (e *Engine) AddSet(ctx context.Context, userID string, slot int) (*domain.ActiveSession, error) {
	return e.mutate(ctx, userID, func(ctx context.Context, w *workout) (runtime.Result, error) {
		return w.machine.AddSet(w.session, slot), nil
	})
}

// RemoveSet drops the last set of every exercise of slot, keeping at least one.
func (e *Engine) RemoveSet(ctx context.Context, userID string, slot int) (*domain.ActiveSession, error) {
	return e.mutate(ctx, userID, func(ctx context.Context, w *workout) (runtime.Result, error) {
		return w.machine.RemoveSet(w.session, slot), nil
	})
}

// SetFocus expands or collapses slot. A nil slot clears focus.
func (e *Engine) SetFocus(ctx context.Context, userID string, slot *int) (*domain.ActiveSession, error) {
	return e.mutate(ctx, userID, func(ctx context.Context, w *workout) (runtime.Result, error) {
		res := w.machine.SetFocus(w.session, slot)
		if res.Changed {
			e.fireFocus(ctx, userID, res.Session.FocusedSlot, false)
		}
		return res, nil
	})
}

// ApplyBulkToExercise overwrites weight and/or reps on every set of one exercise.
func (e *Engine) ApplyBulkToExercise(ctx context.Context, userID string, slot int, exerciseID string, weight, reps *float64) (*domain.ActiveSession, error) {
	return e.mutate(ctx, userID, func(ctx context.Context, w *workout) (runtime.Result, error) {
		return w.machine.ApplyBulkToExercise(w.session, slot, exerciseID, weight, reps), nil
	})
}

// mutate applies fn to the user's workout, autosaves the result and runs its effects.
func (e *Engine) mutate(ctx context.Context, userID string, fn func(context.Context, *workout) (runtime.Result, error)) (*domain.ActiveSession, error) {
	var out *domain.ActiveSession
	err := e.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		w, err := e.load(ctx, userID)
		if err != nil {
			return err
		}

		res, err := fn(ctx, w)
		if err != nil {
			return err
		}

		if res.Changed {
			old := w.session
			w.session = res.Session
			e.persist(ctx, w)
			e.fireChange(ctx, old, w.session)
		}
		e.runEffects(ctx, w, res.Effects)

		out = w.session.Clone()
		return nil
	})
	return out, err
}

// EndSession finalizes the user's workout into an execution record.
//
// An incomplete workout needs confirmed, otherwise ErrConfirmationRequired is
// returned and nothing changes. Once finalization starts no autosave happens.
// If writing the record, the last-completed pointer or deleting the snapshot
// fails, the session goes back to active and can be ended again.
func (e *Engine) EndSession(ctx context.Context, userID string, confirmed bool) (*domain.ExecutionRecord, error) {
	var record *domain.ExecutionRecord
	err := e.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		w, err := e.load(ctx, userID)
		if err != nil {
			return err
		}

		if runtime.Outcome(w.session) == domain.ExecutionIncomplete && !confirmed {
			return errors.WithHint(domain.ErrConfirmationRequired, "end the session again with confirmation to save it as incomplete")
		}

		w.status = domain.StatusFinalizing
		w.cancelPending()
		e.stopTimer(userID)

		rec := runtime.Finalize(w.session, e.newID(), e.clock())
		if err := e.finalize(ctx, rec); err != nil {
			w.status = domain.StatusActive
			w.logger.Error("Failed to finalize session", "err", err)
			return err
		}

		w.status = domain.StatusClosed
		e.forget(userID, w)
		w.logger.Info("Session ended", "status", rec.Status, "record_id", rec.ID)

		if e.hooks.OnSessionEnd != nil {
			e.hooks.OnSessionEnd(ctx, &domain.EndEvent{
				EventBase: e.event(domain.EventSessionEnd, userID),
				Record:    rec,
			})
		}
		record = rec
		return nil
	})
	return record, err
}

func (e *Engine) finalize(ctx context.Context, rec *domain.ExecutionRecord) error {
	if err := e.archive.AppendExecution(ctx, rec); err != nil {
		return errors.Wrap(domain.Unavailable(err), "failed to append execution")
	}
	if err := e.archive.SetLastCompleted(ctx, rec.UserID, rec.TemplateID); err != nil {
		return errors.Wrap(domain.Unavailable(err), "failed to update last completed template")
	}
	if err := e.store.Delete(ctx, rec.UserID); err != nil {
		return errors.Wrap(domain.Unavailable(err), "failed to delete session snapshot")
	}
	return nil
}

// AbandonSession drops the user's workout without writing a record.
func (e *Engine) AbandonSession(ctx context.Context, userID string) error {
	return e.sessions.WithLock(ctx, userID, func(ctx context.Context) error {
		w, err := e.load(ctx, userID)
		if err != nil {
			return err
		}
		if err := e.store.Delete(ctx, userID); err != nil {
			return errors.Wrap(domain.Unavailable(err), "failed to delete session snapshot")
		}

		e.discard(w)
		e.stopTimer(userID)
		w.logger.Info("Session abandoned")
		e.fireSession(ctx, e.hooks.OnSessionAbandon, domain.EventSessionAbandon, w.session)
		return nil
	})
}

// NextTemplate suggests the template to train after the last completed one.
func (e *Engine) NextTemplate(ctx context.Context, userID string) (*domain.Template, error) {
	templates, err := e.templates.ListTemplates(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(domain.Unavailable(err), "failed to list templates")
	}
	last, err := e.archive.LastCompleted(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(domain.Unavailable(err), "failed to read last completed template")
	}

	next, ok := domain.NextTemplate(templates, last)
	if !ok {
		return nil, errors.WithHint(domain.ErrTemplateNotFound, "create a template first")
	}
	return next, nil
}

// History returns the user's execution records, newest first.
func (e *Engine) History(ctx context.Context, userID string) ([]domain.ExecutionRecord, error) {
	records, err := e.archive.ListExecutions(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(domain.Unavailable(err), "failed to list executions")
	}
	return records, nil
}

// Report summarizes the user's history.
func (e *Engine) Report(ctx context.Context, userID string) (report.Summary, error) {
	records, err := e.History(ctx, userID)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(records, e.clock()), nil
}

// SaveExercise fills defaults and stores an exercise.
func (e *Engine) SaveExercise(ctx context.Context, exercise *domain.Exercise) error {
	if exercise.ID == "" || exercise.UserID == "" {
		return errors.New("exercise id and user id are required")
	}
	exercise.Normalize()
	if err := e.catalog.SaveExercise(ctx, exercise); err != nil {
		return errors.Wrap(domain.Unavailable(err), "failed to save exercise")
	}
	return nil
}

// SaveTemplate validates and stores a template.
func (e *Engine) SaveTemplate(ctx context.Context, tmpl *domain.Template) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}
	if err := e.templates.SaveTemplate(ctx, tmpl); err != nil {
		return errors.Wrap(domain.Unavailable(err), "failed to save template")
	}
	return nil
}

// Close stops every rest timer and pending focus advance.
// Stored snapshots are left in place so sessions can be resumed later.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, w := range e.workouts {
		w.cancelPending()
	}
	for _, t := range e.timers {
		t.Stop()
	}
	e.workouts = make(map[string]*workout)
	return nil
}
