package ironlog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/ironlog/internal/runtime"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
)

// workout is the engine's in-memory copy of one user's session.
// Fields other than pending are only touched under the user's session lock.
type workout struct {
	userID  string
	session *domain.ActiveSession
	status  domain.SessionStatus
	machine *runtime.Machine
	logger  *slog.Logger

	// dirty is set while the last autosave failed: the store is behind.
	dirty bool

	mu      sync.Mutex
	pending map[int]*time.Timer
}

// schedule runs fn after d, replacing any advance already pending for slot.
func (w *workout) schedule(slot int, d time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		w.pending = make(map[int]*time.Timer)
	}
	if t, ok := w.pending[slot]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		w.mu.Lock()
		if w.pending[slot] == t {
			delete(w.pending, slot)
		}
		w.mu.Unlock()
		fn()
	})
	w.pending[slot] = t
}

func (w *workout) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for slot, t := range w.pending {
		t.Stop()
		delete(w.pending, slot)
	}
}

func (e *Engine) workout(userID string) *workout {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workouts[userID]
}

// forget removes w from the live workouts if it is still the user's current one.
func (e *Engine) forget(userID string, w *workout) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.workouts[userID] == w {
		delete(e.workouts, userID)
	}
}

// discard closes w without finalizing it.
func (e *Engine) discard(w *workout) {
	w.cancelPending()
	w.status = domain.StatusClosed
	e.forget(w.userID, w)
}

// load returns the user's live workout, hydrating it from the store when the
// engine has none in memory. Must be called under the user's session lock.
func (e *Engine) load(ctx context.Context, userID string) (*workout, error) {
	if w := e.workout(userID); w != nil && w.status == domain.StatusActive {
		return e.refresh(ctx, w)
	}

	s, err := e.store.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, errors.Wrapf(domain.ErrNoActiveSession, "user %s", userID)
		}
		return nil, errors.Wrap(domain.Unavailable(err), "failed to load session")
	}
	return e.hydrate(ctx, userID, s)
}

// refresh reconciles w with the store, which other replicas and commands
// like "session rm" also write. Unsaved local changes win over the store;
// a missing snapshot ends the workout. Must be called under the user's lock.
func (e *Engine) refresh(ctx context.Context, w *workout) (*workout, error) {
	if w.dirty {
		return w, nil
	}

	s, err := e.store.Load(ctx, w.userID)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		w.logger.Info("Session removed from store, dropping local copy")
		e.discard(w)
		e.stopTimer(w.userID)
		return nil, errors.Wrapf(domain.ErrNoActiveSession, "user %s", w.userID)
	case err != nil:
		w.logger.Warn("Session store unreachable, using local copy", "err", err)
		return w, nil
	case s.TemplateID != w.session.TemplateID || !s.StartedAt.Equal(w.session.StartedAt):
		w.logger.Info("Session replaced in store", "stored_template_id", s.TemplateID)
		e.discard(w)
		e.stopTimer(w.userID)
		return e.hydrate(ctx, w.userID, s)
	}

	prev := w.session
	w.session = s
	e.fireChange(ctx, prev, s)
	return w, nil
}

// hydrate makes s the user's live workout.
func (e *Engine) hydrate(ctx context.Context, userID string, s *domain.ActiveSession) (*workout, error) {
	tmpl, err := e.templates.GetTemplate(ctx, userID, s.TemplateID)
	switch {
	case errors.Is(err, domain.ErrTemplateNotFound):
		// The template was deleted mid-workout; the session still carries its slots.
		tmpl = &domain.Template{ID: s.TemplateID, UserID: userID}
	case err != nil:
		return nil, errors.Wrap(domain.Unavailable(err), "failed to load template")
	}

	w, err := e.newWorkout(ctx, userID, s, tmpl)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.workouts[userID] = w
	e.mu.Unlock()

	w.logger.Debug("Session hydrated from store")
	return w, nil
}

func (e *Engine) newWorkout(ctx context.Context, userID string, s *domain.ActiveSession, tmpl *domain.Template) (*workout, error) {
	ids := tmpl.ExerciseIDs()
	for _, k := range s.ExecutionData.Keys() {
		ids = append(ids, k.ExerciseID)
	}

	exercises := make(map[string]*domain.Exercise, len(ids))
	for _, id := range ids {
		if _, ok := exercises[id]; ok {
			continue
		}
		ex, err := e.catalog.GetExercise(ctx, userID, id)
		if err != nil {
			if errors.Is(err, domain.ErrExerciseNotFound) {
				continue
			}
			return nil, errors.Wrapf(domain.Unavailable(err), "failed to load exercise %s", id)
		}
		exercises[id] = ex
	}

	return &workout{
		userID:  userID,
		session: s,
		status:  domain.StatusActive,
		machine: runtime.NewMachine(tmpl, exercises, runtime.WithFocusDelay(e.focusDelay)),
		logger:  e.logger.With("user_id", userID, "template_id", s.TemplateID),
	}, nil
}

// persist autosaves the workout. Only active sessions are saved.
func (e *Engine) persist(ctx context.Context, w *workout) {
	if w.status != domain.StatusActive {
		return
	}
	if err := e.store.Save(ctx, w.userID, w.session); err != nil {
		e.reportPersistError(ctx, w, errors.Wrap(domain.Unavailable(err), "failed to autosave session"))
		return
	}
	w.dirty = false
}

func (e *Engine) reportPersistError(ctx context.Context, w *workout, err error) {
	w.dirty = true
	w.logger.Warn("Session not persisted, changes kept in memory", "err", err)
	if e.hooks.OnPersistError != nil {
		e.hooks.OnPersistError(ctx, &domain.PersistErrorEvent{
			EventBase: e.event(domain.EventPersistError, w.userID),
			Err:       err,
		})
	}
}
