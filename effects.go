package ironlog

import (
	"context"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/timer"
)

// runEffects executes what the state machine asked for.
func (e *Engine) runEffects(ctx context.Context, w *workout, effects []domain.Effect) {
	for _, eff := range effects {
		switch eff.Kind {
		case domain.EffectStartTimer:
			e.StartTimer(w.userID, eff.Seconds)
		case domain.EffectAdvanceFocus:
			slot := eff.Slot
			w.schedule(slot, eff.Delay, func() {
				e.advanceFocus(w, slot)
			})
		default:
			w.logger.Warn("Unknown effect", "kind", eff.Kind)
		}
	}
}

// advanceFocus runs when a scheduled focus advance fires. It is a no-op if
// the workout ended or was replaced while waiting.
func (e *Engine) advanceFocus(w *workout, slot int) {
	ctx := context.Background()
	err := e.sessions.WithLock(ctx, w.userID, func(ctx context.Context) error {
		if e.workout(w.userID) != w || w.status != domain.StatusActive {
			return nil
		}
		if _, err := e.refresh(ctx, w); err != nil || e.workout(w.userID) != w {
			return nil
		}
		res := w.machine.AdvanceFocus(w.session, slot)
		if !res.Changed {
			return nil
		}
		old := w.session
		w.session = res.Session
		e.persist(ctx, w)
		e.fireFocus(ctx, w.userID, w.session.FocusedSlot, true)
		e.fireChange(ctx, old, w.session)
		return nil
	})
	if err != nil {
		w.logger.Warn("Focus advance skipped", "slot", slot, "err", err)
	}
}

func (e *Engine) restTimer(userID string) *timer.RestTimer {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[userID]
	if !ok {
		t = timer.New(
			timer.WithTick(e.timerTick),
			timer.OnTick(func(st timer.State) {
				e.fireTimer(e.hooks.OnTimerTick, domain.EventTimerTick, userID, st)
			}),
			timer.OnExpire(func(st timer.State) {
				if e.alert != nil {
					e.alert(userID)
				}
				e.fireTimer(e.hooks.OnTimerExpire, domain.EventTimerExpire, userID, st)
			}),
		)
		e.timers[userID] = t
	}
	return t
}

// StartTimer (re)starts the user's rest countdown.
func (e *Engine) StartTimer(userID string, seconds int) {
	t := e.restTimer(userID)
	e.fireTimer(e.hooks.OnTimerStart, domain.EventTimerStart, userID, timer.State{Active: seconds > 0, Remaining: seconds, Duration: seconds})
	t.Start(seconds)
}

// StopTimer cancels the user's rest countdown.
func (e *Engine) StopTimer(userID string) {
	e.stopTimer(userID)
}

// Timer returns the user's rest countdown.
func (e *Engine) Timer(userID string) timer.State {
	e.mu.Lock()
	t, ok := e.timers[userID]
	e.mu.Unlock()
	if !ok {
		return timer.State{}
	}
	return t.State()
}

func (e *Engine) stopTimer(userID string) {
	e.mu.Lock()
	t, ok := e.timers[userID]
	e.mu.Unlock()
	if ok {
		t.Stop()
	}
}

func (e *Engine) event(kind domain.EventType, userID string) domain.EventBase {
	return domain.EventBase{Timestamp: e.clock(), Type: kind, UserID: userID}
}

func (e *Engine) fireSession(ctx context.Context, hook func(context.Context, *domain.SessionEvent), kind domain.EventType, s *domain.ActiveSession) {
	if hook == nil {
		return
	}
	hook(ctx, &domain.SessionEvent{EventBase: e.event(kind, s.UserID), TemplateID: s.TemplateID})
}

func (e *Engine) fireSet(ctx context.Context, userID string, slot, set int, completed, slotCompleted bool) {
	if e.hooks.OnSetToggled == nil {
		return
	}
	e.hooks.OnSetToggled(ctx, &domain.SetEvent{
		EventBase:     e.event(domain.EventSetToggled, userID),
		Slot:          slot,
		Set:           set,
		Completed:     completed,
		SlotCompleted: slotCompleted,
	})
}

func (e *Engine) fireFocus(ctx context.Context, userID string, slot *int, auto bool) {
	if e.hooks.OnFocusChange == nil {
		return
	}
	var ref *int
	if slot != nil {
		ref = domain.SlotRef(*slot)
	}
	e.hooks.OnFocusChange(ctx, &domain.FocusEvent{
		EventBase: e.event(domain.EventFocusChange, userID),
		Slot:      ref,
		Auto:      auto,
	})
}

func (e *Engine) fireTimer(hook func(context.Context, *domain.TimerEvent), kind domain.EventType, userID string, st timer.State) {
	if hook == nil {
		return
	}
	hook(context.Background(), &domain.TimerEvent{
		EventBase: e.event(kind, userID),
		Remaining: st.Remaining,
		Duration:  st.Duration,
	})
}

func (e *Engine) fireChange(ctx context.Context, old, new *domain.ActiveSession) {
	if e.hooks.OnSessionChange == nil {
		return
	}
	diff := domain.Diff(old, new)
	if diff == nil {
		return
	}
	e.hooks.OnSessionChange(ctx, &domain.ChangeEvent{
		EventBase: e.event(domain.EventSessionChange, new.UserID),
		Diff:      diff,
	})
}
