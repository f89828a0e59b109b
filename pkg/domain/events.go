package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart   EventType = "session_start"
	EventSessionResume  EventType = "session_resume"
	EventSetToggled     EventType = "set_toggled"
	EventFocusChange    EventType = "focus_change"
	EventTimerStart     EventType = "timer_start"
	EventTimerTick      EventType = "timer_tick"
	EventTimerExpire    EventType = "timer_expire"
	EventPersistError   EventType = "persist_error"
	EventSessionEnd     EventType = "session_end"
	EventSessionAbandon EventType = "session_abandon"
	EventSessionChange  EventType = "session_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
}

// SessionEvent reports a session entering or leaving the engine.
type SessionEvent struct {
	EventBase
	TemplateID string `json:"template_id"`
}

// SetEvent reports a completion toggle on a slot.
type SetEvent struct {
	EventBase
	Slot          int  `json:"slot"`
	Set           int  `json:"set"`
	Completed     bool `json:"completed"`
	SlotCompleted bool `json:"slot_completed"`
}

// FocusEvent reports a focus change, including the automatic advance.
type FocusEvent struct {
	EventBase
	Slot *int `json:"slot"`
	Auto bool `json:"auto"`
}

// TimerEvent reports rest timer activity.
type TimerEvent struct {
	EventBase
	Remaining int `json:"remaining"`
	Duration  int `json:"duration"`
}

// PersistErrorEvent reports a failed autosave. The mutation that triggered it
// has already been applied in memory.
type PersistErrorEvent struct {
	EventBase
	Err error `json:"-"`
}

// EndEvent reports a finalized session.
type EndEvent struct {
	EventBase
	Record *ExecutionRecord `json:"record"`
}

// ChangeEvent carries what changed in a session after a mutation.
type ChangeEvent struct {
	EventBase
	Diff *SessionDiff `json:"diff"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnSessionStart   func(context.Context, *SessionEvent)
	OnSessionResume  func(context.Context, *SessionEvent)
	OnSessionAbandon func(context.Context, *SessionEvent)
	OnSetToggled     func(context.Context, *SetEvent)
	OnFocusChange    func(context.Context, *FocusEvent)
	OnTimerStart     func(context.Context, *TimerEvent)
	OnTimerTick      func(context.Context, *TimerEvent)
	OnTimerExpire    func(context.Context, *TimerEvent)
	OnPersistError   func(context.Context, *PersistErrorEvent)
	OnSessionEnd     func(context.Context, *EndEvent)
	OnSessionChange  func(context.Context, *ChangeEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSessionStart:   chain(h.OnSessionStart, other.OnSessionStart),
		OnSessionResume:  chain(h.OnSessionResume, other.OnSessionResume),
		OnSessionAbandon: chain(h.OnSessionAbandon, other.OnSessionAbandon),
		OnSetToggled:     chain(h.OnSetToggled, other.OnSetToggled),
		OnFocusChange:    chain(h.OnFocusChange, other.OnFocusChange),
		OnTimerStart:     chain(h.OnTimerStart, other.OnTimerStart),
		OnTimerTick:      chain(h.OnTimerTick, other.OnTimerTick),
		OnTimerExpire:    chain(h.OnTimerExpire, other.OnTimerExpire),
		OnPersistError:   chain(h.OnPersistError, other.OnPersistError),
		OnSessionEnd:     chain(h.OnSessionEnd, other.OnSessionEnd),
		OnSessionChange:  chain(h.OnSessionChange, other.OnSessionChange),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
