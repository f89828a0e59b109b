// Package timer provides the rest countdown shown between sets.
package timer

import (
	"sync"
	"time"
)

// DefaultTick is the countdown resolution.
const DefaultTick = time.Second

// State is a snapshot of the countdown. A zero State means no timer.
type State struct {
	Active    bool `json:"active"`
	Remaining int  `json:"remaining"`
	Duration  int  `json:"duration"`
}

// Option configures a RestTimer.
type Option func(*RestTimer)

// WithTick overrides DefaultTick. Tests use it to run countdowns fast.
func WithTick(d time.Duration) Option {
	return func(t *RestTimer) {
		if d > 0 {
			t.tick = d
		}
	}
}

// OnTick is called after every decrement that leaves time on the clock.
func OnTick(fn func(State)) Option {
	return func(t *RestTimer) {
		t.onTick = fn
	}
}

// OnExpire is called once when the countdown reaches zero.
func OnExpire(fn func(State)) Option {
	return func(t *RestTimer) {
		t.onExpire = fn
	}
}

// RestTimer is a single countdown. Starting it again replaces the running
// countdown without carrying over the remaining time.
// Callbacks run on the timer goroutine, never under the timer's lock.
type RestTimer struct {
	mu       sync.Mutex
	state    State
	stop     chan struct{}
	tick     time.Duration
	onTick   func(State)
	onExpire func(State)
}

// New creates an idle timer.
func New(opts ...Option) *RestTimer {
	t := &RestTimer{tick: DefaultTick}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins a countdown of seconds. A non-positive duration expires
// immediately.
func (t *RestTimer) Start(seconds int) {
	if seconds < 0 {
		seconds = 0
	}

	t.mu.Lock()
	t.cancelLocked()
	t.state = State{Active: seconds > 0, Remaining: seconds, Duration: seconds}
	if seconds == 0 {
		st := t.state
		t.mu.Unlock()
		t.fire(t.onExpire, st)
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	go t.run(stop)
}

// Stop cancels the countdown and clears its state.
func (t *RestTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.state = State{}
}

// State returns the current countdown.
func (t *RestTimer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *RestTimer) cancelLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *RestTimer) run(stop chan struct{}) {
	ticker := time.NewTicker(t.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		t.mu.Lock()
		// A Stop or Start may have won the race against this tick.
		if t.stop != stop {
			t.mu.Unlock()
			return
		}
		if t.state.Remaining > 0 {
			t.state.Remaining--
		}
		st := t.state
		expired := st.Remaining == 0
		if expired {
			t.state.Active = false
			st.Active = false
			t.stop = nil
		}
		t.mu.Unlock()

		if expired {
			t.fire(t.onExpire, st)
			return
		}
		t.fire(t.onTick, st)
	}
}

func (t *RestTimer) fire(fn func(State), st State) {
	if fn != nil {
		fn(st)
	}
}
