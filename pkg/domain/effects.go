package domain

import "time"

// EffectKind categorizes a side effect requested by the session state machine.
type EffectKind string

const (
	// EffectStartTimer asks the host to (re)start the rest timer.
	EffectStartTimer EffectKind = "start_timer"
	// EffectAdvanceFocus asks the host to move focus past Slot after Delay,
	// provided focus is still on Slot by then.
	EffectAdvanceFocus EffectKind = "advance_focus"
)

// FocusAdvanceDelay is the pause between completing a slot and moving focus on.
const FocusAdvanceDelay = 400 * time.Millisecond

// Effect is a command emitted by a mutation. The state machine never performs
// it; the host does.
type Effect struct {
	Kind    EffectKind    `json:"kind"`
	Slot    int           `json:"slot"`
	Seconds int           `json:"seconds,omitempty"`
	Delay   time.Duration `json:"delay,omitempty"`
}
