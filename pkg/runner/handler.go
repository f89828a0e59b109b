package runner

import (
	"context"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/timer"
)

// ContentRenderer turns markdown into terminal output (e.g. glamour).
type ContentRenderer func(markdown string) (string, error)

// Frame is one snapshot of the console: the session as it stands after the
// last command, plus anything the user should see about it.
type Frame struct {
	Session *domain.ActiveSession  `json:"session,omitempty"`
	Timer   timer.State            `json:"timer"`
	Record  *domain.ExecutionRecord `json:"record,omitempty"`
	Message string                 `json:"message,omitempty"`

	// Names maps exercise ids to display names.
	Names map[string]string `json:"-"`
	// ExpandAll shows the sets of every slot, not only the focused one.
	ExpandAll bool `json:"-"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (console) and JSON (structured) modes.
type IOHandler interface {
	// Show presents a frame.
	Show(ctx context.Context, frame Frame) error

	// Input reads one command line.
	Input(ctx context.Context) (string, error)

	// Notify presents a meta-message (timer expiry, errors, confirmations).
	Notify(ctx context.Context, msg string) error
}
