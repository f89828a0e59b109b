package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithTemplate starts (or resumes) a workout of templateID instead of
// resuming whatever session the user has.
func WithTemplate(templateID string) Option {
	return func(r *Runner) {
		r.TemplateID = templateID
	}
}

// WithRenderer configures the content renderer (e.g. TUI, Markdown) used by
// the default text handler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}
