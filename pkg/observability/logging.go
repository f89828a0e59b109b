package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ironlog/pkg/domain"
)

// LoggingHooks logs engine events. Timer ticks are logged at debug level only.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_start", "user_id", e.UserID, "template_id", e.TemplateID)
		},
		OnSessionResume: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_resume", "user_id", e.UserID, "template_id", e.TemplateID)
		},
		OnSessionAbandon: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_abandon", "user_id", e.UserID, "template_id", e.TemplateID)
		},
		OnSetToggled: func(ctx context.Context, e *domain.SetEvent) {
			logger.DebugContext(ctx, "set_toggled",
				"user_id", e.UserID,
				"slot", e.Slot,
				"set", e.Set,
				"completed", e.Completed,
				"slot_completed", e.SlotCompleted,
			)
		},
		OnFocusChange: func(ctx context.Context, e *domain.FocusEvent) {
			logger.DebugContext(ctx, "focus_change", "user_id", e.UserID, "slot", e.Slot, "auto", e.Auto)
		},
		OnTimerTick: func(ctx context.Context, e *domain.TimerEvent) {
			logger.DebugContext(ctx, "timer_tick", "user_id", e.UserID, "remaining", e.Remaining)
		},
		OnTimerExpire: func(ctx context.Context, e *domain.TimerEvent) {
			logger.InfoContext(ctx, "timer_expire", "user_id", e.UserID, "duration", e.Duration)
		},
		OnPersistError: func(ctx context.Context, e *domain.PersistErrorEvent) {
			logger.WarnContext(ctx, "persist_error", "user_id", e.UserID, "err", e.Err)
		},
		OnSessionEnd: func(ctx context.Context, e *domain.EndEvent) {
			logger.InfoContext(ctx, "session_end",
				"user_id", e.UserID,
				"record_id", e.Record.ID,
				"template_id", e.Record.TemplateID,
				"status", e.Record.Status,
			)
		},
	}
}
