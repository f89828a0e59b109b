package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine collectors.
type Metrics struct {
	SessionsStarted   prometheus.Counter
	SessionsResumed   prometheus.Counter
	SessionsAbandoned prometheus.Counter
	SessionsEnded     *prometheus.CounterVec
	SetsToggled       *prometheus.CounterVec
	RestTimers        *prometheus.CounterVec
	PersistErrors     prometheus.Counter
	WorkoutVolume     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ironlog_sessions_started_total",
			Help: "Sessions seeded from a template.",
		}),
		SessionsResumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ironlog_sessions_resumed_total",
			Help: "Sessions resumed from memory or storage.",
		}),
		SessionsAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ironlog_sessions_abandoned_total",
			Help: "Sessions dropped without a record.",
		}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ironlog_sessions_ended_total",
			Help: "Sessions finalized into an execution record.",
		}, []string{"status"}),
		SetsToggled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ironlog_sets_toggled_total",
			Help: "Set completion toggles.",
		}, []string{"completed"}),
		RestTimers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ironlog_rest_timers_total",
			Help: "Rest timer starts and expiries.",
		}, []string{"event"}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ironlog_persist_errors_total",
			Help: "Autosaves that failed and were kept in memory.",
		}),
		WorkoutVolume: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ironlog_workout_volume",
			Help:    "Weight times reps over completed sets of finished workouts.",
			Buckets: prometheus.ExponentialBuckets(500, 2, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.SessionsStarted, m.SessionsResumed, m.SessionsAbandoned, m.SessionsEnded,
		m.SetsToggled, m.RestTimers, m.PersistErrors, m.WorkoutVolume,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks records the metrics from engine events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStart: func(context.Context, *domain.SessionEvent) {
			m.SessionsStarted.Inc()
		},
		OnSessionResume: func(context.Context, *domain.SessionEvent) {
			m.SessionsResumed.Inc()
		},
		OnSessionAbandon: func(context.Context, *domain.SessionEvent) {
			m.SessionsAbandoned.Inc()
		},
		OnSetToggled: func(_ context.Context, e *domain.SetEvent) {
			m.SetsToggled.WithLabelValues(strconv.FormatBool(e.Completed)).Inc()
		},
		OnTimerStart: func(context.Context, *domain.TimerEvent) {
			m.RestTimers.WithLabelValues("start").Inc()
		},
		OnTimerExpire: func(context.Context, *domain.TimerEvent) {
			m.RestTimers.WithLabelValues("expire").Inc()
		},
		OnPersistError: func(context.Context, *domain.PersistErrorEvent) {
			m.PersistErrors.Inc()
		},
		OnSessionEnd: func(_ context.Context, e *domain.EndEvent) {
			m.SessionsEnded.WithLabelValues(string(e.Record.Status)).Inc()
			m.WorkoutVolume.Observe(e.Record.Volume())
		},
	}
}
