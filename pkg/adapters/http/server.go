package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/ironlog"
	"github.com/aretw0/ironlog/internal/logging"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/aretw0/ironlog/pkg/ports"
	"github.com/aretw0/ironlog/pkg/report"
	"github.com/aretw0/ironlog/pkg/timer"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UserHeader carries the id of the calling user.
const UserHeader = "X-User-ID"

// Engine is the part of ironlog.Engine served over HTTP.
type Engine interface {
	Catalog() ports.ExerciseCatalog
	Templates() ports.TemplateRepository
	SaveExercise(ctx context.Context, exercise *domain.Exercise) error
	SaveTemplate(ctx context.Context, tmpl *domain.Template) error

	StartSession(ctx context.Context, userID, templateID string) (*domain.ActiveSession, error)
	ActiveSession(ctx context.Context, userID string) (*domain.ActiveSession, error)
	ToggleSetCompletion(ctx context.Context, userID string, slot, set int) (*domain.ActiveSession, error)
	SetSetValue(ctx context.Context, userID string, slot int, exerciseID string, set int, field domain.Field, value float64) (*domain.ActiveSession, error)
	AddSet(ctx context.Context, userID string, slot int) (*domain.ActiveSession, error)
	RemoveSet(ctx context.Context, userID string, slot int) (*domain.ActiveSession, error)
	SetFocus(ctx context.Context, userID string, slot *int) (*domain.ActiveSession, error)
	ApplyBulkToExercise(ctx context.Context, userID string, slot int, exerciseID string, weight, reps *float64) (*domain.ActiveSession, error)
	EndSession(ctx context.Context, userID string, confirmed bool) (*domain.ExecutionRecord, error)
	AbandonSession(ctx context.Context, userID string) error

	StartTimer(userID string, seconds int)
	StopTimer(userID string)
	Timer(userID string) timer.State

	NextTemplate(ctx context.Context, userID string) (*domain.Template, error)
	History(ctx context.Context, userID string) ([]domain.ExecutionRecord, error)
	Report(ctx context.Context, userID string) (report.Summary, error)
}

// Server serves the engine over HTTP.
type Server struct {
	Engine   Engine
	Streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a StreamManager whose hooks were registered on the engine.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.Streams = streams
	}
}

// WithGatherer selects the registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewHandler creates the HTTP handler for the engine. It fails only if the
// embedded API description cannot be loaded.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s := &Server{
		Engine:   engine,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	validate, err := requestValidator(s.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(logRequests(s.logger))
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(specYAML)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(requireUser)
		r.Use(validate)

		r.Route("/exercises", func(r chi.Router) {
			r.Get("/", s.ListExercises)
			r.Post("/", s.CreateExercise)
			r.Get("/{id}", s.GetExercise)
			r.Put("/{id}", s.UpdateExercise)
			r.Delete("/{id}", s.DeleteExercise)
		})
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.ListTemplates)
			r.Post("/", s.CreateTemplate)
			r.Get("/next", s.NextTemplate)
			r.Get("/{id}", s.GetTemplate)
			r.Put("/{id}", s.UpdateTemplate)
			r.Delete("/{id}", s.DeleteTemplate)
		})
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Post("/", s.StartSession)
			r.Delete("/", s.AbandonSession)
			r.Post("/slots/{slot}/sets/{set}/toggle", s.ToggleSet)
			r.Put("/slots/{slot}/exercises/{exercise}/sets/{set}", s.SetValue)
			r.Put("/slots/{slot}/exercises/{exercise}/bulk", s.ApplyBulk)
			r.Post("/slots/{slot}/sets", s.AddSet)
			r.Delete("/slots/{slot}/sets", s.RemoveSet)
			r.Put("/focus", s.SetFocus)
			r.Get("/timer", s.GetTimer)
			r.Post("/timer", s.StartTimer)
			r.Delete("/timer", s.StopTimer)
			r.Post("/end", s.EndSession)
		})
		r.Get("/executions", s.ListExecutions)
		r.Get("/report", s.GetReport)
		r.Get("/events", s.SubscribeEvents)
	})

	return r, nil
}

type userKey struct{}

// requireUser rejects requests without a user id.
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing " + UserHeader + " header"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, userID)))
	})
}

func userFrom(r *http.Request) string {
	id, _ := r.Context().Value(userKey{}).(string)
	return id
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+UserHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := loadSpec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "ironlog-http",
		"version":     strings.TrimSpace(ironlog.Version),
		"api_version": apiVersion,
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}
