package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/ironlog"
	"github.com/aretw0/ironlog/internal/logging"
	"github.com/aretw0/ironlog/pkg/domain"
	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine is the part of ironlog.Engine exposed as tools.
type Engine interface {
	StartSession(ctx context.Context, userID, templateID string) (*domain.ActiveSession, error)
	ActiveSession(ctx context.Context, userID string) (*domain.ActiveSession, error)
	ToggleSetCompletion(ctx context.Context, userID string, slot, set int) (*domain.ActiveSession, error)
	SetSetValue(ctx context.Context, userID string, slot int, exerciseID string, set int, field domain.Field, value float64) (*domain.ActiveSession, error)
	AddSet(ctx context.Context, userID string, slot int) (*domain.ActiveSession, error)
	RemoveSet(ctx context.Context, userID string, slot int) (*domain.ActiveSession, error)
	SetFocus(ctx context.Context, userID string, slot *int) (*domain.ActiveSession, error)
	ApplyBulkToExercise(ctx context.Context, userID string, slot int, exerciseID string, weight, reps *float64) (*domain.ActiveSession, error)
	EndSession(ctx context.Context, userID string, confirmed bool) (*domain.ExecutionRecord, error)
	NextTemplate(ctx context.Context, userID string) (*domain.Template, error)
	History(ctx context.Context, userID string) ([]domain.ExecutionRecord, error)
}

// Server wraps the engine and exposes it as an MCP server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("ironlog-mcp", strings.TrimSpace(ironlog.Version), server.WithToolCapabilities(false)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "could not stop MCP server gracefully")
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userArg() mcp.ToolOption {
	return mcp.WithString("user_id", mcp.Required(), mcp.Description("Owner of the workout"))
}

func slotArg() mcp.ToolOption {
	return mcp.WithNumber("slot", mcp.Required(), mcp.Min(0), mcp.Description("Zero-based slot index in the template"))
}

func setArg() mcp.ToolOption {
	return mcp.WithNumber("set", mcp.Required(), mcp.Min(0), mcp.Description("Zero-based set index"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_session",
		mcp.WithDescription("Start a workout from a template, or resume the one in progress."),
		userArg(),
		mcp.WithString("template_id", mcp.Required(), mcp.Description("Template to train")),
	), s.handleStartSession)

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the workout in progress."),
		userArg(),
	), s.handleGetSession)

	s.mcpServer.AddTool(mcp.NewTool("toggle_set",
		mcp.WithDescription("Mark a set of every exercise in a slot as done, or undo it."),
		userArg(), slotArg(), setArg(),
	), s.handleToggleSet)

	s.mcpServer.AddTool(mcp.NewTool("set_value",
		mcp.WithDescription("Write the weight or reps of one set."),
		userArg(), slotArg(), setArg(),
		mcp.WithString("exercise_id", mcp.Required()),
		mcp.WithString("field", mcp.Required(), mcp.Enum(string(domain.FieldWeight), string(domain.FieldReps))),
		mcp.WithNumber("value", mcp.Required(), mcp.Min(0)),
	), s.handleSetValue)

	s.mcpServer.AddTool(mcp.NewTool("add_set",
		mcp.WithDescription("Append a set to every exercise of a slot."),
		userArg(), slotArg(),
	), s.handleAddSet)

	s.mcpServer.AddTool(mcp.NewTool("remove_set",
		mcp.WithDescription("Drop the last set of every exercise of a slot."),
		userArg(), slotArg(),
	), s.handleRemoveSet)

	s.mcpServer.AddTool(mcp.NewTool("set_focus",
		mcp.WithDescription("Expand a slot, or collapse it when already expanded. Omit slot to collapse all."),
		userArg(),
		mcp.WithNumber("slot", mcp.Min(0)),
	), s.handleSetFocus)

	s.mcpServer.AddTool(mcp.NewTool("apply_bulk",
		mcp.WithDescription("Overwrite weight and/or reps on every set of one exercise."),
		userArg(), slotArg(),
		mcp.WithString("exercise_id", mcp.Required()),
		mcp.WithNumber("weight", mcp.Min(0)),
		mcp.WithNumber("reps", mcp.Min(0)),
	), s.handleApplyBulk)

	s.mcpServer.AddTool(mcp.NewTool("end_session",
		mcp.WithDescription("Finish the workout and store it in the history. Incomplete workouts need confirmed=true."),
		userArg(),
		mcp.WithBoolean("confirmed"),
	), s.handleEndSession)

	s.mcpServer.AddTool(mcp.NewTool("next_template",
		mcp.WithDescription("Suggest the template that follows the last completed one."),
		userArg(),
	), s.handleNextTemplate)

	s.mcpServer.AddTool(mcp.NewTool("list_history",
		mcp.WithDescription("List finished workouts, newest first."),
		userArg(),
	), s.handleListHistory)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("ironlog://users/{user_id}/session", "Workout in progress",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		userID := strings.TrimSuffix(strings.TrimPrefix(uri, "ironlog://users/"), "/session")
		session, err := s.engine.ActiveSession(ctx, userID)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(session)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: uri, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
