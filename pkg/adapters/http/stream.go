package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/ironlog/internal/logging"
	"github.com/aretw0/ironlog/pkg/domain"
)

// Event kinds sent on the stream.
const (
	StreamSession = "session"
	StreamFocus   = "focus"
	StreamTimer   = "timer"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  []byte
}

// StreamManager fans engine events out to the SSE connections of each user.
type StreamManager struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // UserID -> Set of Channels
}

// NewStreamManager creates an empty manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[string]map[chan<- Message]struct{}),
	}
}

// Subscribe registers a channel for userID. The returned func unregisters and closes it.
func (sm *StreamManager) Subscribe(userID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	if _, ok := sm.subscribers[userID]; !ok {
		sm.subscribers[userID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[userID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[userID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, userID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of open streams of userID.
func (sm *StreamManager) Subscribers(userID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[userID])
}

// Broadcast sends payload as JSON to every stream of userID.
// Slow clients lose messages instead of blocking the engine.
func (sm *StreamManager) Broadcast(userID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Error("SSE: payload encode failed", "event", event, "err", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[userID] {
		select {
		case ch <- Message{Event: event, Data: data}:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping message", "user_id", userID, "event", event)
		}
	}
}

// Hooks forwards session diffs, focus changes and timer activity to the streams.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	timerHook := func(_ context.Context, e *domain.TimerEvent) {
		sm.Broadcast(e.UserID, StreamTimer, e)
	}
	return domain.LifecycleHooks{
		OnSessionChange: func(_ context.Context, e *domain.ChangeEvent) {
			sm.Broadcast(e.UserID, StreamSession, e.Diff)
		},
		OnFocusChange: func(_ context.Context, e *domain.FocusEvent) {
			sm.Broadcast(e.UserID, StreamFocus, e)
		},
		OnTimerStart:  timerHook,
		OnTimerTick:   timerHook,
		OnTimerExpire: timerHook,
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming not supported"})
		return
	}

	userID := userFrom(r)
	watch := make(map[string]bool)
	if q := r.URL.Query().Get("watch"); q != "" {
		for _, kind := range strings.Split(q, ",") {
			watch[strings.TrimSpace(kind)] = true
		}
	}

	ch, cancel := s.Streams.Subscribe(userID)
	defer cancel()
	s.logger.Info("SSE: Subscribing to session updates", "user_id", userID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE client disconnected", "user_id", userID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[msg.Event] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}
