package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/tally/pkg/domain"
)

// Event is pushed to the session's SSE subscribers after every change.
type Event struct {
	Type       string       `json:"type"`
	Expression string       `json:"expression,omitempty"`
	Op         string       `json:"op,omitempty"`
	Input      string       `json:"input,omitempty"`
	Display    string       `json:"display,omitempty"`
	Mode       *domain.Mode `json:"mode,omitempty"`
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (sm *StreamManager) Subscribe(sessionID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
		})
	}
}

// Subscribers counts the open streams for a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Publish encodes ev and broadcasts it.
func (sm *StreamManager) Publish(sessionID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "err", err)
		return
	}
	sm.Broadcast(sessionID, string(data))
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
// The optional "types" query parameter filters by event type, e.g. ?types=evaluate,toggle.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "streaming not supported"})
		return
	}
	sessionID := chi.URLParam(r, "id")
	if err := domain.ValidateSessionID(sessionID); err != nil {
		s.writeError(w, r, err)
		return
	}

	var filter map[string]bool
	if types := r.URL.Query().Get("types"); types != "" {
		filter = map[string]bool{}
		for _, t := range strings.Split(types, ",") {
			filter[strings.TrimSpace(t)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.Logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.Logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if filter != nil {
				var ev Event
				if err := json.Unmarshal([]byte(msg), &ev); err == nil && !filter[ev.Type] {
					continue
				}
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
