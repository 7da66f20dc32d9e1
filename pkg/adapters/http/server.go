package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/tally"
	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/ports"
	"github.com/aretw0/tally/pkg/runner"
)

// MaxBodySize caps request bodies.
const MaxBodySize = 1 << 20

// Engine is the calculator surface served over HTTP.
type Engine interface {
	ports.Calculator
	FindSession(ctx context.Context, sessionID string) (*domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Server holds the handlers' dependencies.
type Server struct {
	Engine       Engine
	Streams      *StreamManager
	Metrics      http.Handler
	Logger       *slog.Logger
	MaxInputSize int
}

// Option configures the Server.
type Option func(*Server)

// WithMetrics mounts a metrics handler on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.Metrics = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

// WithMaxInputSize overrides the size limit for expressions and transform inputs.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.MaxInputSize = n
	}
}

// NewHandler creates the HTTP handler for engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.Logger

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/functions", s.GetFunctions)
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	r.Post("/evaluate", s.Calculate)

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Delete("/", s.DeleteSession)
		r.Post("/evaluate", s.Evaluate)
		r.Post("/transform/{op}", s.Transform)
		r.Post("/toggle/{flag}", s.Toggle)
		r.Get("/history", s.GetHistory)
		r.Delete("/history", s.ClearHistory)
		r.Delete("/history/{index}", s.DeleteHistoryEntry)
		r.Get("/events", s.SubscribeEvents)
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EvaluateRequest is the body of the evaluate endpoints.
type EvaluateRequest struct {
	Expression string       `json:"expression"`
	Mode       *domain.Mode `json:"mode,omitempty"`
}

// EvaluateResponse carries a formatted result.
type EvaluateResponse struct {
	Expression string      `json:"expression"`
	Canonical  string      `json:"canonical"`
	Display    string      `json:"display"`
	Mode       domain.Mode `json:"mode"`
}

// TransformRequest is the body of POST /sessions/{id}/transform/{op}.
type TransformRequest struct {
	Input string `json:"input"`
}

// TransformResponse carries a transform result.
type TransformResponse struct {
	Op     string `json:"op"`
	Input  string `json:"input"`
	Result string `json:"result"`
}

// ToggleRequest is the optional body of POST /sessions/{id}/toggle/{flag}.
type ToggleRequest struct {
	Display string `json:"display"`
}

// ToggleResponse carries the new modes and the re-rendered display.
type ToggleResponse struct {
	Mode    domain.Mode `json:"mode"`
	Display string      `json:"display,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "tally-http",
		"version": strings.TrimSpace(tally.Version),
	})
}

// GetFunctions handles GET /functions.
func (s *Server) GetFunctions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"functions":  tally.Functions(),
		"transforms": tally.Transforms(),
	})
}

// Calculate handles the stateless POST /evaluate.
func (s *Server) Calculate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if !s.decode(w, r, &body) {
		return
	}
	expression, ok := s.sanitize(w, r, body.Expression)
	if !ok {
		return
	}
	mode := domain.DefaultMode()
	if body.Mode != nil {
		mode = body.Mode.Normalize()
	}

	res, err := s.Engine.Calculate(r.Context(), expression, mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, EvaluateResponse{
		Expression: res.Expression,
		Canonical:  res.Canonical,
		Display:    res.Display,
		Mode:       res.Mode,
	})
}

// Evaluate handles POST /sessions/{id}/evaluate.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body EvaluateRequest
	if !s.decode(w, r, &body) {
		return
	}
	expression, ok := s.sanitize(w, r, body.Expression)
	if !ok {
		return
	}

	res, err := s.Engine.Evaluate(r.Context(), id, expression)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := EvaluateResponse{
		Expression: res.Expression,
		Canonical:  res.Canonical,
		Display:    res.Display,
		Mode:       res.Mode,
	}
	s.Streams.Publish(id, Event{Type: "evaluate", Expression: res.Expression, Display: res.Display})
	s.writeJSON(w, http.StatusOK, resp)
}

// Transform handles POST /sessions/{id}/transform/{op}.
func (s *Server) Transform(w http.ResponseWriter, r *http.Request) {
	id, op := chi.URLParam(r, "id"), chi.URLParam(r, "op")
	var body TransformRequest
	if !s.decode(w, r, &body) {
		return
	}
	input, ok := s.sanitize(w, r, body.Input)
	if !ok {
		return
	}

	out, err := s.Engine.Transform(r.Context(), id, op, input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Publish(id, Event{Type: "transform", Op: op, Input: input, Display: out})
	s.writeJSON(w, http.StatusOK, TransformResponse{Op: op, Input: input, Result: out})
}

// Toggle handles POST /sessions/{id}/toggle/{flag}. The body is optional.
func (s *Server) Toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	flag, err := domain.ParseToggle(chi.URLParam(r, "flag"))
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	var body ToggleRequest
	if !s.decodeOptional(w, r, &body) {
		return
	}

	mode, display, err := s.Engine.Toggle(r.Context(), id, flag, body.Display)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m := mode
	s.Streams.Publish(id, Event{Type: "toggle", Mode: &m, Display: display})
	s.writeJSON(w, http.StatusOK, ToggleResponse{Mode: mode, Display: display})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Engine.FindSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHistory handles GET /sessions/{id}/history.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Engine.FindSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess.History)
}

// ClearHistory handles DELETE /sessions/{id}/history.
func (s *Server) ClearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Engine.ClearHistory(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Publish(id, Event{Type: "history"})
	w.WriteHeader(http.StatusNoContent)
}

// DeleteHistoryEntry handles DELETE /sessions/{id}/history/{index}.
func (s *Server) DeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "history index must be an integer"})
		return
	}
	if err := s.Engine.DeleteHistory(r.Context(), id, index); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Streams.Publish(id, Event{Type: "history"})
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Kind  domain.ErrorKind `json:"kind,omitempty"`
	Error string           `json:"error"`
}

// statusFor maps an engine error to an HTTP status.
func statusFor(err error) int {
	switch {
	case domain.KindOf(err) == domain.KindInput:
		return http.StatusBadRequest
	case domain.KindOf(err) != "":
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidSessionID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrUnknownTransform),
		errors.Is(err, domain.ErrHistoryIndex):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var calcErr *domain.Error
	if errors.As(err, &calcErr) {
		resp = errorResponse{Kind: calcErr.Kind, Error: calcErr.Msg}
	}
	if status == http.StatusInternalServerError {
		s.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		resp.Error = "internal error"
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	return s.decodeBody(w, r, v, false)
}

// decodeOptional accepts an empty body.
func (s *Server) decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	return s.decodeBody(w, r, v, true)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return true
	}
	if err != nil {
		s.Logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (s *Server) sanitize(w http.ResponseWriter, r *http.Request, input string) (string, bool) {
	clean, err := runner.SanitizeInputLimit(input, s.MaxInputSize)
	if err != nil {
		s.writeError(w, r, err)
		return "", false
	}
	return clean, true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}
