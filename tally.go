package tally

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/tally/internal/runtime"
	"github.com/aretw0/tally/pkg/adapters/memory"
	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/expr"
	"github.com/aretw0/tally/pkg/format"
	"github.com/aretw0/tally/pkg/numeric"
	"github.com/aretw0/tally/pkg/ports"
	"github.com/aretw0/tally/pkg/session"
)

// DefaultHistorySize is the number of history entries kept per session.
const DefaultHistorySize = 100

// TransformInfo describes one plain-number transform.
type TransformInfo = runtime.Transform

// Engine is the high-level entry point for the tally library.
// It binds the calculation pipeline to per-session modes and history.
type Engine struct {
	calc        *runtime.Calculator
	sessions    *session.Manager
	store       ports.SessionStore
	locker      ports.DistributedLocker
	limits      numeric.Limits
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	historySize int
}

var _ ports.Calculator = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore sets the session store (default: in memory).
func WithStore(store ports.SessionStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLimits bounds numeric inputs. Zero fields keep their defaults.
func WithLimits(limits numeric.Limits) Option {
	return func(e *Engine) {
		e.limits = limits
	}
}

// WithHistorySize caps the history kept per session. Zero or less keeps everything.
func WithHistorySize(n int) Option {
	return func(e *Engine) {
		e.historySize = n
	}
}

// New initializes a new Engine.
func New(opts ...Option) *Engine {
	eng := &Engine{historySize: DefaultHistorySize}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)
	eng.calc = runtime.NewCalculator(runtime.WithLimits(eng.limits))
	return eng
}

// Evaluate runs an expression under the session's modes and appends it to the history.
// Failed evaluations leave the session untouched.
func (e *Engine) Evaluate(ctx context.Context, sessionID, expression string) (domain.Result, error) {
	start := time.Now()
	res := domain.Result{Expression: expression}
	_, err := e.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		var err error
		res, err = e.calc.Evaluate(expression, s.Mode)
		if err != nil {
			return err
		}
		s.Record(domain.HistoryEntry{
			Expression: expression,
			Result:     res.Display,
			At:         time.Now().UTC(),
		}, e.historySize)
		return nil
	})
	e.emitEval(ctx, sessionID, res, err, start)
	return res, err
}

// Calculate runs an expression under an explicit mode without touching any session.
func (e *Engine) Calculate(ctx context.Context, expression string, mode domain.Mode) (domain.Result, error) {
	start := time.Now()
	res, err := e.calc.Evaluate(expression, mode)
	e.emitEval(ctx, "", res, err, start)
	return res, err
}

// Transform applies a plain-number transform (see Transforms) under the session's modes.
func (e *Engine) Transform(ctx context.Context, sessionID, op, input string) (string, error) {
	start := time.Now()
	out, err := e.transform(ctx, sessionID, op, input)
	if e.hooks.OnTransform != nil {
		e.hooks.OnTransform(ctx, &domain.TransformEvent{
			EventBase: e.base(domain.EventTransform, sessionID),
			Op:        op,
			Input:     input,
			Result:    out,
			Err:       err,
			Duration:  time.Since(start),
		})
	}
	return out, err
}

func (e *Engine) transform(ctx context.Context, sessionID, op, input string) (string, error) {
	parsed, err := runtime.ParseOp(op)
	if err != nil {
		return "", err
	}
	mode, err := e.Mode(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return e.calc.Transform(parsed, input, mode)
}

// Toggle flips one mode flag. For the rational flag, a display holding a plain
// number is re-rendered in the new mode; any other display is returned as is.
func (e *Engine) Toggle(ctx context.Context, sessionID string, toggle domain.Toggle, display string) (domain.Mode, string, error) {
	s, err := e.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		s.Mode = s.Mode.Apply(toggle)
		s.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Mode{}, display, err
	}

	if e.hooks.OnToggle != nil {
		e.hooks.OnToggle(ctx, &domain.ToggleEvent{
			EventBase: e.base(domain.EventToggle, sessionID),
			Toggle:    toggle,
			Mode:      s.Mode,
		})
	}

	if toggle == domain.ToggleRational && display != "" {
		display, _ = format.Redisplay(display, s.Mode)
	}
	return s.Mode, display, nil
}

// ToggleAngleUnit flips between degrees and radians.
func (e *Engine) ToggleAngleUnit(ctx context.Context, sessionID string) (domain.Mode, error) {
	m, _, err := e.Toggle(ctx, sessionID, domain.ToggleAngle, "")
	return m, err
}

// ToggleRationalDisplay flips fraction display and re-renders display when it is a plain number.
func (e *Engine) ToggleRationalDisplay(ctx context.Context, sessionID, display string) (domain.Mode, string, error) {
	return e.Toggle(ctx, sessionID, domain.ToggleRational, display)
}

// TogglePiDisplay flips π-multiple display.
func (e *Engine) TogglePiDisplay(ctx context.Context, sessionID string) (domain.Mode, error) {
	m, _, err := e.Toggle(ctx, sessionID, domain.TogglePi, "")
	return m, err
}

// SetMode replaces all mode flags at once.
func (e *Engine) SetMode(ctx context.Context, sessionID string, mode domain.Mode) (domain.Mode, error) {
	s, err := e.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		s.Mode = mode.Normalize()
		s.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Mode{}, err
	}
	return s.Mode, nil
}

// Mode returns the session's modes; unknown sessions report the defaults.
func (e *Engine) Mode(ctx context.Context, sessionID string) (domain.Mode, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.DefaultMode(), nil
	}
	if err != nil {
		return domain.Mode{}, err
	}
	return s.Mode, nil
}

// Session returns the session, creating it with default modes if needed.
func (e *Engine) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.LoadOrCreate(ctx, sessionID)
}

// FindSession returns the session without creating it; unknown IDs yield domain.ErrSessionNotFound.
func (e *Engine) FindSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.sessions.Load(ctx, sessionID)
}

// DeleteSession removes the session with its modes and history.
func (e *Engine) DeleteSession(ctx context.Context, sessionID string) error {
	return e.sessions.Delete(ctx, sessionID)
}

// History returns the session's history, oldest first.
func (e *Engine) History(ctx context.Context, sessionID string) ([]domain.HistoryEntry, error) {
	s, err := e.sessions.Load(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return []domain.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.History, nil
}

// DeleteHistory removes one history entry by index.
func (e *Engine) DeleteHistory(ctx context.Context, sessionID string, index int) error {
	_, err := e.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		return s.DeleteHistory(index)
	})
	if err != nil {
		return fmt.Errorf("delete history entry %d: %w", index, err)
	}
	return nil
}

// ClearHistory removes all history entries.
func (e *Engine) ClearHistory(ctx context.Context, sessionID string) error {
	_, err := e.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		s.ClearHistory()
		return nil
	})
	return err
}

// Sessions exposes the session manager for listing and deletion.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Limits returns the active numeric input bounds.
func (e *Engine) Limits() numeric.Limits {
	return e.calc.Limits()
}

// Functions lists the functions accepted in expressions.
func Functions() []expr.FunctionInfo {
	return expr.Functions()
}

// Transforms lists the plain-number transforms.
func Transforms() []TransformInfo {
	return runtime.Transforms()
}

func (e *Engine) base(t domain.EventType, sessionID string) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now().UTC(), Type: t, SessionID: sessionID}
}

func (e *Engine) emitEval(ctx context.Context, sessionID string, res domain.Result, err error, start time.Time) {
	if e.hooks.OnEvaluate == nil {
		return
	}
	e.hooks.OnEvaluate(ctx, &domain.EvalEvent{
		EventBase:  e.base(domain.EventEvaluate, sessionID),
		Expression: res.Expression,
		Canonical:  res.Canonical,
		Result:     res.Display,
		Err:        err,
		Duration:   time.Since(start),
	})
}
