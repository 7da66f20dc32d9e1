package runner

import (
	"io"
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

// WithSessionID selects the session whose modes and history the REPL uses.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.SessionID = id
		}
	}
}

// WithLineReader configures the input source.
func WithLineReader(reader LineReader) Option {
	return func(r *Runner) {
		r.Reader = reader
	}
}

// WithOutput configures where results are printed.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		r.Output = w
	}
}

// WithTheme configures output styling and markdown rendering.
func WithTheme(theme Theme) Option {
	return func(r *Runner) {
		r.Theme = theme
	}
}

// WithSignalManager makes Run ask for a second Ctrl+C before leaving and
// tell an interrupt apart from a broken input stream.
func WithSignalManager(sm *SignalManager) Option {
	return func(r *Runner) {
		r.Signals = sm
	}
}

// WithMaxInputSize overrides the per-line size limit.
func WithMaxInputSize(n int) Option {
	return func(r *Runner) {
		r.MaxInputSize = n
	}
}
