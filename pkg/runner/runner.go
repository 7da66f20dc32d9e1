package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/ports"
)

// DefaultSessionID is used when no session is configured.
const DefaultSessionID = "default"

// ContentRenderer turns markdown into terminal output.
type ContentRenderer func(string) (string, error)

// Theme decorates the lines the runner prints. Nil fields print text unchanged.
type Theme struct {
	Result   func(string) string
	Error    func(string) string
	Muted    func(string) string
	Markdown ContentRenderer
}

// Runner is the interactive read-evaluate-print loop over a Calculator session.
type Runner struct {
	Engine       ports.Calculator
	Reader       LineReader
	Output       io.Writer
	SessionID    string
	Logger       *slog.Logger
	Theme        Theme
	Signals      *SignalManager
	MaxInputSize int

	// display is the last value shown, the implicit operand of transforms and :frac.
	display string
}

// NewRunner creates a runner bound to engine.
func NewRunner(engine ports.Calculator, opts ...Option) *Runner {
	r := &Runner{
		Engine:    engine,
		Output:    os.Stdout,
		SessionID: DefaultSessionID,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Reader == nil {
		r.Reader = NewLineScanner(os.Stdin)
	}
	return r
}

// Display returns the last value shown.
func (r *Runner) Display() string {
	return r.display
}

// Run reads lines until EOF, a quit command or cancellation of ctx.
// Calculation errors are printed and the loop continues.
func (r *Runner) Run(ctx context.Context) error {
	defer r.Reader.Close()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		line, err := r.Reader.Readline()
		if errors.Is(err, ErrInterrupt) {
			// Ctrl+C on a partly typed line just discards it.
			if line != "" {
				r.Signals.Continue()
				continue
			}
			if r.interrupted() {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			r.Signals.CheckRace()
			if r.Signals.Pending() {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		r.Signals.Continue()
		if quit := r.Execute(ctx, line); quit {
			return nil
		}
		// A signal delivered during evaluation counts as an interrupt.
		if r.Signals.Pending() && r.interrupted() {
			return nil
		}
	}
}

// interruptHint is shown after the first Ctrl+C at an empty prompt.
const interruptHint = "(press Ctrl+C again or type :quit to exit)"

func (r *Runner) interrupted() bool {
	if r.Signals.Interrupt() {
		return true
	}
	r.printInfo(interruptHint)
	return false
}

// Execute handles one line of input and reports whether the session should end.
func (r *Runner) Execute(ctx context.Context, line string) bool {
	clean, err := SanitizeInputLimit(line, r.MaxInputSize)
	if err != nil {
		r.printError(err)
		return false
	}
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return false
	}

	switch strings.ToLower(clean) {
	case "quit", "exit":
		return true
	}

	if strings.HasPrefix(clean, ":") {
		name, arg, _ := strings.Cut(strings.TrimPrefix(clean, ":"), " ")
		return r.command(ctx, strings.ToLower(name), strings.TrimSpace(arg))
	}

	res, err := r.Engine.Evaluate(ctx, r.SessionID, clean)
	if err != nil {
		r.printError(err)
		return false
	}
	r.display = res.Display
	r.printResult(res.Display)
	return false
}

func (r *Runner) command(ctx context.Context, name, arg string) bool {
	for _, c := range builtins() {
		if !c.matches(name) {
			continue
		}
		if c.quit {
			return true
		}
		if err := c.run(ctx, r, arg); err != nil {
			r.printError(err)
		}
		return false
	}

	if err := r.transform(ctx, name, arg); err != nil {
		if errors.Is(err, domain.ErrUnknownTransform) {
			err = fmt.Errorf("unknown command :%s (try :help)", name)
		}
		r.printError(err)
	}
	return false
}

func (r *Runner) transform(ctx context.Context, op, arg string) error {
	input := arg
	if input == "" {
		input = r.display
	}
	if input == "" {
		return fmt.Errorf(":%s needs a number", op)
	}
	out, err := r.Engine.Transform(ctx, r.SessionID, op, input)
	if err != nil {
		return err
	}
	r.display = out
	r.printResult(out)
	return nil
}

func (r *Runner) printResult(s string) {
	if r.Theme.Result != nil {
		s = r.Theme.Result(s)
	}
	fmt.Fprintln(r.Output, s)
}

func (r *Runner) printInfo(s string) {
	if r.Theme.Muted != nil {
		s = r.Theme.Muted(s)
	}
	fmt.Fprintln(r.Output, s)
}

func (r *Runner) printError(err error) {
	if domain.KindOf(err) == "" {
		r.Logger.Warn("command failed", "session_id", r.SessionID, "err", err)
	}
	s := "Error: " + err.Error()
	if r.Theme.Error != nil {
		s = r.Theme.Error(s)
	}
	fmt.Fprintln(r.Output, s)
}

func (r *Runner) printMarkdown(md string) {
	if r.Theme.Markdown != nil {
		if out, err := r.Theme.Markdown(md); err == nil {
			fmt.Fprint(r.Output, out)
			return
		}
	}
	fmt.Fprint(r.Output, md)
}
