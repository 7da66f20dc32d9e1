package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/aretw0/tally"
	"github.com/aretw0/tally/internal/presentation/tui"
	"github.com/aretw0/tally/pkg/runner"
)

// REPLOptions controls an interactive session.
type REPLOptions struct {
	SessionID string
	// Fresh clears the session history before starting.
	Fresh    bool
	NoBanner bool
	NoColor  bool

	// In and Out default to the process stdio. A non-terminal In is read line by
	// line without banner, colour or line editing.
	In  io.Reader
	Out io.Writer
}

// RunREPL runs the read-evaluate-print loop until EOF, :quit or a signal.
func RunREPL(ctx context.Context, rt *Runtime, opts REPLOptions) error {
	cfg := rt.Config
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = cfg.Session.ID
	}

	interactive := opts.In == nil && tui.IsTerminal(os.Stdin) && tui.IsTerminal(os.Stdout)
	color := interactive && cfg.REPL.Color && !opts.NoColor

	if opts.Fresh {
		if err := rt.Engine.ClearHistory(ctx, sessionID); err != nil {
			return err
		}
	}

	reader, err := newLineReader(opts.In, interactive, cfg.REPL.HistoryFile, out)
	if err != nil {
		return err
	}

	if interactive {
		if !opts.NoBanner {
			tui.PrintBanner(out, tally.Version, color)
		}
		mode, err := rt.Engine.Mode(ctx, sessionID)
		if err != nil {
			return err
		}
		printSystemMessage(out, "Session '%s' active (%s).", sessionID, mode)
	}

	sm := runner.NewSignalManager()
	defer sm.Stop()

	r := runner.NewRunner(rt.Engine,
		runner.WithSessionID(sessionID),
		runner.WithLineReader(reader),
		runner.WithOutput(out),
		runner.WithLogger(rt.Logger),
		runner.WithTheme(tui.NewTheme(out, color)),
		runner.WithSignalManager(sm),
		runner.WithMaxInputSize(cfg.REPL.MaxInputSize),
	)

	rt.Logger.Info("session started", "session_id", sessionID, "interactive", interactive)
	err = handleExecutionError(r.Run(ctx))
	rt.Logger.Info("session ended", "session_id", sessionID, "err", err)
	return err
}

func newLineReader(in io.Reader, interactive bool, historyFile string, out io.Writer) (runner.LineReader, error) {
	if !interactive {
		if in == nil {
			in = os.Stdin
		}
		return runner.NewLineScanner(in), nil
	}
	if historyFile != "" {
		if err := os.MkdirAll(filepath.Dir(historyFile), 0o755); err != nil {
			historyFile = ""
		}
	}
	return runner.NewReadline(runner.ReadlineConfig{
		HistoryFile: historyFile,
		Stdout:      out,
	})
}
