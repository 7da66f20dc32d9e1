package tui

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/tally/pkg/runner"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// NewTheme styles REPL output for w. With color off only markdown rendering is plain too.
func NewTheme(w io.Writer, color bool) runner.Theme {
	out := output(w, color)
	style := func(hex string, bold bool) func(string) string {
		return func(s string) string {
			st := out.String(s).Foreground(out.Color(hex))
			if bold {
				st = st.Bold()
			}
			return st.String()
		}
	}
	return runner.Theme{
		Result:   style("#34d399", true),
		Error:    style("#f87171", false),
		Muted:    func(s string) string { return out.String(s).Faint().String() },
		Markdown: NewRenderer(color),
	}
}
