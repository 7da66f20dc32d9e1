package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"  _        _ _       ", "#34d399"},
	{" | |_ __ _| | |_  _  ", "#2dd4bf"},
	{" |  _/ _` | | | || | ", "#22d3ee"},
	{"  \\__\\__,_|_|_|\\_, | ", "#38bdf8"},
	{"               |__/  ", "#60a5fa"},
}

// PrintBanner writes the ASCII art banner, the version and a short hint to w.
func PrintBanner(w io.Writer, version string, color bool) {
	out := output(w, color)

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	hint := out.String(fmt.Sprintf(" v%s  ·  :help for commands, :quit to leave", version)).Faint()
	fmt.Fprintln(w, hint)
	fmt.Fprintln(w)
}

func output(w io.Writer, color bool) *termenv.Output {
	if !color {
		return termenv.NewOutput(w, termenv.WithProfile(termenv.Ascii))
	}
	return termenv.NewOutput(w)
}
