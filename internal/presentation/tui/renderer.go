package tui

import (
	"github.com/charmbracelet/glamour"

	"github.com/aretw0/tally/pkg/runner"
)

// NewRenderer returns a markdown renderer backed by glamour.
// With color off, or if glamour cannot start, markdown is returned as is.
func NewRenderer(color bool) runner.ContentRenderer {
	if !color {
		return plain
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return plain
	}
	return r.Render
}

func plain(markdown string) (string, error) {
	return markdown, nil
}
