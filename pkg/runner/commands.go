package runner

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/tally"
	"github.com/aretw0/tally/pkg/domain"
)

type command struct {
	name    string
	aliases []string
	usage   string
	summary string
	quit    bool
	run     func(ctx context.Context, r *Runner, arg string) error
}

func (c command) matches(name string) bool {
	if c.name == name {
		return true
	}
	for _, a := range c.aliases {
		if a == name {
			return true
		}
	}
	return false
}

// builtins are the ':' commands that are not transforms.
func builtins() []command {
	return []command{
		{name: "deg", aliases: []string{"rad", "angle"}, usage: ":deg", summary: "toggle degrees / radians", run: toggle(domain.ToggleAngle)},
		{name: "frac", aliases: []string{"rational"}, usage: ":frac", summary: "toggle fraction / decimal display", run: toggle(domain.ToggleRational)},
		{name: "pi", usage: ":pi", summary: "toggle π-multiple display", run: toggle(domain.TogglePi)},
		{name: "mode", usage: ":mode", summary: "show the current modes", run: showMode},
		{name: "history", aliases: []string{"h"}, usage: ":history", summary: "list previous calculations", run: showHistory},
		{name: "del", usage: ":del N", summary: "delete history entry N", run: deleteEntry},
		{name: "clear", usage: ":clear", summary: "clear the history", run: clearHistory},
		{name: "help", aliases: []string{"?"}, usage: ":help", summary: "show this help", run: showHelp},
		{name: "quit", aliases: []string{"exit", "q"}, usage: ":quit", summary: "leave", quit: true},
	}
}

func toggle(t domain.Toggle) func(context.Context, *Runner, string) error {
	return func(ctx context.Context, r *Runner, _ string) error {
		mode, display, err := r.Engine.Toggle(ctx, r.SessionID, t, r.display)
		if err != nil {
			return err
		}
		r.printInfo("Mode: " + mode.String())
		if t == domain.ToggleRational && display != "" && display != r.display {
			r.display = display
			r.printResult(display)
		}
		return nil
	}
}

func showMode(ctx context.Context, r *Runner, _ string) error {
	s, err := r.Engine.Session(ctx, r.SessionID)
	if err != nil {
		return err
	}
	r.printInfo("Mode: " + s.Mode.String())
	return nil
}

func showHistory(ctx context.Context, r *Runner, _ string) error {
	s, err := r.Engine.Session(ctx, r.SessionID)
	if err != nil {
		return err
	}
	if len(s.History) == 0 {
		r.printInfo("(no history)")
		return nil
	}
	for i, h := range s.History {
		fmt.Fprintf(r.Output, "%3d  %s = %s\n", i+1, h.Expression, h.Result)
	}
	return nil
}

func deleteEntry(ctx context.Context, r *Runner, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf(":del needs an entry number, got %q", arg)
	}
	if err := r.Engine.DeleteHistory(ctx, r.SessionID, n-1); err != nil {
		return err
	}
	r.printInfo(fmt.Sprintf("deleted entry %d", n))
	return nil
}

func clearHistory(ctx context.Context, r *Runner, _ string) error {
	if err := r.Engine.ClearHistory(ctx, r.SessionID); err != nil {
		return err
	}
	r.printInfo("history cleared")
	return nil
}

func showHelp(_ context.Context, r *Runner, _ string) error {
	r.printMarkdown(HelpMarkdown())
	return nil
}

// HelpMarkdown documents the REPL commands, transforms and functions.
func HelpMarkdown() string {
	var b strings.Builder
	b.WriteString("# tally\n\nType an expression and press Enter, e.g. `2^10`, `sin(30)`, `5!`.\n\n")

	b.WriteString("## Commands\n\n| Command | Description |\n|---|---|\n")
	for _, c := range builtins() {
		fmt.Fprintf(&b, "| `%s` | %s |\n", c.usage, c.summary)
	}

	b.WriteString("\n## Transforms\n\nApplied to the argument, or to the last result when none is given.\n\n| Command | Input | Description |\n|---|---|---|\n")
	for _, t := range tally.Transforms() {
		fmt.Fprintf(&b, "| `:%s [x]` | %s | %s |\n", shortName(t), t.Input, t.Doc)
	}

	b.WriteString("\n## Functions\n\n| Function | Arguments | Description |\n|---|---|---|\n")
	for _, f := range tally.Functions() {
		doc := f.Doc
		if f.AngleAware {
			doc += " (follows the angle mode)"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", f.Name, f.Arity, doc)
	}
	return b.String()
}

// replNames are the short ':' spellings of the transforms; any alias is accepted too.
var replNames = map[string]string{
	"prime_count": "primes",
	"square":      "sq",
	"reciprocal":  "inv",
	"factorize":   "factor",
	"deg_to_rad":  "d2r",
	"rad_to_deg":  "r2d",
	"scientific":  "sci",
}

func shortName(t tally.TransformInfo) string {
	if name, ok := replNames[string(t.Op)]; ok {
		return name
	}
	return string(t.Op)
}
