package runner

import (
	"bufio"
	"io"
	"strings"

	"github.com/aretw0/tally"
	"github.com/chzyer/readline"
)

// DefaultPrompt is shown before every line in interactive mode.
const DefaultPrompt = "> "

// ErrInterrupt is returned by a LineReader when the user presses Ctrl+C.
var ErrInterrupt = readline.ErrInterrupt

// LineReader supplies one line of input at a time.
// io.EOF ends the session; ErrInterrupt abandons the current line.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// ReadlineConfig configures the interactive line editor.
type ReadlineConfig struct {
	Prompt      string
	HistoryFile string
	Stdin       io.ReadCloser
	Stdout      io.Writer
}

// NewReadline creates a terminal line editor with history and completion of ':' commands.
func NewReadline(cfg ReadlineConfig) (LineReader, error) {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	rc := &readline.Config{
		Prompt:          cfg.Prompt,
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	}
	if cfg.Stdin != nil {
		rc.Stdin = cfg.Stdin
	}
	if cfg.Stdout != nil {
		rc.Stdout = cfg.Stdout
	}
	rl, err := readline.NewEx(rc)
	if err != nil {
		return nil, err
	}
	return rl, nil
}

func completer() readline.AutoCompleter {
	var items []readline.PrefixCompleterInterface
	for _, c := range builtins() {
		items = append(items, readline.PcItem(":"+c.name))
	}
	for _, t := range tally.Transforms() {
		items = append(items, readline.PcItem(":"+shortName(t)))
	}
	return readline.NewPrefixCompleter(items...)
}

// lineScanner reads newline-separated input without any terminal handling.
// It backs piped and scripted sessions.
type lineScanner struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// NewLineScanner wraps r as a LineReader. Lines are returned without the trailing newline.
func NewLineScanner(r io.Reader) LineReader {
	s := &lineScanner{scanner: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

func (s *lineScanner) Readline() (string, error) {
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(s.scanner.Text(), "\r"), nil
}

func (s *lineScanner) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
