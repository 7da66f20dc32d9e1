package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tally"
)

type readStep struct {
	line string
	err  error
}

// scriptedReader replays lines and errors, then reports io.EOF.
type scriptedReader struct {
	steps []readStep
}

func (s *scriptedReader) Readline() (string, error) {
	if len(s.steps) == 0 {
		return "", io.EOF
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step.line, step.err
}

func (s *scriptedReader) Close() error { return nil }

func runScripted(t *testing.T, sm *SignalManager, steps ...readStep) (*scriptedReader, string) {
	t.Helper()
	reader := &scriptedReader{steps: steps}
	out := &bytes.Buffer{}
	r := NewRunner(tally.New(),
		WithLineReader(reader),
		WithOutput(out),
		WithSessionID("signals"),
		WithSignalManager(sm),
	)
	require.NoError(t, r.Run(context.Background()))
	return reader, out.String()
}

func TestSignalManager_InterruptCount(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	assert.False(t, sm.Interrupt(), "first Ctrl+C only warns")
	assert.True(t, sm.Interrupt(), "second Ctrl+C in a row quits")

	sm.Continue()
	assert.False(t, sm.Interrupt(), "input in between starts the count over")
}

func TestSignalManager_InterruptRearms(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	sm.cancel()
	assert.True(t, sm.Pending())
	old := sm.Context()

	sm.Interrupt()
	assert.False(t, sm.Pending())
	assert.NotSame(t, old, sm.Context())
	assert.NoError(t, sm.Context().Err())
}

func TestSignalManager_Nil(t *testing.T) {
	var sm *SignalManager
	assert.False(t, sm.Pending())
	assert.True(t, sm.Interrupt())
	assert.NotPanics(t, sm.Continue)
	assert.NotPanics(t, sm.CheckRace)
}

func TestSignalManager_CheckRace(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	start := time.Now()
	sm.CheckRace()
	assert.GreaterOrEqual(t, time.Since(start), signalGrace)

	sm.cancel()
	start = time.Now()
	sm.CheckRace()
	assert.Less(t, time.Since(start), signalGrace)
}

func TestRunner_CtrlCTwiceQuits(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	reader, out := runScripted(t, sm,
		readStep{err: ErrInterrupt},
		readStep{err: ErrInterrupt},
		readStep{line: "2+2"},
	)

	assert.Equal(t, interruptHint+"\n", out)
	assert.Len(t, reader.steps, 1, "input after the second Ctrl+C is never read")
}

func TestRunner_CtrlCThenInputContinues(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	_, out := runScripted(t, sm,
		readStep{err: ErrInterrupt},
		readStep{line: "2+2"},
		readStep{err: ErrInterrupt},
		readStep{line: "3*3"},
	)

	assert.Equal(t, []string{interruptHint, "4", interruptHint, "9"},
		strings.Split(strings.TrimRight(out, "\n"), "\n"))
}

func TestRunner_CtrlCDiscardsPartialLine(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()

	_, out := runScripted(t, sm,
		readStep{err: ErrInterrupt},
		readStep{line: "2+", err: ErrInterrupt},
		readStep{err: ErrInterrupt},
		readStep{line: "5-1"},
	)

	assert.Equal(t, []string{interruptHint, interruptHint, "4"},
		strings.Split(strings.TrimRight(out, "\n"), "\n"))
}

func TestRunner_CtrlCWithoutManagerQuits(t *testing.T) {
	reader, out := runScripted(t, nil,
		readStep{err: ErrInterrupt},
		readStep{line: "2+2"},
	)

	assert.Empty(t, out)
	assert.Len(t, reader.steps, 1)
}

func TestRunner_ReadErrorAfterSignal(t *testing.T) {
	sm := NewSignalManager()
	defer sm.Stop()
	sm.cancel()

	_, out := runScripted(t, sm, readStep{err: errors.New("stdin closed")})
	assert.Empty(t, out)
}
