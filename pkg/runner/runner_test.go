package runner

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tally"
)

func newTestRunner(t *testing.T, script string, opts ...Option) (*Runner, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	opts = append([]Option{
		WithLineReader(NewLineScanner(strings.NewReader(script))),
		WithOutput(out),
		WithSessionID("repl"),
	}, opts...)
	return NewRunner(tally.New(), opts...), out
}

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestRunner_Session(t *testing.T) {
	script := strings.Join([]string{
		"2^10",
		":sq",
		"0.75",
		":frac",
		":history",
		":del 1",
		":history",
		":mode",
		":quit",
		"2+2",
	}, "\n")
	r, out := newTestRunner(t, script)

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{
		"1024",
		"1048576.0",
		"0.75",
		"Mode: Fraction | π | Degrees",
		"3/4",
		"  1  2^10 = 1024",
		"  2  0.75 = 0.75",
		"deleted entry 1",
		"  1  0.75 = 0.75",
		"Mode: Fraction | π | Degrees",
	}, lines(out))
	assert.Equal(t, "3/4", r.Display())
}

func TestRunner_ErrorsDoNotEndSession(t *testing.T) {
	r, out := newTestRunner(t, "1/0\n:bogus\n:sq\nsqrt(-1)\n3*3\n")

	require.NoError(t, r.Run(context.Background()))

	got := lines(out)
	require.Len(t, got, 5)
	assert.True(t, strings.HasPrefix(got[0], "Error: ArithmeticError"), got[0])
	assert.Equal(t, "Error: unknown command :bogus (try :help)", got[1])
	assert.Equal(t, "Error: :sq needs a number", got[2])
	assert.True(t, strings.HasPrefix(got[3], "Error: "), got[3])
	assert.Equal(t, "9", got[4])
}

func TestRunner_TransformArgument(t *testing.T) {
	r, out := newTestRunner(t, ":totient 9\n:primes 100\n:factor 360\n:d2r 180\n:sci 1234.56\n")

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{"6", "25", "2^3 x 3^2 x 5", "π", "1.234560 x 10^3"}, lines(out))
}

func TestRunner_Toggles(t *testing.T) {
	r, out := newTestRunner(t, ":deg\nsin(pi/2)\n:pi\n:clear\n:history\n")

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{
		"Mode: Decimal | π | Radians",
		"1.0",
		"Mode: Decimal | Exact | Radians",
		"history cleared",
		"(no history)",
	}, lines(out))
}

func TestRunner_Execute(t *testing.T) {
	r, out := newTestRunner(t, "")
	ctx := context.Background()

	assert.True(t, r.Execute(ctx, "exit"))
	assert.True(t, r.Execute(ctx, " QUIT "))
	assert.True(t, r.Execute(ctx, ":q"))
	assert.False(t, r.Execute(ctx, "   "))
	assert.Empty(t, out.String())

	limited, out := newTestRunner(t, "", WithMaxInputSize(4))
	assert.False(t, limited.Execute(ctx, "12345+1"))
	assert.True(t, strings.HasPrefix(out.String(), "Error: InputError"), out.String())
}

func TestRunner_Help(t *testing.T) {
	var rendered string
	r, out := newTestRunner(t, ":help\n", WithTheme(Theme{
		Markdown: func(md string) (string, error) {
			rendered = md
			return "rendered\n", nil
		},
	}))

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, "rendered\n", out.String())
	assert.Contains(t, rendered, "## Commands")
	assert.Contains(t, rendered, "`:totient [x]`")
	assert.Contains(t, rendered, "`:sci [x]`")
	assert.Contains(t, rendered, "`sqrt`")
}

func TestRunner_Theme(t *testing.T) {
	wrap := func(tag string) func(string) string {
		return func(s string) string { return "<" + tag + ">" + s }
	}
	r, out := newTestRunner(t, "1+1\n1/0\n:mode\n", WithTheme(Theme{
		Result: wrap("ok"),
		Error:  wrap("err"),
		Muted:  wrap("info"),
	}))

	require.NoError(t, r.Run(context.Background()))

	got := lines(out)
	require.Len(t, got, 3)
	assert.Equal(t, "<ok>2", got[0])
	assert.True(t, strings.HasPrefix(got[1], "<err>Error: "))
	assert.Equal(t, "<info>Mode: Decimal | π | Degrees", got[2])
}

func TestRunner_CancelledContext(t *testing.T) {
	r, out := newTestRunner(t, "1+1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, r.Run(ctx))
	assert.Empty(t, out.String())
}

func TestLineScanner(t *testing.T) {
	s := NewLineScanner(strings.NewReader("a\r\nb"))

	line, err := s.Readline()
	require.NoError(t, err)
	assert.Equal(t, "a", line)

	line, err = s.Readline()
	require.NoError(t, err)
	assert.Equal(t, "b", line)

	_, err = s.Readline()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, s.Close())
}
