package cli

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tally/internal/config"
	"github.com/aretw0/tally/internal/logging"
)

func newRuntime(t *testing.T, cfg *config.Config) *Runtime {
	t.Helper()
	rt, err := NewRuntime(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close() })
	return rt
}

func TestNewRuntime_Stores(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		rt := newRuntime(t, config.Default())
		_, err := rt.Engine.Evaluate(ctx, "m", "1+1")
		require.NoError(t, err)
		ids, err := rt.Store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"m"}, ids)
	})

	t.Run("file", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Kind = config.StoreFile
		cfg.Store.Path = t.TempDir()
		rt := newRuntime(t, cfg)

		_, err := rt.Engine.Evaluate(ctx, "f", "2*3")
		require.NoError(t, err)

		again := newRuntime(t, cfg)
		history, err := again.Engine.History(ctx, "f")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "6", history[0].Result)
	})

	t.Run("redis with lock", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default()
		cfg.Store.Kind = config.StoreRedis
		cfg.Redis.Addr = mr.Addr()
		cfg.Redis.Lock = true
		rt := newRuntime(t, cfg)

		_, err := rt.Engine.Evaluate(ctx, "r", "7")
		require.NoError(t, err)
		assert.True(t, mr.Exists("tally:session:r"))
	})

	t.Run("file encrypted", func(t *testing.T) {
		dir := t.TempDir()
		cfg := config.Default()
		cfg.Store.Kind = config.StoreFile
		cfg.Store.Path = dir
		cfg.Store.Key = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))
		rt := newRuntime(t, cfg)

		_, err := rt.Engine.Evaluate(ctx, "secret", "12345+1")
		require.NoError(t, err)

		raw, err := os.ReadFile(filepath.Join(dir, "secret.json"))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "12345")
		assert.Contains(t, string(raw), `"sealed"`)

		history, err := rt.Engine.History(ctx, "secret")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "12346", history[0].Result)
	})

	t.Run("bad key", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Key = "short"
		_, err := NewRuntime(ctx, cfg, logging.NewNop())
		assert.Error(t, err)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Kind = config.StoreRedis
		cfg.Redis.Addr = "127.0.0.1:1"
		_, err := NewRuntime(ctx, cfg, logging.NewNop())
		assert.Error(t, err)
	})
}

func TestNewRuntime_Metrics(t *testing.T) {
	rt := newRuntime(t, config.Default())
	_, _ = rt.Engine.Evaluate(context.Background(), "m", "1/0")

	families, err := rt.Metrics.Registry().Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "tally_evaluations_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestRunREPL_Piped(t *testing.T) {
	rt := newRuntime(t, config.Default())
	var out bytes.Buffer

	err := RunREPL(context.Background(), rt, REPLOptions{
		SessionID: "piped",
		In:        strings.NewReader("6x7\n:sq\n:history\n"),
		Out:       &out,
	})
	require.NoError(t, err)

	assert.Equal(t, "42\n1764.0\n  1  6x7 = 42\n", out.String())
}

func TestRunREPL_Fresh(t *testing.T) {
	rt := newRuntime(t, config.Default())
	ctx := context.Background()
	_, err := rt.Engine.Evaluate(ctx, "s", "1+1")
	require.NoError(t, err)

	var out bytes.Buffer
	err = RunREPL(ctx, rt, REPLOptions{SessionID: "s", Fresh: true, In: strings.NewReader(":history\n"), Out: &out})
	require.NoError(t, err)
	assert.Equal(t, "(no history)\n", out.String())
}

func TestNewLogger(t *testing.T) {
	_, err := NewLogger(config.LogConfig{Level: "warn", Format: "json"}, false)
	assert.NoError(t, err)

	logger, err := NewLogger(config.LogConfig{Level: "error", Format: "text"}, true)
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), -4))

	_, err = NewLogger(config.LogConfig{Level: "nope", Format: "text"}, false)
	assert.Error(t, err)
}

func TestHandleExecutionError(t *testing.T) {
	assert.NoError(t, handleExecutionError(nil))
	assert.NoError(t, handleExecutionError(context.Canceled))
	assert.Error(t, handleExecutionError(assert.AnError))
}
