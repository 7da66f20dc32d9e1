package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/tally/pkg/domain"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Hooks(t *testing.T) {
	m := NewMetrics()
	hooks := m.Hooks()
	ctx := context.Background()

	hooks.OnEvaluate(ctx, &domain.EvalEvent{Expression: "1+1", Result: "2", Duration: time.Millisecond})
	hooks.OnEvaluate(ctx, &domain.EvalEvent{Expression: "1/0", Err: domain.NewError(domain.KindArithmetic, "division by zero")})
	hooks.OnEvaluate(ctx, &domain.EvalEvent{Expression: "2", Err: errors.New("store down")})
	hooks.OnTransform(ctx, &domain.TransformEvent{Op: "square", Input: "3", Result: "9.0"})
	hooks.OnToggle(ctx, &domain.ToggleEvent{Toggle: domain.TogglePi})
	hooks.OnToggle(ctx, &domain.ToggleEvent{Toggle: domain.TogglePi})

	assert.Equal(t, 1.0, gather(t, m, "tally_evaluations_total", "outcome", "ok"))
	assert.Equal(t, 1.0, gather(t, m, "tally_evaluations_total", "outcome", "ArithmeticError"))
	assert.Equal(t, 1.0, gather(t, m, "tally_evaluations_total", "outcome", "internal"))
	assert.Equal(t, 1.0, gather(t, m, "tally_transforms_total", "op", "square"))
	assert.Equal(t, 2.0, gather(t, m, "tally_mode_toggles_total", "flag", "pi"))
	assert.Equal(t, 3.0, gather(t, m, "tally_evaluation_duration_seconds", "", ""))
}

// gather returns the counter value (or histogram sample count) of the series
// of name whose label matches value; an empty label matches any series.
func gather(t *testing.T, m *Metrics, name, label, value string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			if label != "" && !hasLabel(metric.GetLabel(), label, value) {
				continue
			}
			if h := metric.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func hasLabel(pairs []*dto.LabelPair, name, value string) bool {
	for _, p := range pairs {
		if p.GetName() == name && p.GetValue() == value {
			return true
		}
	}
	return false
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.Hooks().OnEvaluate(context.Background(), &domain.EvalEvent{Result: "1"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tally_evaluations_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := LoggingHooks(logger)
	ctx := context.Background()

	hooks.OnEvaluate(ctx, &domain.EvalEvent{Expression: "2^3", Canonical: "2**3", Result: "8"})
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "result=8")

	buf.Reset()
	hooks.OnTransform(ctx, &domain.TransformEvent{Op: "totient", Input: "x", Err: domain.NewError(domain.KindInputType, "bad")})
	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "kind=InputTypeError")

	buf.Reset()
	hooks.OnEvaluate(ctx, &domain.EvalEvent{Expression: "1", Err: errors.New("store down")})
	assert.Contains(t, buf.String(), "level=WARN")

	buf.Reset()
	hooks.OnToggle(ctx, &domain.ToggleEvent{Toggle: domain.ToggleAngle, Mode: domain.DefaultMode()})
	assert.Contains(t, buf.String(), "flag=angle")
}
