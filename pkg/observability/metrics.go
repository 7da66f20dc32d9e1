package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/tally/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "tally"

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	evalSeconds prometheus.Histogram
	transforms  *prometheus.CounterVec
	toggles     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry,
// together with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "evaluations_total",
				Help:      "Expression evaluations by outcome (ok or the error kind).",
			},
			[]string{"outcome"},
		),
		evalSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "evaluation_duration_seconds",
				Help:      "Time spent evaluating expressions.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
		),
		transforms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "transforms_total",
				Help:      "Plain-number transforms by op and outcome.",
			},
			[]string{"op", "outcome"},
		),
		toggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "mode_toggles_total",
				Help:      "Mode flag flips by flag.",
			},
			[]string{"flag"},
		),
	}
	m.registry.MustRegister(
		m.evaluations,
		m.evalSeconds,
		m.transforms,
		m.toggles,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Hooks returns lifecycle hooks that record engine events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvaluate: func(_ context.Context, e *domain.EvalEvent) {
			m.evaluations.WithLabelValues(outcome(e.Err)).Inc()
			m.evalSeconds.Observe(e.Duration.Seconds())
		},
		OnTransform: func(_ context.Context, e *domain.TransformEvent) {
			m.transforms.WithLabelValues(e.Op, outcome(e.Err)).Inc()
		},
		OnToggle: func(_ context.Context, e *domain.ToggleEvent) {
			m.toggles.WithLabelValues(string(e.Toggle)).Inc()
		},
	}
}

// outcome labels a result: "ok", the calculation error kind, or "internal".
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if kind := domain.KindOf(err); kind != "" {
		return string(kind)
	}
	return "internal"
}
