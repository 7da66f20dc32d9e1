package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEvaluate  EventType = "evaluate"
	EventTransform EventType = "transform"
	EventToggle    EventType = "toggle"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// EvalEvent describes one pass through the evaluation pipeline.
type EvalEvent struct {
	EventBase
	Expression string        `json:"expression"`
	Canonical  string        `json:"canonical,omitempty"`
	Result     string        `json:"result,omitempty"`
	Err        error         `json:"-"`
	Duration   time.Duration `json:"duration"`
}

// TransformEvent describes a plain-number transformation.
type TransformEvent struct {
	EventBase
	Op       string        `json:"op"`
	Input    string        `json:"input"`
	Result   string        `json:"result,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// ToggleEvent describes a mode flip.
type ToggleEvent struct {
	EventBase
	Toggle Toggle `json:"toggle"`
	Mode   Mode   `json:"mode"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnEvaluate  func(context.Context, *EvalEvent)
	OnTransform func(context.Context, *TransformEvent)
	OnToggle    func(context.Context, *ToggleEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnEvaluate: func(ctx context.Context, e *EvalEvent) {
			if h.OnEvaluate != nil {
				h.OnEvaluate(ctx, e)
			}
			if other.OnEvaluate != nil {
				other.OnEvaluate(ctx, e)
			}
		},
		OnTransform: func(ctx context.Context, e *TransformEvent) {
			if h.OnTransform != nil {
				h.OnTransform(ctx, e)
			}
			if other.OnTransform != nil {
				other.OnTransform(ctx, e)
			}
		},
		OnToggle: func(ctx context.Context, e *ToggleEvent) {
			if h.OnToggle != nil {
				h.OnToggle(ctx, e)
			}
			if other.OnToggle != nil {
				other.OnToggle(ctx, e)
			}
		},
	}
}
