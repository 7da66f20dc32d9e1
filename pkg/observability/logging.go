package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tally/pkg/domain"
)

// LoggingHooks logs engine events: successes at debug level, calculation errors at
// info level and infrastructure failures at warn level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvaluate: func(ctx context.Context, e *domain.EvalEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"expression", e.Expression,
				"canonical", e.Canonical,
				"duration", e.Duration,
			}
			logResult(ctx, logger, "evaluate", e.Result, e.Err, attrs)
		},
		OnTransform: func(ctx context.Context, e *domain.TransformEvent) {
			attrs := []any{
				"session_id", e.SessionID,
				"op", e.Op,
				"input", e.Input,
				"duration", e.Duration,
			}
			logResult(ctx, logger, "transform", e.Result, e.Err, attrs)
		},
		OnToggle: func(ctx context.Context, e *domain.ToggleEvent) {
			logger.DebugContext(ctx, "toggle",
				"session_id", e.SessionID,
				"flag", e.Toggle,
				"mode", e.Mode.String(),
			)
		},
	}
}

func logResult(ctx context.Context, logger *slog.Logger, msg, result string, err error, attrs []any) {
	switch {
	case err == nil:
		logger.DebugContext(ctx, msg, append(attrs, "result", result)...)
	case domain.KindOf(err) != "":
		logger.InfoContext(ctx, msg+" rejected", append(attrs, "kind", domain.KindOf(err), "err", err)...)
	default:
		logger.WarnContext(ctx, msg+" failed", append(attrs, "err", err)...)
	}
}
