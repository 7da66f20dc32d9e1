package ports

import (
	"context"

	"github.com/aretw0/tally/pkg/domain"
)

// Calculator is the session-aware calculator surface driven by the presentation adapters.
type Calculator interface {
	// Evaluate runs an expression under the session's modes and records it in the history.
	Evaluate(ctx context.Context, sessionID, expression string) (domain.Result, error)

	// Calculate runs an expression under an explicit mode without touching any session.
	Calculate(ctx context.Context, expression string, mode domain.Mode) (domain.Result, error)

	// Transform applies a plain-number transform under the session's modes.
	Transform(ctx context.Context, sessionID, op, input string) (string, error)

	// Toggle flips one mode flag. When the rational flag changes and display holds a
	// plain number, the re-rendered display is returned; otherwise display comes back as is.
	Toggle(ctx context.Context, sessionID string, toggle domain.Toggle, display string) (domain.Mode, string, error)

	// Session returns a snapshot of the session, creating it with default modes if needed.
	Session(ctx context.Context, sessionID string) (*domain.Session, error)

	// DeleteHistory removes one history entry by index.
	DeleteHistory(ctx context.Context, sessionID string, index int) error

	// ClearHistory removes all history entries.
	ClearHistory(ctx context.Context, sessionID string) error
}
