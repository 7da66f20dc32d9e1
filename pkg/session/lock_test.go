package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/tally/pkg/domain"
)

// MockStore structure
type MockStore struct{}

func (m *MockStore) Save(ctx context.Context, sessionID string, s *domain.Session) error {
	return nil
}
func (m *MockStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (m *MockStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (m *MockStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(&MockStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, domain.NewSession(sid))
		_, _ = mgr.Update(ctx, sid, func(*domain.Session) error { return nil })
		_ = mgr.Delete(ctx, sid)
	}

	lockCount := len(mgr.locks)
	t.Logf("Sessions Created: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
