package session_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tally/pkg/adapters/memory"
	"github.com/aretw0/tally/pkg/adapters/redis"
	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	time.Sleep(2 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[sessionID] = sess.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	time.Sleep(2 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[sessionID]; ok {
		return sess.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "race-test"

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			_, err := manager.Update(ctx, id, func(s *domain.Session) error {
				s.Record(domain.HistoryEntry{Expression: strconv.Itoa(val), Result: strconv.Itoa(val)}, 0)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, sess.History, writers, "read-modify-write cycles must not lose updates")
}

func TestManager_LoadOrCreate(t *testing.T) {
	manager := session.NewManager(&SlowStore{})
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := manager.LoadOrCreate(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, sess)
		}()
	}
	wg.Wait()

	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultMode(), sess.Mode)
}

func TestManager_UpdateErrorDiscardsChanges(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Update(ctx, "s1", func(s *domain.Session) error {
		s.Mode = s.Mode.TogglePi()
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = manager.Update(ctx, "s1", func(s *domain.Session) error {
		s.Mode = s.Mode.TogglePi()
		return boom
	})
	assert.ErrorIs(t, err, boom)

	sess, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, sess.Mode.Pi)
}

func TestManager_RejectsInvalidIDs(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	_, err := manager.Load(ctx, "../etc")
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)
	_, err = manager.Update(ctx, "", func(*domain.Session) error { return nil })
	assert.ErrorIs(t, err, domain.ErrInvalidSessionID)
	assert.ErrorIs(t, manager.Delete(ctx, "a b"), domain.ErrInvalidSessionID)
}

func TestManager_DistributedLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	manager := session.NewManager(
		redis.NewFromClient(client),
		session.WithLocker(redis.NewLocker(client, "test:")),
		session.WithLockTTL(5*time.Second),
	)
	ctx := context.Background()

	_, err = manager.Update(ctx, "shared", func(s *domain.Session) error {
		assert.True(t, mr.Exists("test:lock:shared"), "distributed lock should be held during the update")
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists("test:lock:shared"), "distributed lock should be released afterwards")
}
