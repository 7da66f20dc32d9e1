package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SessionStoreContractTest is a reusable test suite that verifies if an adapter complies with ports.SessionStore.
func SessionStoreContractTest(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		session.Mode = session.Mode.ToggleRational().ToggleAngleUnit()
		session.Record(domain.HistoryEntry{Expression: "1/3", Result: "1/3", At: time.Now().UTC()}, 0)

		require.NoError(t, store.Save(ctx, sessionID, session), "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.ID)
		assert.Equal(t, session.Mode, loaded.Mode)
		require.Len(t, loaded.History, 1)
		assert.Equal(t, "1/3", loaded.History[0].Expression)
		assert.Equal(t, "1/3", loaded.History[0].Result)
	})

	t.Run("Save overwrites", func(t *testing.T) {
		session := domain.NewSession(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, session))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, loaded.History)
		assert.Equal(t, domain.DefaultMode(), loaded.Mode)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sessionID, domain.NewSession(sessionID)))

		require.NoError(t, store.Delete(ctx, sessionID), "Delete should not return error")

		_, err := store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, sessionID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSession(id1)))
		require.NoError(t, store.Save(ctx, id2, domain.NewSession(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
