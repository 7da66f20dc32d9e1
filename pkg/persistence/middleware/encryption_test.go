package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/tally/pkg/adapters/memory"
	"github.com/aretw0/tally/pkg/domain"
	"github.com/aretw0/tally/pkg/persistence/middleware"
	"github.com/aretw0/tally/pkg/ports"
	contract "github.com/aretw0/tally/pkg/ports/tests"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, middleware.KeySize)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleSession(id string) *domain.Session {
	s := domain.NewSession(id)
	s.Mode = s.Mode.ToggleRational()
	s.Record(domain.HistoryEntry{Expression: "1/3+1/6", Result: "1/2", At: time.Now().UTC()}, 0)
	return s
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	contract.SessionStoreContractTest(t, mw(memory.NewStore()))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)

	ctx := context.Background()
	original := sampleSession("calc")
	require.NoError(t, secure.Save(ctx, "calc", original))

	stored, err := underlying.Load(ctx, "calc")
	require.NoError(t, err)
	assert.Equal(t, "calc", stored.ID)
	assert.NotEmpty(t, stored.Sealed)
	assert.Empty(t, stored.History, "history must not be stored in clear")
	assert.NotContains(t, stored.Sealed, "1/3+1/6")

	loaded, err := secure.Load(ctx, "calc")
	require.NoError(t, err)
	assert.Equal(t, original.Mode, loaded.Mode)
	require.Len(t, loaded.History, 1)
	assert.Equal(t, "1/2", loaded.History[0].Result)
	assert.Empty(t, loaded.Sealed)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	storeOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, storeOld.Save(ctx, "rot", sampleSession("rot")))

	storeNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := storeNew.Load(ctx, "rot")
	require.NoError(t, err, "fallback key must decrypt")
	assert.True(t, loaded.Mode.Rational)

	require.NoError(t, storeNew.Save(ctx, "rot", loaded))
	_, err = storeOld.Load(ctx, "rot")
	assert.Error(t, err, "data re-sealed with the new key must not open with the old one")
}

func TestEncryptionMiddleware_Plaintext(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, underlying.Save(ctx, "plain", sampleSession("plain")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	assert.ErrorIs(t, err, middleware.ErrNotSealed)
}

func TestEncryptionMiddleware_EnvelopeBoundToID(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "alice", sampleSession("alice")))
	envelope, err := underlying.Load(ctx, "alice")
	require.NoError(t, err)

	// An envelope copied under another ID must not open there.
	envelope.ID = "mallory"
	require.NoError(t, underlying.Save(ctx, "mallory", envelope))
	_, err = secure.Load(ctx, "mallory")
	assert.Error(t, err)

	loaded, err := secure.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.ID)
}

func TestEncryptionMiddleware_SessionIDMismatch(t *testing.T) {
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(memory.NewStore())
	ctx := context.Background()

	require.NoError(t, secure.Save(ctx, "bob", sampleSession("carol")))
	_, err := secure.Load(ctx, "bob")
	assert.ErrorIs(t, err, middleware.ErrSessionMismatch)
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	assert.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	})
}

func TestChain(t *testing.T) {
	var order []string
	tag := func(name string) middleware.Middleware {
		return func(next ports.SessionStore) ports.SessionStore {
			order = append(order, name)
			return next
		}
	}
	middleware.Chain(memory.NewStore(), tag("outer"), tag("inner"))
	assert.Equal(t, []string{"inner", "outer"}, order, "inner wraps the store first")
}
