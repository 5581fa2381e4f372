package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
	"github.com/MKhiriev/go-auth-keeper/internal/syncer"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// TestSessionService_LoginRestoreLogout runs the session against a real
// engine writing to in-memory backends.
func TestSessionService_LoginRestoreLogout(t *testing.T) {
	ctx := context.Background()
	primary := store.NewMemoryBackend()
	secondary := store.NewMemoryBackend()

	cfg := models.SyncConfig{
		DebounceDelay:         time.Hour,
		HighPriorityDelay:     time.Hour,
		RetryDelay:            time.Hour,
		BatchSize:             5,
		MinSuccessfulBackends: 1,
	}
	chain := syncer.NewChain(ctx, &store.Backends{Primary: primary, Secondary: secondary}, cfg, logger.Nop())
	engine := syncer.NewEngine(cfg, chain)
	t.Cleanup(engine.Close)

	svc := NewSessionService(engine, chain, logger.Nop())
	user := testUser()

	result, err := svc.Login(ctx, "opaque-access", "opaque-refresh", user)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.FallbacksUsed)

	// profile and timestamp were flushed by the forced pass
	stored, err := secondary.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, len(models.AllFields))
	assert.Zero(t, svc.Stats(ctx).PendingOperations)

	state, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "opaque-access", state.AccessToken)
	assert.Equal(t, "opaque-refresh", state.RefreshToken)
	require.NotNil(t, state.User)
	assert.Equal(t, user.Login, state.User.Login)
	assert.False(t, state.SyncedAt.IsZero())
	assert.Equal(t, store.MemoryBackendName, state.Source)

	// a pending refresh is discarded by logout
	require.NoError(t, svc.RefreshTokens(ctx, "a2", "r2"))
	require.NoError(t, svc.Logout(ctx))
	assert.Zero(t, svc.Stats(ctx).PendingOperations)

	_, err = svc.Restore(ctx)
	require.ErrorIs(t, err, ErrNoStoredState)
}

// brokenBackend is an in-memory backend that rejects writes once broken.
type brokenBackend struct {
	*store.MemoryBackend
	name   string
	broken bool
}

func (b *brokenBackend) Name() string { return b.name }

func (b *brokenBackend) Write(ctx context.Context, p models.SyncPayload) error {
	if b.broken {
		return errors.New("database is locked")
	}
	return b.MemoryBackend.Write(ctx, p)
}

func TestSessionService_RestoreAfterPrimaryFailure(t *testing.T) {
	ctx := context.Background()
	primary := &brokenBackend{MemoryBackend: store.NewMemoryBackend(), name: store.SQLiteBackendName}
	secondary := &brokenBackend{MemoryBackend: store.NewMemoryBackend(), name: store.CookieBackendName}

	cfg := models.SyncConfig{
		DebounceDelay:         time.Hour,
		HighPriorityDelay:     time.Hour,
		RetryDelay:            time.Hour,
		BatchSize:             5,
		MinSuccessfulBackends: 1,
	}
	chain := syncer.NewChain(ctx, &store.Backends{Primary: primary, Secondary: secondary}, cfg, logger.Nop())
	engine := syncer.NewEngine(cfg, chain)
	t.Cleanup(engine.Close)

	svc := NewSessionService(engine, chain, logger.Nop())

	_, err := svc.Login(ctx, "a-old", "r-old", testUser())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	primary.broken = true
	require.NoError(t, svc.RefreshTokens(ctx, "a-new", "r-new"))
	result, err := svc.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sqlite_failed"}, result.FallbacksUsed)

	state, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-new", state.AccessToken)
	assert.Equal(t, "r-new", state.RefreshToken)
	assert.Equal(t, store.CookieBackendName, state.Source)
}
