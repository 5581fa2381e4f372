package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-auth-keeper/models"
)

func TestMemoryBackend(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()
	require.NoError(t, m.Probe(ctx))

	require.NoError(t, m.Write(ctx, models.SyncPayload{models.FieldAccessToken: "a", models.FieldUser: "u"}))
	require.NoError(t, m.Write(ctx, models.SyncPayload{models.FieldAccessToken: "b"}))

	got, err := m.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncPayload{models.FieldAccessToken: "b", models.FieldUser: "u"}, got)

	got[models.FieldTimestamp] = "mutated"
	again, _ := m.Read(ctx)
	assert.NotContains(t, again, models.FieldTimestamp, "Read must return a copy")

	require.NoError(t, m.Delete(ctx, models.FieldUser))
	got, _ = m.Read(ctx)
	assert.Equal(t, models.SyncPayload{models.FieldAccessToken: "b"}, got)

	require.NoError(t, m.Delete(ctx))
	got, _ = m.Read(ctx)
	assert.Empty(t, got)
}

func TestMemoryBackend_ReadStamped(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBackend()

	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	require.NoError(t, m.Write(ctx, models.SyncPayload{models.FieldAccessToken: "a", models.FieldUser: "u"}))

	now = now.Add(time.Second)
	require.NoError(t, m.Write(ctx, models.SyncPayload{models.FieldAccessToken: "b"}))

	got, err := m.ReadStamped(ctx)
	require.NoError(t, err)
	assert.Equal(t, now, got[models.FieldAccessToken].UpdatedAt)
	assert.Equal(t, now.Add(-time.Second), got[models.FieldUser].UpdatedAt)
	assert.Equal(t, "b", got[models.FieldAccessToken].Value)
}
