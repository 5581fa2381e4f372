package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/mock"
	"github.com/MKhiriev/go-auth-keeper/models"
)

func newTestCookieBackend(t *testing.T) *CookieBackend {
	t.Helper()
	return NewCookieBackend(config.Cookie{
		Path:         filepath.Join(t.TempDir(), "jar", "auth.cookies"),
		Expiry:       time.Hour,
		MaxValueSize: 64,
	}, plainSealer{}, logger.Nop())
}

func TestCookieBackend_WriteRead(t *testing.T) {
	ctx := testContext()
	c := newTestCookieBackend(t)
	require.NoError(t, c.Probe(ctx))

	require.NoError(t, c.Write(ctx, models.SyncPayload{
		models.FieldAccessToken:  "a1",
		models.FieldRefreshToken: "r1",
	}))
	require.NoError(t, c.Write(ctx, models.SyncPayload{models.FieldAccessToken: "a2"}))

	got, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncPayload{
		models.FieldAccessToken:  "a2",
		models.FieldRefreshToken: "r1",
	}, got)

	raw, err := os.ReadFile(c.path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "sealed:a2")
}

func TestCookieBackend_ReadMissingJar(t *testing.T) {
	c := newTestCookieBackend(t)

	got, err := c.Read(testContext())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCookieBackend_ValueTooLarge(t *testing.T) {
	ctx := testContext()
	c := newTestCookieBackend(t)

	err := c.Write(ctx, models.SyncPayload{
		models.FieldAccessToken: "a1",
		models.FieldUser:        strings.Repeat("x", 65),
	})
	require.ErrorIs(t, err, ErrValueTooLarge)

	got, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, got, "a rejected payload must not be partially written")
}

func TestCookieBackend_ExpiryAndSweep(t *testing.T) {
	ctx := testContext()
	c := newTestCookieBackend(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Write(ctx, models.SyncPayload{models.FieldAccessToken: "old"}))
	now = now.Add(30 * time.Minute)
	require.NoError(t, c.Write(ctx, models.SyncPayload{models.FieldRefreshToken: "fresh"}))

	now = now.Add(45 * time.Minute)

	got, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncPayload{models.FieldRefreshToken: "fresh"}, got)

	removed, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = c.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestCookieBackend_Delete(t *testing.T) {
	ctx := testContext()
	c := newTestCookieBackend(t)

	require.NoError(t, c.Write(ctx, models.SyncPayload{
		models.FieldAccessToken: "a",
		models.FieldUser:        "u",
		models.FieldTimestamp:   "1",
	}))

	require.NoError(t, c.Delete(ctx, models.FieldUser))
	got, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncPayload{models.FieldAccessToken: "a", models.FieldTimestamp: "1"}, got)

	require.NoError(t, c.Delete(ctx))
	got, err = c.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCookieBackend_CorruptedJar(t *testing.T) {
	c := newTestCookieBackend(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(c.path), 0o700))
	require.NoError(t, os.WriteFile(c.path, []byte("{not json"), 0o600))

	_, err := c.Read(testContext())
	require.ErrorIs(t, err, ErrJarCorrupted)
}

func TestCookieBackend_SkipsEntriesThatCannotBeOpened(t *testing.T) {
	c := newTestCookieBackend(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(c.path), 0o700))
	expires := time.Now().Add(time.Hour).UTC().Format(time.RFC3339Nano)
	jar := `{"entries":{"access_token":{"value":"garbage","expires":"` + expires + `"},` +
		`"user":{"value":"sealed:u","expires":"` + expires + `"}}}`
	require.NoError(t, os.WriteFile(c.path, []byte(jar), 0o600))

	got, err := c.Read(testContext())
	require.NoError(t, err)
	assert.Equal(t, models.SyncPayload{models.FieldUser: "u"}, got)
}

func TestCookieBackend_Probe_EmptyPath(t *testing.T) {
	c := NewCookieBackend(config.Cookie{}, plainSealer{}, logger.Nop())
	require.ErrorIs(t, c.Probe(context.Background()), ErrBackendUnavailable)
}

func TestCookieBackend_ConcurrentWriters(t *testing.T) {
	ctx := testContext()
	path := filepath.Join(t.TempDir(), "auth.cookies")
	cfg := config.Cookie{Path: path, Expiry: time.Hour}

	// two handles on the same jar behave like two processes
	a := NewCookieBackend(cfg, plainSealer{}, logger.Nop())
	b := NewCookieBackend(cfg, plainSealer{}, logger.Nop())

	var wg sync.WaitGroup
	for i, backend := range []*CookieBackend{a, b} {
		field := models.AllFields[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 20 {
				assert.NoError(t, backend.Write(ctx, models.SyncPayload{field: "v"}))
			}
		}()
	}
	wg.Wait()

	got, err := a.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCookieBackend_RealSealer(t *testing.T) {
	ctx := testContext()
	sealer, err := crypto.NewSealer("correct horse battery staple")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "auth.cookies")
	c := NewCookieBackend(config.Cookie{Path: path, Expiry: time.Hour}, sealer, logger.Nop())
	require.NoError(t, c.Write(ctx, models.SyncPayload{models.FieldRefreshToken: "r-secret"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "r-secret")

	got, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r-secret", got[models.FieldRefreshToken])
}

func TestCookieBackend_SealError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sealer := mock.NewMockSealer(ctrl)
	sealErr := errors.New("sealer broken")
	sealer.EXPECT().Seal("v").Return("", sealErr)

	path := filepath.Join(t.TempDir(), "auth.cookies")
	c := NewCookieBackend(config.Cookie{Path: path, Expiry: time.Hour}, sealer, logger.Nop())

	err := c.Write(testContext(), models.SyncPayload{models.FieldUser: "v"})
	require.ErrorIs(t, err, sealErr)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing is written when sealing fails")
}

func TestCookieBackend_RecreatesRemovedDirectory(t *testing.T) {
	ctx := testContext()
	c := newTestCookieBackend(t)
	require.NoError(t, c.Probe(ctx))

	require.NoError(t, os.RemoveAll(filepath.Dir(c.path)))

	got, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, os.RemoveAll(filepath.Dir(c.path)))
	require.NoError(t, c.Write(ctx, models.SyncPayload{models.FieldAccessToken: "a1"}))

	got, err = c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncPayload{models.FieldAccessToken: "a1"}, got)
}

func TestCookieBackend_ReadStamped(t *testing.T) {
	ctx := testContext()
	c := newTestCookieBackend(t)

	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Write(ctx, models.SyncPayload{models.FieldUser: "u"}))

	written := now.Add(5 * time.Minute)
	now = written
	require.NoError(t, c.Write(ctx, models.SyncPayload{models.FieldAccessToken: "a"}))

	got, err := c.ReadStamped(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StampedPayload{
		models.FieldUser:        {Value: "u", UpdatedAt: written.Add(-5 * time.Minute)},
		models.FieldAccessToken: {Value: "a", UpdatedAt: written},
	}, got)
}
