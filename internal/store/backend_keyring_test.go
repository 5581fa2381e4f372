package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

func TestKeyringBackend(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	k := NewKeyringBackend(config.Keyring{Service: "auth-keeper-test"}, logger.Nop())
	assert.Equal(t, KeyringBackendName, k.Name())
	require.NoError(t, k.Probe(ctx))

	require.NoError(t, k.Write(ctx, models.SyncPayload{
		models.FieldAccessToken: "a1",
		models.FieldUser:        "u1",
	}))

	got, err := k.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncPayload{models.FieldAccessToken: "a1", models.FieldUser: "u1"}, got)

	require.NoError(t, k.Delete(ctx, models.FieldUser, models.FieldTimestamp))
	got, err = k.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SyncPayload{models.FieldAccessToken: "a1"}, got)

	require.NoError(t, k.Delete(ctx))
	got, err = k.Read(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestKeyringBackend_Unavailable(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: no session bus"))
	t.Cleanup(keyring.MockInit)
	ctx := context.Background()

	k := NewKeyringBackend(config.Keyring{Service: "auth-keeper-test"}, logger.Nop())
	require.ErrorIs(t, k.Probe(ctx), ErrBackendUnavailable)
	require.Error(t, k.Write(ctx, models.SyncPayload{models.FieldAccessToken: "a"}))
}

// failingKeychain delegates to the mocked keyring but rejects Set for one
// field.
type failingKeychain struct {
	osKeychain
	field models.Field
	err   error
}

func (f failingKeychain) Set(service, user, password string) error {
	if user == string(f.field) {
		return f.err
	}
	return f.osKeychain.Set(service, user, password)
}

func newTestKeyringBackend(keys keychain) *keyringBackend {
	k := NewKeyringBackend(config.Keyring{Service: "auth-keeper-test"}, logger.Nop()).(*keyringBackend)
	k.keys = keys
	return k
}

func TestKeyringBackend_DataTooBig(t *testing.T) {
	keyring.MockInit()

	k := newTestKeyringBackend(failingKeychain{field: models.FieldUser, err: keyring.ErrSetDataTooBig})
	err := k.Write(context.Background(), models.SyncPayload{models.FieldUser: "huge"})
	require.ErrorIs(t, err, ErrValueTooLarge)
}

func TestKeyringBackend_PartialWriteIsRolledBack(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	healthy := newTestKeyringBackend(osKeychain{})
	require.NoError(t, healthy.Write(ctx, models.SyncPayload{models.FieldAccessToken: "a1"}))
	before, err := healthy.Read(ctx)
	require.NoError(t, err)

	// fields are written in sorted order: access_token, refresh_token, user
	broken := newTestKeyringBackend(failingKeychain{field: models.FieldUser, err: errors.New("keychain locked")})
	err = broken.Write(ctx, models.SyncPayload{
		models.FieldAccessToken:  "a2",
		models.FieldRefreshToken: "r2",
		models.FieldUser:         "u2",
	})
	require.ErrorContains(t, err, "keychain locked")

	after, err := healthy.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, models.SyncPayload{models.FieldAccessToken: "a1"}, after)
}

func TestKeyringBackend_ReadStamped(t *testing.T) {
	keyring.MockInit()
	ctx := context.Background()

	k := newTestKeyringBackend(osKeychain{})
	written := time.Date(2026, 10, 16, 11, 0, 0, 0, time.UTC)
	k.now = func() time.Time { return written }
	require.NoError(t, k.Write(ctx, models.SyncPayload{models.FieldRefreshToken: "r1"}))

	// a secret stored as a bare value has no write time
	require.NoError(t, keyring.Set("auth-keeper-test", string(models.FieldUser), "raw"))

	got, err := k.ReadStamped(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StampedPayload{
		models.FieldRefreshToken: {Value: "r1", UpdatedAt: written},
		models.FieldUser:         {Value: "raw"},
	}, got)
}
