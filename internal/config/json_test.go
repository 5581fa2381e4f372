package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	// Arrange
	p := filepath.Join(t.TempDir(), "config.json")
	jsonBody := `{
		"app": {"seal_key": "seal", "version": "2.0.0"},
		"storage": {
			"db": {"dsn": "/data/auth.db"},
			"cookie": {"path": "/data/auth.cookies", "expiry": "72h", "max_value_size": 1024},
			"keyring": {"service": "svc"},
			"secondary": "cookie"
		},
		"sync": {
			"debounce_delay": "250ms",
			"high_priority_delay": "25ms",
			"max_retries": 5,
			"retry_delay": "750ms",
			"enable_fallback": false,
			"batch_size": 4,
			"min_successful_backends": 2
		},
		"server": {"http_address": "localhost:9000"},
		"workers": {"sweep_interval": "30m"}
	}`
	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "seal", cfg.App.SealKey)
	assert.Equal(t, "2.0.0", cfg.App.Version)
	assert.Equal(t, "/data/auth.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "/data/auth.cookies", cfg.Storage.Cookie.Path)
	assert.Equal(t, 72*time.Hour, cfg.Storage.Cookie.Expiry)
	assert.Equal(t, 1024, cfg.Storage.Cookie.MaxValueSize)
	assert.Equal(t, "svc", cfg.Storage.Keyring.Service)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.DebounceDelay)
	assert.Equal(t, 25*time.Millisecond, cfg.Sync.HighPriorityDelay)
	require.NotNil(t, cfg.Sync.MaxRetries)
	assert.Equal(t, 5, *cfg.Sync.MaxRetries)
	assert.Equal(t, 750*time.Millisecond, cfg.Sync.RetryDelay)
	require.NotNil(t, cfg.Sync.EnableFallback)
	assert.False(t, *cfg.Sync.EnableFallback)
	assert.Equal(t, 4, cfg.Sync.BatchSize)
	assert.Equal(t, 2, cfg.Sync.MinSuccessfulBackends)
	assert.Equal(t, "localhost:9000", cfg.Server.HTTPAddress)
	assert.Equal(t, 30*time.Minute, cfg.Workers.SweepInterval)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading a json file")
}

func TestParseJSON_InvalidDuration(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"sync": {"retry_delay": "later"}}`), 0o600))

	_, err := parseJSON(p)
	assert.Error(t, err)
}

func TestDuration_NumberAndMarshal(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte("1000000")))
	assert.Equal(t, time.Millisecond, time.Duration(d))

	out, err := Duration(time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1s"`, string(out))

	assert.Error(t, d.UnmarshalJSON([]byte("true")))
}
