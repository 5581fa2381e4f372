package config

import (
	"time"

	"github.com/MKhiriev/go-auth-keeper/models"
)

// Default values applied to fields left empty by every source.
const (
	DefaultDebounceDelay         = 300 * time.Millisecond
	DefaultHighPriorityDelay     = 50 * time.Millisecond
	DefaultMaxRetries            = 3
	DefaultRetryDelay            = 500 * time.Millisecond
	DefaultEnableFallback        = true
	DefaultBatchSize             = 5
	DefaultMinSuccessfulBackends = 1

	DefaultDSN           = "auth.db"
	DefaultCookiePath    = "auth.cookies"
	DefaultCookieExpiry  = 7 * 24 * time.Hour
	DefaultCookieMaxSize = 4096
	DefaultKeyring       = "go-auth-keeper"
	DefaultSecondary     = SecondaryCookie
	DefaultSweepInterval = time.Hour
)

// MandatoryBackends is the number of backends a write must be attempted on:
// the SQLite primary and the secondary.
const MandatoryBackends = 2

// Secondary backend kinds accepted by [Storage.Secondary].
const (
	SecondaryCookie  = "cookie"
	SecondaryKeyring = "keyring"
)

func (cfg *StructuredConfig) applyDefaults() {
	s := &cfg.Sync
	if s.DebounceDelay == 0 {
		s.DebounceDelay = DefaultDebounceDelay
	}
	if s.HighPriorityDelay == 0 {
		s.HighPriorityDelay = DefaultHighPriorityDelay
	}
	if s.MaxRetries == nil {
		v := DefaultMaxRetries
		s.MaxRetries = &v
	}
	if s.RetryDelay == 0 {
		s.RetryDelay = DefaultRetryDelay
	}
	if s.EnableFallback == nil {
		v := DefaultEnableFallback
		s.EnableFallback = &v
	}
	if s.BatchSize == 0 {
		s.BatchSize = DefaultBatchSize
	}
	if s.MinSuccessfulBackends == 0 {
		s.MinSuccessfulBackends = DefaultMinSuccessfulBackends
	}

	st := &cfg.Storage
	if st.DB.DSN == "" {
		st.DB.DSN = DefaultDSN
	}
	if st.Cookie.Path == "" {
		st.Cookie.Path = DefaultCookiePath
	}
	if st.Cookie.Expiry == 0 {
		st.Cookie.Expiry = DefaultCookieExpiry
	}
	if st.Cookie.MaxValueSize == 0 {
		st.Cookie.MaxValueSize = DefaultCookieMaxSize
	}
	if st.Keyring.Service == "" {
		st.Keyring.Service = DefaultKeyring
	}
	if st.Secondary == "" {
		st.Secondary = DefaultSecondary
	}

	if cfg.Workers.SweepInterval == 0 {
		cfg.Workers.SweepInterval = DefaultSweepInterval
	}
}

// SyncConfig converts the merged sync group into the engine view. It must be
// called on a config returned by [GetConfig], where defaults are applied.
func (cfg *StructuredConfig) SyncConfig() models.SyncConfig {
	s := cfg.Sync
	out := models.SyncConfig{
		DebounceDelay:         s.DebounceDelay,
		HighPriorityDelay:     s.HighPriorityDelay,
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            s.RetryDelay,
		EnableFallback:        DefaultEnableFallback,
		BatchSize:             s.BatchSize,
		EnableCompression:     s.EnableCompression,
		MinSuccessfulBackends: s.MinSuccessfulBackends,
	}
	if s.MaxRetries != nil {
		out.MaxRetries = *s.MaxRetries
	}
	if s.EnableFallback != nil {
		out.EnableFallback = *s.EnableFallback
	}

	return out
}
