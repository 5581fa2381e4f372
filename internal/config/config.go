// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// go-auth-keeper agent. It is populated by merging values from environment
// variables, command-line flags and an optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env      : direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings such as the sealing key and the
	// application version.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for every storage backend of the chain.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds the tuning knobs of the synchronization engine.
	Sync Sync `envPrefix:"SYNC_"`

	// Server holds the address of the stats HTTP endpoint.
	Server Server `envPrefix:"SERVER_"`

	// Workers holds configuration for background worker processes.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / --config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values.
type App struct {
	// SealKey is the secret used to derive the key that encrypts cookie-jar
	// values at rest. Must be kept confidential.
	// Env: APP_SEAL_KEY
	SealKey string `env:"SEAL_KEY"`

	// Version is the semantic version string of the running agent.
	// Env: APP_VERSION
	Version string `env:"VERSION"`

	// LogFile, when set, redirects logs from stdout to this file.
	// Env: APP_LOG_FILE
	LogFile string `env:"LOG_FILE"`
}

// Storage groups the configuration of the storage backends.
type Storage struct {
	// DB holds the primary SQLite backend settings.
	DB DB `envPrefix:"DB_"`

	// Cookie holds the cookie-jar backend settings.
	Cookie Cookie `envPrefix:"COOKIE_"`

	// Keyring holds the OS keychain backend settings.
	Keyring Keyring `envPrefix:"KEYRING_"`

	// Secondary selects the secondary backend: "cookie" or "keyring".
	// Env: STORAGE_SECONDARY
	Secondary string `env:"SECONDARY"`
}

// DB holds connection settings for the primary SQLite backend.
type DB struct {
	// DSN is the SQLite database file path (e.g. "./auth.db").
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Cookie holds settings of the file-backed cookie jar.
type Cookie struct {
	// Path is the jar file location.
	// Env: STORAGE_COOKIE_PATH
	Path string `env:"PATH"`

	// Expiry is the lifetime attached to every written entry.
	// Env: STORAGE_COOKIE_EXPIRY
	Expiry time.Duration `env:"EXPIRY"`

	// MaxValueSize is the largest accepted value in bytes.
	// Env: STORAGE_COOKIE_MAX_VALUE_SIZE
	MaxValueSize int `env:"MAX_VALUE_SIZE"`
}

// Keyring holds settings of the OS keychain backend.
type Keyring struct {
	// Service is the keychain service name entries are stored under.
	// Env: STORAGE_KEYRING_SERVICE
	Service string `env:"SERVICE"`
}

// Sync holds the engine options.
type Sync struct {
	// DebounceDelay is the sliding debounce window for medium and low
	// priority writes.
	// Env: SYNC_DEBOUNCE_DELAY
	DebounceDelay time.Duration `env:"DEBOUNCE_DELAY"`

	// HighPriorityDelay is the debounce window used when a high priority
	// write is pending.
	// Env: SYNC_HIGH_PRIORITY_DELAY
	HighPriorityDelay time.Duration `env:"HIGH_PRIORITY_DELAY"`

	// MaxRetries is the number of retry passes a failing operation gets
	// before it is dropped.
	// Env: SYNC_MAX_RETRIES
	MaxRetries *int `env:"MAX_RETRIES"`

	// RetryDelay is the fixed backoff before a retry pass.
	// Env: SYNC_RETRY_DELAY
	RetryDelay time.Duration `env:"RETRY_DELAY"`

	// EnableFallback turns on the best-effort in-memory backend.
	// Env: SYNC_ENABLE_FALLBACK
	EnableFallback *bool `env:"ENABLE_FALLBACK"`

	// BatchSize is the number of operations attempted together.
	// Env: SYNC_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// EnableCompression is reserved and currently ignored.
	// Env: SYNC_ENABLE_COMPRESSION
	EnableCompression bool `env:"ENABLE_COMPRESSION"`

	// MinSuccessfulBackends is the number of backends that must accept a
	// write for it to count as persisted.
	// Env: SYNC_MIN_SUCCESSFUL_BACKENDS
	MinSuccessfulBackends int `env:"MIN_SUCCESSFUL_BACKENDS"`
}

// Server holds settings of the stats HTTP endpoint.
type Server struct {
	// HTTPAddress is the TCP address in "host:port" format. Empty disables
	// the endpoint.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`
}

// Workers holds configuration for background worker processes.
type Workers struct {
	// SweepInterval is how often expired cookie-jar entries are purged.
	// Env: WORKERS_SWEEP_INTERVAL
	SweepInterval time.Duration `env:"SWEEP_INTERVAL"`
}

// GetConfig loads, merges, defaults and validates the agent configuration
// from all available sources in the following priority order (later sources
// override earlier non-zero fields):
//  1. Environment variables
//  2. Command-line flags (args, without the program name)
//  3. JSON file (path resolved from sources 1 and 2)
func GetConfig(args []string) (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(args).
		withJSON().
		build()
}
