package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid storage settings (for
	// example, empty DSN or an unknown secondary backend).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidSyncConfigs indicates invalid engine settings (for example,
	// a non-positive batch size).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidAppConfigs indicates invalid application-level settings
	// (for example, a missing seal key while the cookie jar is in use).
	ErrInvalidAppConfigs = errors.New("invalid app configuration")
	// ErrInvalidWorkerConfigs indicates invalid background worker settings.
	ErrInvalidWorkerConfigs = errors.New("invalid worker configuration")
)
