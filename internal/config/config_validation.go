// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"
)

// validate checks that the final merged [StructuredConfig] satisfies the
// agent invariants before it is used at startup.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return fmt.Errorf("%w: durable DSN required", ErrInvalidStorageConfigs)
	}

	switch cfg.Storage.Secondary {
	case SecondaryCookie:
		if cfg.App.SealKey == "" {
			return fmt.Errorf("%w: seal key required by the cookie jar", ErrInvalidAppConfigs)
		}
		if cfg.Storage.Cookie.Expiry < 0 || cfg.Storage.Cookie.MaxValueSize < 0 {
			return fmt.Errorf("%w: negative cookie limits", ErrInvalidStorageConfigs)
		}
	case SecondaryKeyring:
	default:
		return fmt.Errorf("%w: unknown secondary backend %q", ErrInvalidStorageConfigs, cfg.Storage.Secondary)
	}

	s := cfg.Sync
	if s.BatchSize < 1 || s.MinSuccessfulBackends < 1 {
		return fmt.Errorf("%w: batch size and success threshold must be positive", ErrInvalidSyncConfigs)
	}
	if s.MinSuccessfulBackends > MandatoryBackends {
		return fmt.Errorf("%w: success threshold %d exceeds the %d mandatory backends",
			ErrInvalidSyncConfigs, s.MinSuccessfulBackends, MandatoryBackends)
	}
	if s.DebounceDelay < 0 || s.HighPriorityDelay < 0 || s.RetryDelay < 0 {
		return fmt.Errorf("%w: negative delay", ErrInvalidSyncConfigs)
	}
	if s.MaxRetries != nil && *s.MaxRetries < 0 {
		return fmt.Errorf("%w: negative max retries", ErrInvalidSyncConfigs)
	}

	if cfg.Workers.SweepInterval < 0 {
		return ErrInvalidWorkerConfigs
	}

	return nil
}
