package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
)

// Backends groups the storage chain in the order it is written: primary,
// secondary, then the optional fallback.
type Backends struct {
	// Primary is the durable SQLite backend.
	Primary Backend
	// Secondary is the cookie jar or the OS keychain.
	Secondary Backend
	// Fallback is the best-effort in-memory backend.
	Fallback Backend

	// Sweepers lists the backends holding expiring entries.
	Sweepers []Sweeper

	db *DB
}

// NewBackends initialises the storage chain from cfg. It performs the
// following steps:
//  1. Opens the SQLite database at cfg.DB.DSN and runs pending migrations.
//  2. Builds the secondary backend selected by cfg.Secondary.
//  3. Builds the in-memory fallback.
//
// sealer is required for the cookie secondary and may be nil otherwise.
func NewBackends(ctx context.Context, cfg config.Storage, sealer crypto.Sealer, logger *logger.Logger) (*Backends, error) {
	logger.Info().Msg("creating storage backends...")

	db, err := NewConnectSQLite(ctx, cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		return nil, closeOnError(db, fmt.Errorf("migration failed: %w", err))
	}

	b := &Backends{
		Primary:  NewSQLiteBackend(db, logger),
		Fallback: NewMemoryBackend(),
		db:       db,
	}

	switch cfg.Secondary {
	case config.SecondaryCookie:
		if sealer == nil {
			return nil, closeOnError(db, ErrSealerRequired)
		}
		jar := NewCookieBackend(cfg.Cookie, sealer, logger)
		b.Secondary = jar
		b.Sweepers = append(b.Sweepers, jar)
	case config.SecondaryKeyring:
		b.Secondary = NewKeyringBackend(cfg.Keyring, logger)
	default:
		return nil, closeOnError(db, fmt.Errorf("%w %q", ErrUnknownSecondary, cfg.Secondary))
	}

	logger.Info().
		Str("primary", b.Primary.Name()).
		Str("secondary", b.Secondary.Name()).
		Str("fallback", b.Fallback.Name()).
		Msg("storage backends ready")

	return b, nil
}

// Close releases the database connection.
func (b *Backends) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

// closeOnError closes db after a failed setup step and joins a close failure
// to err.
func closeOnError(db *DB, err error) error {
	if closeErr := db.Close(); closeErr != nil {
		return errors.Join(err, fmt.Errorf("close sqlite: %w", closeErr))
	}
	return err
}
