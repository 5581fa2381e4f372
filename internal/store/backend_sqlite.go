package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// SQLiteBackendName identifies the primary backend.
const SQLiteBackendName = "sqlite"

type sqliteBackend struct {
	*DB
	logger *logger.Logger
	now    func() time.Time
}

// NewSQLiteBackend returns the primary backend persisting fields into the
// auth_state table of db. The schema must already be migrated.
func NewSQLiteBackend(db *DB, logger *logger.Logger) Backend {
	return &sqliteBackend{
		DB:     db,
		logger: logger,
		now:    time.Now,
	}
}

func (s *sqliteBackend) Name() string {
	return SQLiteBackendName
}

func (s *sqliteBackend) Probe(ctx context.Context) error {
	if s.DB == nil || s.DB.DB == nil {
		return fmt.Errorf("%w: sqlite: no database", ErrBackendUnavailable)
	}
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: sqlite: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *sqliteBackend) Write(ctx context.Context, payload models.SyncPayload) error {
	log := logger.FromContext(ctx)

	if len(payload) == 0 {
		return nil
	}

	query, args, err := buildUpsertAuthState(payload, s.now().UTC())
	if err != nil {
		return err
	}

	if _, err = s.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.Write").
			Str("fields", payload.Key()).
			Msg("failed to execute upsert for auth state")
		return s.classify(fmt.Errorf("%w: upsert auth state (%s): %w", ErrExecutingQuery, payload.Key(), err))
	}

	return nil
}

func (s *sqliteBackend) Read(ctx context.Context) (models.SyncPayload, error) {
	stamped, err := s.ReadStamped(ctx)
	if err != nil {
		return nil, err
	}
	return stamped.Values(), nil
}

// ReadStamped returns every stored field along with its updated_at column.
func (s *sqliteBackend) ReadStamped(ctx context.Context) (models.StampedPayload, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildSelectAuthState()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.ReadStamped").
			Msg("failed to execute query for auth state")
		return nil, s.classify(fmt.Errorf("%w: select auth state: %w", ErrExecutingQuery, err))
	}
	defer rows.Close()

	payload := make(models.StampedPayload)
	for rows.Next() {
		var (
			field, value string
			updatedAt    time.Time
		)
		if err = rows.Scan(&field, &value, &updatedAt); err != nil {
			log.Err(err).
				Str("func", "sqliteBackend.ReadStamped").
				Msg("failed to scan auth state row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		payload[models.Field(field)] = models.StampedValue{Value: value, UpdatedAt: updatedAt}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return payload, nil
}

func (s *sqliteBackend) Delete(ctx context.Context, fields ...models.Field) error {
	log := logger.FromContext(ctx)

	query, args, err := buildDeleteAuthState(fields)
	if err != nil {
		return err
	}

	if _, err = s.DB.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).
			Str("func", "sqliteBackend.Delete").
			Int("fields", len(fields)).
			Msg("failed to delete auth state")
		return s.classify(fmt.Errorf("%w: delete auth state: %w", ErrExecutingQuery, err))
	}

	return nil
}

// classify marks errors of a closed pool as unavailability.
func (s *sqliteBackend) classify(err error) error {
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	return err
}
