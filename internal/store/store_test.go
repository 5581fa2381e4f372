package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{DB: db, logger: logger.Nop()}
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

var errNotSealed = errors.New("not sealed")

// plainSealer marks values instead of encrypting them.
type plainSealer struct{}

func (plainSealer) Seal(plain string) (string, error) { return "sealed:" + plain, nil }

func (plainSealer) Open(sealed string) (string, error) {
	const prefix = "sealed:"
	if len(sealed) < len(prefix) || sealed[:len(prefix)] != prefix {
		return "", errNotSealed
	}
	return sealed[len(prefix):], nil
}
