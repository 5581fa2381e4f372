package store

import (
	"context"

	"github.com/MKhiriev/go-auth-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/backend_mock.go -package=mock

// Backend is one physical storage medium of the sync chain.
//
// Every method must be safe for concurrent use. Implementations report a
// missing medium by wrapping [ErrBackendUnavailable] and an oversized value
// by wrapping [ErrValueTooLarge]; any other error is a plain write failure.
type Backend interface {
	// Name is a short stable identifier used in logs, metrics and
	// fallback markers (e.g. "sqlite", "cookie").
	Name() string

	// Probe checks once whether the medium exists in this environment.
	Probe(ctx context.Context) error

	// Write stores every field present in payload. Absent fields are kept.
	Write(ctx context.Context, payload models.SyncPayload) error

	// Read returns every live field. An empty payload and a nil error mean
	// the medium holds nothing.
	Read(ctx context.Context) (models.SyncPayload, error)

	// Delete removes the given fields, or every field when none are given.
	Delete(ctx context.Context, fields ...models.Field) error
}

// Sweeper is implemented by backends holding entries with an expiry.
type Sweeper interface {
	// Sweep removes expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}

// StampedReader is implemented by backends that record when each field was
// last written. The chain compares the stamps to pick the freshest value of
// a field across backends.
type StampedReader interface {
	// ReadStamped is Read with the write time of every field.
	ReadStamped(ctx context.Context) (models.StampedPayload, error)
}
