package service

import (
	"context"

	"github.com/MKhiriev/go-auth-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// SessionService owns the authentication state of the running agent and
// persists every change through the sync engine.
type SessionService interface {
	// Login persists a freshly issued token pair and profile, flushing them
	// before it returns.
	Login(ctx context.Context, accessToken, refreshToken string, user models.User) (models.SyncResult, error)
	// RefreshTokens schedules a rotated token pair with high priority.
	RefreshTokens(ctx context.Context, accessToken, refreshToken string) error
	// UpdateProfile schedules a new profile snapshot with low priority.
	UpdateProfile(ctx context.Context, user models.User) error
	// Touch schedules the activity timestamp marker.
	Touch(ctx context.Context)
	// Restore reads the persisted state back through the backend chain.
	Restore(ctx context.Context) (models.AuthState, error)
	// Logout drops pending writes and removes every field from every backend.
	Logout(ctx context.Context) error
	// Flush writes every pending operation now.
	Flush(ctx context.Context) (models.SyncResult, error)
	// DiscardPending drops pending writes without touching the backends.
	DiscardPending(ctx context.Context)
	// Stats reports the sync engine state.
	Stats(ctx context.Context) models.SyncStats
}

// Syncer is the write side of the sync engine.
type Syncer interface {
	ScheduleSync(payload models.SyncPayload, priority models.Priority)
	ForceSyncImmediate(ctx context.Context, payload models.SyncPayload) models.SyncResult
	ClearPendingOperations()
	Stats() models.SyncStats
}

// StateStore is the read and delete side of the backend chain.
type StateStore interface {
	Read(ctx context.Context) (models.SyncPayload, string, error)
	Delete(ctx context.Context, fields ...models.Field) error
}

type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
}
