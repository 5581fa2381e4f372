package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// KeyringBackendName identifies the OS keychain backend.
const KeyringBackendName = "keyring"

const keyringProbeKey = "__probe__"

// keychain is the subset of the go-keyring API the backend uses.
type keychain interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
	Delete(service, user string) error
}

type osKeychain struct{}

func (osKeychain) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (osKeychain) Set(service, user, password string) error { return keyring.Set(service, user, password) }
func (osKeychain) Delete(service, user string) error        { return keyring.Delete(service, user) }

// keyringItem is the secret stored for one field.
type keyringItem struct {
	Value     string    `json:"v"`
	UpdatedAt time.Time `json:"t"`
}

type keyringBackend struct {
	service string
	keys    keychain
	logger  *logger.Logger
	now     func() time.Time
}

// NewKeyringBackend returns a backend storing every field as a separate
// secret of the OS keychain under cfg.Service.
//
// The keychain has no transactions: when a field of a payload fails, the
// fields already written by that call are restored to their previous
// secrets before the error is returned.
func NewKeyringBackend(cfg config.Keyring, logger *logger.Logger) Backend {
	return &keyringBackend{
		service: cfg.Service,
		keys:    osKeychain{},
		logger:  logger,
		now:     time.Now,
	}
}

func (k *keyringBackend) Name() string {
	return KeyringBackendName
}

// Probe reads a key that never exists. A not-found answer proves the
// keychain daemon is reachable.
func (k *keyringBackend) Probe(ctx context.Context) error {
	_, err := k.keys.Get(k.service, keyringProbeKey)
	if err == nil || errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("%w: keyring: %v", ErrBackendUnavailable, err)
}

func (k *keyringBackend) Write(ctx context.Context, payload models.SyncPayload) error {
	updatedAt := k.now().UTC()

	// previous secrets of the fields written so far; nil means absent
	written := make(map[models.Field]*string, len(payload))

	for _, f := range payload.Fields() {
		if err := ctx.Err(); err != nil {
			return k.rollback(written, err)
		}

		var restore *string
		prev, err := k.keys.Get(k.service, string(f))
		switch {
		case err == nil:
			restore = &prev
		case errors.Is(err, keyring.ErrNotFound):
		default:
			return k.rollback(written, fmt.Errorf("keyring: get field %s: %w", f, err))
		}

		secret, err := json.Marshal(keyringItem{Value: payload[f], UpdatedAt: updatedAt})
		if err != nil {
			return k.rollback(written, fmt.Errorf("keyring: encode field %s: %w", f, err))
		}

		if err = k.keys.Set(k.service, string(f), string(secret)); err != nil {
			if errors.Is(err, keyring.ErrSetDataTooBig) {
				err = fmt.Errorf("%w: keyring: field %s: %v", ErrValueTooLarge, f, err)
			} else {
				err = fmt.Errorf("keyring: set field %s: %w", f, err)
			}
			return k.rollback(written, err)
		}

		written[f] = restore
	}

	return nil
}

// rollback restores the previous secrets of written and returns cause
// joined with any restore failure.
func (k *keyringBackend) rollback(written map[models.Field]*string, cause error) error {
	errs := []error{cause}

	for _, f := range slices.Sorted(maps.Keys(written)) {
		var err error
		if prev := written[f]; prev != nil {
			err = k.keys.Set(k.service, string(f), *prev)
		} else if err = k.keys.Delete(k.service, string(f)); errors.Is(err, keyring.ErrNotFound) {
			err = nil
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("keyring: restore field %s: %w", f, err))
		}
	}

	if len(written) > 0 {
		k.logger.Warn().Err(cause).
			Str("func", "keyringBackend.rollback").
			Int("fields", len(written)).
			Msg("partial keyring write rolled back")
	}

	return errors.Join(errs...)
}

func (k *keyringBackend) Read(ctx context.Context) (models.SyncPayload, error) {
	stamped, err := k.ReadStamped(ctx)
	if err != nil {
		return nil, err
	}
	return stamped.Values(), nil
}

// ReadStamped returns every stored field. Secrets that are not a JSON item
// are returned as plain values without a write time.
func (k *keyringBackend) ReadStamped(ctx context.Context) (models.StampedPayload, error) {
	payload := make(models.StampedPayload)
	for _, f := range models.AllFields {
		secret, err := k.keys.Get(k.service, string(f))
		if err != nil {
			if errors.Is(err, keyring.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("keyring: get field %s: %w", f, err)
		}

		var item keyringItem
		if err = json.Unmarshal([]byte(secret), &item); err != nil {
			payload[f] = models.StampedValue{Value: secret}
			continue
		}
		payload[f] = models.StampedValue{Value: item.Value, UpdatedAt: item.UpdatedAt}
	}
	return payload, nil
}

func (k *keyringBackend) Delete(ctx context.Context, fields ...models.Field) error {
	if len(fields) == 0 {
		fields = models.AllFields
	}

	var errs []error
	for _, f := range fields {
		if err := k.keys.Delete(k.service, string(f)); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			errs = append(errs, fmt.Errorf("keyring: delete field %s: %w", f, err))
		}
	}
	return errors.Join(errs...)
}
