package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// failedMarkerSuffix is appended to a mandatory backend name in
// SyncResult.FallbacksUsed when that backend rejected a write.
const failedMarkerSuffix = "_failed"

// chainBackend names the chain itself in errors not tied to a backend.
const chainBackend = "chain"

type link struct {
	backend   store.Backend
	name      string
	available bool
	probeErr  error
}

// Chain writes payloads to an ordered list of storage backends.
type Chain struct {
	mandatory []*link
	fallback  *link

	enableFallback bool
	minSuccess     int

	logger *logger.Logger
}

// NewChain probes every backend of b once and returns the chain. A backend
// that fails its probe stays in the chain but is never called: every write
// reports it as unavailable. Nil backends are skipped. A success threshold
// above the number of mandatory backends is lowered to that number.
func NewChain(ctx context.Context, b *store.Backends, cfg models.SyncConfig, log *logger.Logger) *Chain {
	c := &Chain{
		enableFallback: cfg.EnableFallback,
		minSuccess:     max(cfg.MinSuccessfulBackends, 1),
		logger:         log,
	}

	for _, backend := range []store.Backend{b.Primary, b.Secondary} {
		if backend != nil {
			c.mandatory = append(c.mandatory, c.probe(ctx, backend))
		}
	}
	if b.Fallback != nil {
		c.fallback = c.probe(ctx, b.Fallback)
	}

	if n := len(c.mandatory); n > 0 && c.minSuccess > n {
		log.Warn().
			Int("min_successful_backends", c.minSuccess).
			Int("mandatory_backends", n).
			Msg("success threshold exceeds the configured backends, lowering it")
		c.minSuccess = n
	}

	return c
}

func (c *Chain) probe(ctx context.Context, b store.Backend) *link {
	l := &link{backend: b, name: b.Name(), available: true}

	if err := safeCall(func() error { return b.Probe(ctx) }); err != nil {
		l.available = false
		l.probeErr = err
		c.logger.Warn().Err(err).
			Str("func", "Chain.probe").
			Str("backend", l.name).
			Msg("storage backend is not available")
		return l
	}

	c.logger.Debug().Str("backend", l.name).Msg("storage backend is available")
	return l
}

// Write attempts every mandatory backend in order, then the fallback when
// enabled and at least one mandatory backend failed. It never returns an
// error: every failure is captured in the result.
func (c *Chain) Write(ctx context.Context, payload models.SyncPayload) models.SyncResult {
	start := time.Now()
	var res models.SyncResult

	if len(c.mandatory) == 0 {
		res.Errors = append(res.Errors, models.SyncError{Backend: chainBackend, Kind: models.BackendUnavailable, Err: ErrNoBackends})
	}

	successes := 0
	for _, l := range c.mandatory {
		if err := c.attempt(ctx, l, payload); err != nil {
			res.Errors = append(res.Errors, *err)
			res.FallbacksUsed = append(res.FallbacksUsed, l.name+failedMarkerSuffix)
			continue
		}
		successes++
	}

	if c.enableFallback && len(res.Errors) > 0 && c.fallback != nil {
		if err := c.attempt(ctx, c.fallback, payload); err != nil {
			res.Warnings = append(res.Warnings, err.Error())
		} else {
			res.FallbacksUsed = append(res.FallbacksUsed, c.fallback.name)
		}
	}

	res.Success = successes >= c.minSuccess
	res.Duration = time.Since(start)

	return res
}

func (c *Chain) attempt(ctx context.Context, l *link, payload models.SyncPayload) *models.SyncError {
	if !l.available {
		return &models.SyncError{Backend: l.name, Kind: models.BackendUnavailable, Err: l.probeErr}
	}

	err := safeCall(func() error { return l.backend.Write(ctx, payload) })
	if err == nil {
		return nil
	}

	logger.FromContext(ctx).Warn().Err(err).
		Str("func", "Chain.attempt").
		Str("backend", l.name).
		Str("fields", payload.Key()).
		Msg("backend write failed")

	return &models.SyncError{Backend: l.name, Kind: classify(err), Err: err}
}

// Read merges the fields of every available backend, keeping for each field
// the value with the latest write time. Values without a write time rank
// below stamped ones, and ties go to the backend earlier in chain order.
// The returned name is the backend holding the freshest field.
//
// A backend that fails to read is skipped; an error is returned only when
// no backend yielded any field.
func (c *Chain) Read(ctx context.Context) (models.SyncPayload, string, error) {
	var (
		errs   []error
		tried  int
		merged = make(models.StampedPayload)
		owner  = make(map[models.Field]int)
		links  = c.links()
	)

	for i, l := range links {
		if !l.available {
			continue
		}
		tried++

		var stamped models.StampedPayload
		err := safeCall(func() error {
			var err error
			stamped, err = readStamped(ctx, l.backend)
			return err
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.name, err))
			continue
		}

		for f, v := range stamped {
			if cur, ok := merged[f]; !ok || v.UpdatedAt.After(cur.UpdatedAt) {
				merged[f] = v
				owner[f] = i
			}
		}
	}

	if tried == 0 {
		return nil, "", ErrNoBackends
	}
	if len(merged) == 0 {
		if len(errs) > 0 {
			return nil, "", errors.Join(errs...)
		}
		return models.SyncPayload{}, "", nil
	}

	source := -1
	var freshest time.Time
	for f, v := range merged {
		i := owner[f]
		if source < 0 || v.UpdatedAt.After(freshest) || (v.UpdatedAt.Equal(freshest) && i < source) {
			source, freshest = i, v.UpdatedAt
		}
	}

	return merged.Values(), links[source].name, nil
}

func readStamped(ctx context.Context, b store.Backend) (models.StampedPayload, error) {
	if r, ok := b.(store.StampedReader); ok {
		return r.ReadStamped(ctx)
	}

	payload, err := b.Read(ctx)
	if err != nil {
		return nil, err
	}
	return payload.Stamp(time.Time{}), nil
}

// Delete removes fields (all fields when none are given) from every
// available backend, including the fallback.
func (c *Chain) Delete(ctx context.Context, fields ...models.Field) error {
	var errs []error
	for _, l := range c.links() {
		if !l.available {
			continue
		}
		if err := safeCall(func() error { return l.backend.Delete(ctx, fields...) }); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", l.name, err))
		}
	}
	return errors.Join(errs...)
}

// Backends lists the chain backends with their availability.
func (c *Chain) Backends() map[string]bool {
	out := make(map[string]bool)
	for _, l := range c.links() {
		out[l.name] = l.available
	}
	return out
}

func (c *Chain) links() []*link {
	if c.fallback == nil {
		return c.mandatory
	}
	return append(c.mandatory[:len(c.mandatory):len(c.mandatory)], c.fallback)
}

// safeCall turns a panic escaping f into an error wrapping ErrBackendPanic.
func safeCall(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBackendPanic, r)
		}
	}()
	return f()
}

func classify(err error) models.ErrorKind {
	switch {
	case errors.Is(err, ErrBackendPanic):
		return models.InternalUnexpected
	case errors.Is(err, store.ErrBackendUnavailable):
		return models.BackendUnavailable
	default:
		return models.WriteFailed
	}
}
