package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// CookieBackendName identifies the cookie jar backend.
const CookieBackendName = "cookie"

const lockRetryDelay = 10 * time.Millisecond

// cookieJar is the on-disk representation of the jar file.
type cookieJar struct {
	Entries map[models.Field]cookieEntry `json:"entries"`
}

type cookieEntry struct {
	Value   string    `json:"value"`
	Written time.Time `json:"written"`
	Expires time.Time `json:"expires"`
}

// CookieBackend is the file-backed cookie jar backend.
type CookieBackend struct {
	path         string
	expiry       time.Duration
	maxValueSize int

	sealer crypto.Sealer
	lock   *flock.Flock
	mu     sync.Mutex
	logger *logger.Logger
	now    func() time.Time
}

// NewCookieBackend returns a backend keeping one sealed entry per field in a
// JSON jar file. Every write renews the entry expiry; expired entries are
// invisible to Read and removed by Sweep.
//
// The jar is guarded by an advisory lock on "<path>.lock" so several agent
// processes may share it.
func NewCookieBackend(cfg config.Cookie, sealer crypto.Sealer, logger *logger.Logger) *CookieBackend {
	return &CookieBackend{
		path:         cfg.Path,
		expiry:       cfg.Expiry,
		maxValueSize: cfg.MaxValueSize,
		sealer:       sealer,
		lock:         flock.New(cfg.Path + ".lock"),
		logger:       logger,
		now:          time.Now,
	}
}

func (c *CookieBackend) Name() string {
	return CookieBackendName
}

// Probe makes sure the jar directory exists and is writable.
func (c *CookieBackend) Probe(ctx context.Context) error {
	if c.path == "" {
		return fmt.Errorf("%w: cookie: empty jar path", ErrBackendUnavailable)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("%w: cookie: %v", ErrBackendUnavailable, err)
	}

	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: cookie: %v", ErrBackendUnavailable, err)
	}
	f.Close()
	os.Remove(f.Name())

	return nil
}

func (c *CookieBackend) Write(ctx context.Context, payload models.SyncPayload) error {
	if len(payload) == 0 {
		return nil
	}

	sealed := make(map[models.Field]string, len(payload))
	for f, v := range payload {
		if c.maxValueSize > 0 && len(v) > c.maxValueSize {
			return fmt.Errorf("%w: cookie: field %s is %d bytes, limit %d", ErrValueTooLarge, f, len(v), c.maxValueSize)
		}
		s, err := c.sealer.Seal(v)
		if err != nil {
			return fmt.Errorf("cookie: seal field %s: %w", f, err)
		}
		sealed[f] = s
	}

	return c.update(ctx, func(jar *cookieJar) bool {
		written := c.now().UTC()
		expires := written.Add(c.expiry)
		for f, s := range sealed {
			jar.Entries[f] = cookieEntry{Value: s, Written: written, Expires: expires}
		}
		return true
	})
}

func (c *CookieBackend) Read(ctx context.Context) (models.SyncPayload, error) {
	stamped, err := c.ReadStamped(ctx)
	if err != nil {
		return nil, err
	}
	return stamped.Values(), nil
}

// ReadStamped returns every live entry with the time it was written.
// Entries that cannot be opened are skipped.
func (c *CookieBackend) ReadStamped(ctx context.Context) (models.StampedPayload, error) {
	log := logger.FromContext(ctx)

	var jar *cookieJar
	err := c.withLock(ctx, func() error {
		var err error
		jar, err = c.load()
		return err
	})
	if err != nil {
		return nil, err
	}

	now := c.now()
	payload := make(models.StampedPayload, len(jar.Entries))
	for f, e := range jar.Entries {
		if !e.Expires.After(now) {
			continue
		}
		v, err := c.sealer.Open(e.Value)
		if err != nil {
			log.Warn().Err(err).
				Str("func", "CookieBackend.ReadStamped").
				Str("field", string(f)).
				Msg("skipping entry that cannot be opened")
			continue
		}
		payload[f] = models.StampedValue{Value: v, UpdatedAt: e.Written}
	}

	return payload, nil
}

func (c *CookieBackend) Delete(ctx context.Context, fields ...models.Field) error {
	return c.update(ctx, func(jar *cookieJar) bool {
		if len(fields) == 0 {
			changed := len(jar.Entries) > 0
			clear(jar.Entries)
			return changed
		}

		changed := false
		for _, f := range fields {
			if _, ok := jar.Entries[f]; ok {
				delete(jar.Entries, f)
				changed = true
			}
		}
		return changed
	})
}

// Sweep removes expired entries from the jar.
func (c *CookieBackend) Sweep(ctx context.Context) (int, error) {
	removed := 0
	err := c.update(ctx, func(jar *cookieJar) bool {
		now := c.now()
		for f, e := range jar.Entries {
			if !e.Expires.After(now) {
				delete(jar.Entries, f)
				removed++
			}
		}
		return removed > 0
	})

	return removed, err
}

// update runs fn against the current jar under the lock and persists the jar
// when fn reports a change.
func (c *CookieBackend) update(ctx context.Context, fn func(jar *cookieJar) bool) error {
	return c.withLock(ctx, func() error {
		jar, err := c.load()
		if err != nil {
			return err
		}
		if !fn(jar) {
			return nil
		}
		return c.store(jar)
	})
}

// withLock recreates the jar directory when it was removed, since the lock
// file lives next to the jar.
func (c *CookieBackend) withLock(ctx context.Context, fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("%w: cookie: %v", ErrBackendUnavailable, err)
	}

	locked, err := c.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("%w: cookie: lock jar: %v", ErrBackendUnavailable, err)
	}
	if !locked {
		return fmt.Errorf("%w: cookie: jar is locked", ErrBackendUnavailable)
	}
	defer c.lock.Unlock()

	return fn()
}

func (c *CookieBackend) load() (*cookieJar, error) {
	jar := &cookieJar{Entries: make(map[models.Field]cookieEntry)}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return jar, nil
		}
		return nil, fmt.Errorf("cookie: read jar: %w", err)
	}
	if len(data) == 0 {
		return jar, nil
	}

	if err = json.Unmarshal(data, jar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJarCorrupted, err)
	}
	if jar.Entries == nil {
		jar.Entries = make(map[models.Field]cookieEntry)
	}

	return jar, nil
}

// store replaces the jar file atomically.
func (c *CookieBackend) store(jar *cookieJar) error {
	data, err := json.Marshal(jar)
	if err != nil {
		return fmt.Errorf("cookie: encode jar: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: cookie: %v", ErrBackendUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("cookie: write jar: %w", err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cookie: write jar: %w", err)
	}
	if err = os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("cookie: replace jar: %w", err)
	}

	return nil
}
