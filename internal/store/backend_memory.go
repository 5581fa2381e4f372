package store

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-auth-keeper/models"
)

// MemoryBackendName identifies the in-process fallback backend.
const MemoryBackendName = "memory"

// MemoryBackend keeps the latest value of every field in process memory. It
// is the best-effort fallback of the chain: always available, lost on exit.
type MemoryBackend struct {
	mu    sync.RWMutex
	items models.StampedPayload
	now   func() time.Time
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		items: make(models.StampedPayload),
		now:   time.Now,
	}
}

func (m *MemoryBackend) Name() string {
	return MemoryBackendName
}

func (m *MemoryBackend) Probe(context.Context) error {
	return nil
}

func (m *MemoryBackend) Write(_ context.Context, payload models.SyncPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for f, v := range payload.Stamp(m.now().UTC()) {
		m.items[f] = v
	}
	return nil
}

func (m *MemoryBackend) Read(ctx context.Context) (models.SyncPayload, error) {
	stamped, _ := m.ReadStamped(ctx)
	return stamped.Values(), nil
}

func (m *MemoryBackend) ReadStamped(context.Context) (models.StampedPayload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(models.StampedPayload, len(m.items))
	for f, v := range m.items {
		out[f] = v
	}
	return out, nil
}

func (m *MemoryBackend) Delete(_ context.Context, fields ...models.Field) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(fields) == 0 {
		clear(m.items)
		return nil
	}
	for _, f := range fields {
		delete(m.items, f)
	}
	return nil
}
