package syncer

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/mock"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
	"github.com/MKhiriev/go-auth-keeper/models"
)

type testBackends struct {
	primary   *mock.MockBackend
	secondary *mock.MockBackend
	fallback  *mock.MockBackend
}

// newTestBackends returns three available mock backends named like the
// production ones.
func newTestBackends(t *testing.T) testBackends {
	t.Helper()
	ctrl := gomock.NewController(t)

	b := testBackends{
		primary:   mock.NewMockBackend(ctrl),
		secondary: mock.NewMockBackend(ctrl),
		fallback:  mock.NewMockBackend(ctrl),
	}
	for m, name := range map[*mock.MockBackend]string{
		b.primary:   store.SQLiteBackendName,
		b.secondary: store.CookieBackendName,
		b.fallback:  store.MemoryBackendName,
	} {
		m.EXPECT().Name().Return(name).AnyTimes()
		m.EXPECT().Probe(gomock.Any()).Return(nil)
	}

	return b
}

func (b testBackends) store() *store.Backends {
	return &store.Backends{Primary: b.primary, Secondary: b.secondary, Fallback: b.fallback}
}

func testConfig() models.SyncConfig {
	return models.SyncConfig{
		DebounceDelay:         300 * time.Millisecond,
		HighPriorityDelay:     50 * time.Millisecond,
		MaxRetries:            3,
		RetryDelay:            500 * time.Millisecond,
		EnableFallback:        true,
		BatchSize:             5,
		MinSuccessfulBackends: 1,
	}
}

func newTestEngine(t *testing.T, cfg models.SyncConfig, b testBackends, opts ...Option) (*Engine, *fakeClock) {
	t.Helper()

	clk := newFakeClock()
	chain := NewChain(testContext(), b.store(), cfg, logger.Nop())
	e := NewEngine(cfg, chain, append([]Option{WithClock(clk)}, opts...)...)
	t.Cleanup(e.Close)

	return e, clk
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func payload(kv ...string) models.SyncPayload {
	p := make(models.SyncPayload, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		p[models.Field(kv[i])] = kv[i+1]
	}
	return p
}
