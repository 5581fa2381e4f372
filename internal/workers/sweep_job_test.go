package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/mock"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
)

// countingSweeper counts Sweep calls.
type countingSweeper struct {
	calls atomic.Int64
	err   error
}

func (s *countingSweeper) Sweep(context.Context) (int, error) {
	s.calls.Add(1)
	return 1, s.err
}

func TestNewSweepJob_DefaultInterval(t *testing.T) {
	job := NewSweepJob(nil, 0, logger.Nop()).(*sweepJob)
	assert.Equal(t, defaultSweepInterval, job.interval)
}

func TestSweepJob_RunSweepsOnTicker(t *testing.T) {
	s := &countingSweeper{}
	job := NewSweepJob([]store.Sweeper{s}, 10*time.Millisecond, logger.Nop())

	job.Run(context.Background())
	require.Eventually(t, func() bool { return s.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	job.Stop()
}

func TestSweepJob_StopHaltsLoop(t *testing.T) {
	s := &countingSweeper{}
	job := NewSweepJob([]store.Sweeper{s}, 10*time.Millisecond, logger.Nop())

	job.Run(context.Background())
	require.Eventually(t, func() bool { return s.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	job.Stop()

	after := s.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, s.calls.Load(), "no sweeps after Stop")
}

func TestSweepJob_ContextCancelHaltsLoop(t *testing.T) {
	s := &countingSweeper{}
	job := NewSweepJob([]store.Sweeper{s}, 10*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	job.Run(ctx)
	cancel()

	// Stop returns only once the goroutine is gone.
	done := make(chan struct{})
	go func() {
		job.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
}

func TestSweepJob_StopBeforeRun(t *testing.T) {
	job := NewSweepJob([]store.Sweeper{&countingSweeper{}}, time.Minute, logger.Nop())
	assert.NotPanics(t, func() { job.Stop() })
}

func TestSweepJob_NoSweepersIsIdle(t *testing.T) {
	job := NewSweepJob(nil, time.Millisecond, logger.Nop())

	job.Run(context.Background())
	assert.Nil(t, job.(*sweepJob).cancel)
	job.Stop()
}

func TestSweepJob_ErrorDoesNotStopOtherSweepers(t *testing.T) {
	ctrl := gomock.NewController(t)

	failing := mock.NewMockSweeper(ctrl)
	failing.EXPECT().Sweep(gomock.Any()).Return(0, errors.New("jar locked")).MinTimes(1)

	healthy := &countingSweeper{}
	job := NewSweepJob([]store.Sweeper{failing, healthy}, 10*time.Millisecond, logger.Nop())

	job.Run(context.Background())
	require.Eventually(t, func() bool { return healthy.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	job.Stop()
}
