// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
)

const defaultSweepInterval = time.Hour

type sweepJob struct {
	sweepers []store.Sweeper
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweepJob creates a worker that purges expired entries from every
// sweeper on a ticker. If interval is zero or negative it defaults to one
// hour. The job is idle until Run is called.
func NewSweepJob(sweepers []store.Sweeper, interval time.Duration, log *logger.Logger) Worker {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &sweepJob{
		sweepers: sweepers,
		interval: interval,
		logger:   log.WithStr("worker", "sweep"),
	}
}

// Run stops any previously running loop, then launches a goroutine that
// sweeps every interval until ctx is cancelled or Stop is called.
func (j *sweepJob) Run(ctx context.Context) {
	j.Stop()

	if len(j.sweepers) == 0 {
		j.logger.Debug().Msg("no sweepers registered, sweep job is idle")
		return
	}

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				j.sweep(jobCtx)
			}
		}
	}()
}

// Stop cancels the loop and blocks until it has exited.
func (j *sweepJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

func (j *sweepJob) sweep(ctx context.Context) {
	for _, s := range j.sweepers {
		removed, err := s.Sweep(ctx)
		if err != nil {
			j.logger.Warn().Err(err).Msg("sweep failed")
			continue
		}
		if removed > 0 {
			j.logger.Info().Int("removed", removed).Msg("expired entries purged")
		}
	}
}
