// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// Pass triggers, used as log fields and metric labels.
const (
	triggerDebounce = "debounce"
	triggerRetry    = "retry"
	triggerForced   = "forced"
)

// engineBackend names the engine itself in results it produces without
// reaching any storage backend.
const engineBackend = "engine"

// Engine coalesces auth state writes and flushes them through a [Chain].
//
// All methods are safe for concurrent use. At most one flush pass runs at a
// time; backend I/O happens outside the engine lock.
type Engine struct {
	cfg     models.SyncConfig
	chain   *Chain
	proc    *processor
	clock   Clock
	logger  *logger.Logger
	metrics *Metrics
	ids     *utils.UUIDGenerator

	mu         sync.Mutex
	pending    map[string]*operation
	timer      Timer
	timerGen   uint64
	processing bool
	passDone   chan struct{}
	// epoch grows on every clear so a running pass can tell its snapshot
	// is stale.
	epoch    uint64
	lastSync time.Time
	closed   bool
	counters counters
}

type counters struct {
	passes    int64
	succeeded int64
	failed    int64
	dropped   int64
}

// Option customises an [Engine].
type Option func(*Engine)

// WithClock replaces the real clock.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics makes the engine report to m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine returns an idle engine writing through chain.
func NewEngine(cfg models.SyncConfig, chain *Chain, opts ...Option) *Engine {
	cfg.BatchSize = max(cfg.BatchSize, 1)
	cfg.MaxRetries = max(cfg.MaxRetries, 0)
	cfg.MinSuccessfulBackends = max(cfg.MinSuccessfulBackends, 1)

	e := &Engine{
		cfg:     cfg,
		chain:   chain,
		clock:   RealClock(),
		logger:  logger.Nop(),
		ids:     utils.NewUUIDGenerator(),
		pending: make(map[string]*operation),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.proc = &processor{chain: chain, batchSize: cfg.BatchSize}

	if cfg.EnableCompression {
		e.logger.Warn().Msg("enable_compression is reserved and has no effect")
	}

	return e
}

// ScheduleSync queues payload for a debounced flush. Empty payloads are
// ignored. Calls touching the same set of fields are coalesced; every call
// restarts the debounce window.
func (e *Engine) ScheduleSync(payload models.SyncPayload, priority models.Priority) {
	if len(payload) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		e.logger.Warn().Str("fields", payload.Key()).Msg("sync scheduled on a closed engine, ignoring")
		return
	}

	op := coalesce(e.pending, payload, priority, e.clock.Now())
	delay := e.debounceDelayLocked()
	e.armLocked(delay, triggerDebounce)
	e.metrics.setPending(len(e.pending))

	e.logger.Debug().
		Str("operation_id", op.ID).
		Stringer("priority", op.Priority).
		Dur("delay", delay).
		Int("pending", len(e.pending)).
		Msg("sync scheduled")
}

// ForceSyncImmediate merges payload with high priority and flushes every
// pending operation right away, waiting for a running pass first. It returns
// the result of the operation carrying payload, or the combined result of
// the pass when payload is empty.
func (e *Engine) ForceSyncImmediate(ctx context.Context, payload models.SyncPayload) models.SyncResult {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()
		return engineFailure(payload.Key(), models.WriteFailed, ErrEngineClosed)
	}

	e.stopTimerLocked()

	id := ""
	if len(payload) > 0 {
		id = coalesce(e.pending, payload, models.PriorityHigh, e.clock.Now()).ID
		e.metrics.setPending(len(e.pending))
	}

	for e.processing {
		done := e.passDone
		e.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			e.mu.Lock()
			if !e.closed && e.timer == nil && len(e.pending) > 0 {
				e.armLocked(e.debounceDelayLocked(), triggerDebounce)
			}
			e.mu.Unlock()
			return engineFailure(id, models.WriteFailed, ctx.Err())
		}

		e.mu.Lock()
	}

	if e.closed {
		e.mu.Unlock()
		return engineFailure(id, models.WriteFailed, ErrEngineClosed)
	}
	if id != "" {
		if _, ok := e.pending[id]; !ok {
			e.mu.Unlock()
			return engineFailure(id, models.WriteFailed, ErrPassAborted)
		}
	}
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return models.SyncResult{Success: true}
	}

	// the pass we waited for may have armed a retry
	e.stopTimerLocked()
	snapshot, epoch := e.beginPassLocked()
	e.mu.Unlock()

	out := e.runPass(ctx, triggerForced, snapshot, epoch)

	if id == "" {
		return combineResults(out)
	}
	res, ok := out.results[id]
	if !ok {
		return engineFailure(id, models.InternalUnexpected, ErrPassAborted)
	}
	return res
}

// ClearPendingOperations discards every pending operation and cancels the
// armed timer. Writes already handed to a backend are not cancelled, but
// the running pass neither removes nor retries anything afterwards.
func (e *Engine) ClearPendingOperations() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopTimerLocked()
	n := len(e.pending)
	e.pending = make(map[string]*operation)
	e.epoch++
	e.metrics.setPending(0)

	e.logger.Info().Int("discarded", n).Msg("pending sync operations cleared")
}

// Close stops the timers. Operations still pending are not flushed; use
// Shutdown for that.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.stopTimerLocked()
}

// Shutdown flushes every pending operation and closes the engine.
func (e *Engine) Shutdown(ctx context.Context) error {
	res := e.ForceSyncImmediate(ctx, nil)
	e.Close()

	if res.Success {
		return nil
	}
	if err := res.Err(); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	return fmt.Errorf("final flush: %w", ErrPassAborted)
}

func (e *Engine) debounceDelayLocked() time.Duration {
	if highestPriority(e.pending) == models.PriorityHigh {
		return e.cfg.HighPriorityDelay
	}
	return e.cfg.DebounceDelay
}

// armLocked replaces the armed timer, if any, with a new one.
func (e *Engine) armLocked(d time.Duration, trigger string) {
	e.stopTimerLocked()

	gen := e.timerGen
	e.timer = e.clock.AfterFunc(d, func() { e.onTimer(gen, trigger) })
}

// stopTimerLocked cancels the armed timer. Bumping the generation turns a
// callback that already started into a no-op.
func (e *Engine) stopTimerLocked() {
	e.timerGen++
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}

func (e *Engine) onTimer(gen uint64, trigger string) {
	e.mu.Lock()

	if gen != e.timerGen || e.closed {
		e.mu.Unlock()
		return
	}
	e.timer = nil

	if e.processing {
		e.mu.Unlock()
		e.logger.Debug().Str("trigger", trigger).Msg("flush requested while a pass is running, deferring")
		return
	}
	if len(e.pending) == 0 {
		e.mu.Unlock()
		return
	}

	snapshot, epoch := e.beginPassLocked()
	e.mu.Unlock()

	e.runPass(context.Background(), trigger, snapshot, epoch)
}

// beginPassLocked marks the engine busy and snapshots the pending set.
// Operations that failed in the previous pass count one more retry.
func (e *Engine) beginPassLocked() ([]snapshotEntry, uint64) {
	e.processing = true
	e.passDone = make(chan struct{})
	e.metrics.setProcessing(true)

	snapshot := make([]snapshotEntry, 0, len(e.pending))
	for _, op := range e.pending {
		if op.failed {
			op.RetryCount++
			op.failed = false
		}

		s := op.PendingOperation
		s.Payload = op.Payload.Clone()
		snapshot = append(snapshot, snapshotEntry{op: s, revision: op.revision})
	}

	return snapshot, e.epoch
}

func (e *Engine) runPass(ctx context.Context, trigger string, snapshot []snapshotEntry, epoch uint64) passOutcome {
	log := e.logger.WithStr("pass_id", e.ids.Generate())
	ctx = log.WithContext(ctx)
	start := time.Now()

	ops := make([]models.PendingOperation, 0, len(snapshot))
	for _, s := range snapshot {
		ops = append(ops, s.op)
	}

	log.Debug().
		Str("trigger", trigger).
		Int("operations", len(ops)).
		Msg("sync pass started")

	out := e.proc.run(ctx, ops)
	e.finishPass(log, snapshot, epoch, out)

	e.metrics.observePass(trigger, time.Since(start))

	return out
}

func (e *Engine) finishPass(log *logger.Logger, snapshot []snapshotEntry, epoch uint64, out passOutcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.processing = false
	close(e.passDone)
	e.metrics.setProcessing(false)
	e.lastSync = e.clock.Now()
	e.counters.passes++

	succeeded, failed := 0, 0
	for _, res := range out.results {
		e.metrics.observeResult(res)
		if res.Success {
			succeeded++
		} else {
			failed++
		}
	}
	e.counters.succeeded += int64(succeeded)
	e.counters.failed += int64(failed)
	e.metrics.observeOutcome("succeeded", succeeded)
	e.metrics.observeOutcome("failed", failed)

	if epoch != e.epoch {
		log.Info().Msg("pending operations were cleared during the pass, discarding its results")
		e.rescheduleLocked(false)
		return
	}

	d := evaluate(snapshot, out.results, e.pending, e.cfg.MaxRetries)
	for _, id := range d.toRemove {
		delete(e.pending, id)
	}
	for _, id := range d.toReschedule {
		e.pending[id].failed = true
	}
	for _, id := range d.toDrop {
		op := e.pending[id]
		delete(e.pending, id)

		log.Error().
			Err(out.results[id].Err()).
			Str("operation_id", id).
			Int("retry_count", op.RetryCount).
			Msg("dropping sync operation, retries exhausted")
	}
	e.counters.dropped += int64(len(d.toDrop))
	e.metrics.observeOutcome("dropped", len(d.toDrop))
	e.metrics.setPending(len(e.pending))

	log.Debug().
		Int("persisted", len(d.toRemove)).
		Int("retrying", len(d.toReschedule)).
		Int("dropped", len(d.toDrop)).
		Int("pending", len(e.pending)).
		Bool("aborted", out.aborted).
		Msg("sync pass finished")

	e.rescheduleLocked(len(d.toReschedule) > 0 || out.aborted)
}

// rescheduleLocked arms the follow-up flush after a pass. A timer armed by a
// schedule during the pass is kept as is.
func (e *Engine) rescheduleLocked(retry bool) {
	switch {
	case e.closed, e.timer != nil, len(e.pending) == 0:
	case retry:
		e.armLocked(e.cfg.RetryDelay, triggerRetry)
	default:
		e.armLocked(e.debounceDelayLocked(), triggerDebounce)
	}
}

// engineFailure is a failed result that never reached a backend.
func engineFailure(id string, kind models.ErrorKind, err error) models.SyncResult {
	return models.SyncResult{
		OperationID: id,
		Errors:      []models.SyncError{{Backend: engineBackend, Kind: kind, Err: err}},
	}
}

// combineResults folds every result of a pass into one.
func combineResults(out passOutcome) models.SyncResult {
	res := models.SyncResult{Success: !out.aborted}
	for _, r := range out.results {
		res.Success = res.Success && r.Success
		res.Errors = append(res.Errors, r.Errors...)
		res.Warnings = append(res.Warnings, r.Warnings...)
		res.FallbacksUsed = append(res.FallbacksUsed, r.FallbacksUsed...)
		res.Duration = max(res.Duration, r.Duration)
	}
	if out.aborted {
		res.Errors = append(res.Errors, models.SyncError{
			Backend: engineBackend,
			Kind:    models.InternalUnexpected,
			Err:     ErrPassAborted,
		})
	}
	return res
}

// IsClosed reports whether Close or Shutdown was called.
func (e *Engine) IsClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
