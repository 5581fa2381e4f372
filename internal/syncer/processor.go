package syncer

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// sortOperations orders ops by descending priority. Ties are broken by
// enqueue time and then by id so the order is stable between passes.
func sortOperations(ops []models.PendingOperation) {
	slices.SortStableFunc(ops, func(a, b models.PendingOperation) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := a.EnqueuedAt.Compare(b.EnqueuedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// chunk cuts ops into consecutive batches of at most size operations.
func chunk(ops []models.PendingOperation, size int) [][]models.PendingOperation {
	size = max(size, 1)

	batches := make([][]models.PendingOperation, 0, (len(ops)+size-1)/size)
	for batch := range slices.Chunk(ops, size) {
		batches = append(batches, batch)
	}
	return batches
}

// processor runs one flush pass over a snapshot of pending operations.
type processor struct {
	chain     *Chain
	batchSize int

	// onBatch, when set, is called before every batch is attempted.
	onBatch func(batch []models.PendingOperation)
}

// passOutcome is what a pass reports back to the engine.
type passOutcome struct {
	results map[string]models.SyncResult
	// aborted is set when the pass ended before every operation was tried.
	aborted bool
}

// run sorts ops, cuts them into batches and attempts the batches one after
// another. Operations of one batch are written concurrently. A panic outside
// the per-operation scope ends the pass; operations not attempted yet are
// absent from the outcome.
func (p *processor) run(ctx context.Context, ops []models.PendingOperation) (out passOutcome) {
	log := logger.FromContext(ctx)
	out.results = make(map[string]models.SyncResult, len(ops))

	var mu sync.Mutex
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("func", "processor.run").
				Str("panic", fmt.Sprint(r)).
				Int("attempted", len(out.results)).
				Int("total", len(ops)).
				Msg("sync pass aborted by panic")
			out.aborted = true
		}
	}()

	sortOperations(ops)

	for i, batch := range chunk(ops, p.batchSize) {
		if p.onBatch != nil {
			p.onBatch(batch)
		}

		log.Debug().
			Int("batch", i).
			Int("size", len(batch)).
			Msg("processing batch")

		var g errgroup.Group
		for _, op := range batch {
			g.Go(func() error {
				res := p.chain.Write(ctx, op.Payload)
				res.OperationID = op.ID

				mu.Lock()
				out.results[op.ID] = res
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	return out
}
