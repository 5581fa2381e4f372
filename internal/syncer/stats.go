package syncer

import (
	"slices"

	"github.com/MKhiriev/go-auth-keeper/models"
)

// Stats returns a snapshot of the engine state. It never mutates the engine.
func (e *Engine) Stats() models.SyncStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return models.SyncStats{
		PendingOperations: len(e.pending),
		IsProcessing:      e.processing,
		LastSyncTime:      e.lastSync,
		Config:            e.cfg,
		Passes:            e.counters.passes,
		Succeeded:         e.counters.succeeded,
		Failed:            e.counters.failed,
		Dropped:           e.counters.dropped,
	}
}

// Pending returns copies of the pending operations in flush order.
func (e *Engine) Pending() []models.PendingOperation {
	e.mu.Lock()
	ops := make([]models.PendingOperation, 0, len(e.pending))
	for _, op := range e.pending {
		p := op.PendingOperation
		p.Payload = op.Payload.Clone()
		ops = append(ops, p)
	}
	e.mu.Unlock()

	sortOperations(ops)
	return slices.Clip(ops)
}
