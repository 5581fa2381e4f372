package syncer

import (
	"time"

	"github.com/MKhiriev/go-auth-keeper/models"
)

// operation is the engine-owned state of one pending write.
type operation struct {
	models.PendingOperation

	// revision grows on every merge. A pass only removes the operation when
	// the revision it wrote is still the current one.
	revision uint64
	// failed marks an operation whose last attempt failed; the next snapshot
	// turns it into a retry.
	failed bool
}

// coalesce merges payload into set. Payloads with the same field-name set
// share one operation: values are overwritten per field, the higher priority
// is kept and the retry counter is left untouched.
func coalesce(set map[string]*operation, payload models.SyncPayload, priority models.Priority, now time.Time) *operation {
	id := payload.Key()

	op, ok := set[id]
	if !ok {
		op = &operation{
			PendingOperation: models.PendingOperation{
				ID:         id,
				Payload:    payload.Clone(),
				EnqueuedAt: now,
				Priority:   priority,
			},
			revision: 1,
		}
		set[id] = op
		return op
	}

	op.Payload.Merge(payload)
	op.Priority = max(op.Priority, priority)
	op.revision++

	return op
}

// highestPriority returns the highest priority in set, or PriorityLow when
// the set is empty.
func highestPriority(set map[string]*operation) models.Priority {
	p := models.PriorityLow
	for _, op := range set {
		p = max(p, op.Priority)
	}
	return p
}
