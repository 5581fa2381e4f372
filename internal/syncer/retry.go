package syncer

import (
	"github.com/MKhiriev/go-auth-keeper/models"
)

// snapshotEntry is one operation as a pass saw it.
type snapshotEntry struct {
	op       models.PendingOperation
	revision uint64
}

// decision splits the operations of a finished pass by what happens to them
// next.
type decision struct {
	// toRemove were persisted and not refreshed since the snapshot.
	toRemove []string
	// toReschedule failed and stay pending for a retry.
	toReschedule []string
	// toDrop failed with no retries left.
	toDrop []string
}

// evaluate decides the fate of every snapshotted operation that has a
// result. Operations missing from results (pass aborted) or from pending
// (cleared meanwhile) are left alone.
//
// An operation refreshed during the pass is never removed or dropped: it
// carries values the pass did not write.
func evaluate(snapshot []snapshotEntry, results map[string]models.SyncResult, pending map[string]*operation, maxRetries int) decision {
	var d decision

	for _, s := range snapshot {
		res, ok := results[s.op.ID]
		if !ok {
			continue
		}
		cur, ok := pending[s.op.ID]
		if !ok {
			continue
		}
		refreshed := cur.revision != s.revision

		switch {
		case res.Success && !refreshed:
			d.toRemove = append(d.toRemove, s.op.ID)
		case res.Success:
			// newer values still need a pass of their own
		case s.op.RetryCount >= maxRetries && !refreshed:
			d.toDrop = append(d.toDrop, s.op.ID)
		default:
			d.toReschedule = append(d.toReschedule, s.op.ID)
		}
	}

	return d
}
