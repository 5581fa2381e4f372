package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MKhiriev/go-auth-keeper/models"
)

func TestEvaluate(t *testing.T) {
	pending := map[string]*operation{
		"ok":        {revision: 1},
		"refreshed": {revision: 3},
		"retry":     {revision: 1},
		"exhausted": {revision: 1},
		"fresh-bad": {revision: 2},
		"untried":   {revision: 1},
	}
	snap := func(id string, retries int) snapshotEntry {
		return snapshotEntry{op: models.PendingOperation{ID: id, RetryCount: retries}, revision: 1}
	}
	snapshot := []snapshotEntry{
		snap("ok", 0),
		snap("refreshed", 0),
		snap("retry", 2),
		snap("exhausted", 3),
		snap("fresh-bad", 3),
		snap("untried", 0),
		snap("cleared", 0),
	}
	results := map[string]models.SyncResult{
		"ok":        {Success: true},
		"refreshed": {Success: true},
		"retry":     {Success: false},
		"exhausted": {Success: false},
		"fresh-bad": {Success: false},
		"cleared":   {Success: true},
	}

	d := evaluate(snapshot, results, pending, 3)

	assert.Equal(t, []string{"ok"}, d.toRemove)
	assert.Equal(t, []string{"retry", "fresh-bad"}, d.toReschedule)
	assert.Equal(t, []string{"exhausted"}, d.toDrop)
}

func TestEvaluate_ZeroRetriesDropsOnFirstFailure(t *testing.T) {
	pending := map[string]*operation{"op": {revision: 1}}
	snapshot := []snapshotEntry{{op: models.PendingOperation{ID: "op"}, revision: 1}}

	d := evaluate(snapshot, map[string]models.SyncResult{"op": {}}, pending, 0)

	assert.Equal(t, []string{"op"}, d.toDrop)
	assert.Empty(t, d.toReschedule)
}
