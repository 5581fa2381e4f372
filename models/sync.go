// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Field names a single piece of persisted authentication state.
type Field string

// Fields known to the storage backends. Backends store every field as an
// opaque string; the session layer owns their encoding.
const (
	FieldAccessToken  Field = "access_token"
	FieldRefreshToken Field = "refresh_token"
	FieldUser         Field = "user"
	FieldTimestamp    Field = "timestamp"
)

// AllFields lists every known field in a fixed order.
var AllFields = []Field{FieldAccessToken, FieldRefreshToken, FieldUser, FieldTimestamp}

// SyncPayload maps fields to their serialized values. Only present fields are
// written; absent fields are left untouched in every backend.
type SyncPayload map[Field]string

// Key returns the identity of the payload: the sorted set of field names it
// carries, joined with "|". Values do not take part in the identity, so two
// payloads touching the same fields share a key.
func (p SyncPayload) Key() string {
	names := make([]string, 0, len(p))
	for f := range p {
		names = append(names, string(f))
	}
	slices.Sort(names)

	return strings.Join(names, "|")
}

// Fields returns the payload field names in sorted order.
func (p SyncPayload) Fields() []Field {
	return slices.Sorted(maps.Keys(p))
}

// Merge overwrites the receiver's fields with the ones present in other
// (last write wins per field). A nil receiver is not allowed.
func (p SyncPayload) Merge(other SyncPayload) {
	maps.Copy(p, other)
}

// Clone returns an independent copy of the payload.
func (p SyncPayload) Clone() SyncPayload {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Size returns the total number of bytes held by the payload values.
func (p SyncPayload) Size() int {
	n := 0
	for _, v := range p {
		n += len(v)
	}
	return n
}

// StampedValue is a field value together with the time a backend last
// wrote it. A zero UpdatedAt means the backend keeps no write time.
type StampedValue struct {
	Value     string
	UpdatedAt time.Time
}

// StampedPayload is a payload whose fields carry their write time.
type StampedPayload map[Field]StampedValue

// Values returns the payload without write times.
func (p StampedPayload) Values() SyncPayload {
	out := make(SyncPayload, len(p))
	for f, v := range p {
		out[f] = v.Value
	}
	return out
}

// Stamp attaches updatedAt to every field of p.
func (p SyncPayload) Stamp(updatedAt time.Time) StampedPayload {
	out := make(StampedPayload, len(p))
	for f, v := range p {
		out[f] = StampedValue{Value: v, UpdatedAt: updatedAt}
	}
	return out
}

// Priority orders pending operations inside a flush. Higher values are
// processed first.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

// String implements fmt.Stringer.
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// ParsePriority converts "low", "medium" or "high" (case-insensitive) into a
// Priority. An empty string yields PriorityMedium.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "", "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityMedium, fmt.Errorf("unknown priority %q", s)
	}
}

// PendingOperation is a coalesced write waiting to be flushed.
//
// At most one PendingOperation per distinct field-name set exists at any
// time; its ID is the payload key.
type PendingOperation struct {
	// ID is the payload key (sorted field names).
	ID string
	// Payload holds the latest value for every field of the operation.
	Payload SyncPayload
	// EnqueuedAt is the time the operation was first created.
	EnqueuedAt time.Time
	// Priority is the highest priority any merged call asked for.
	Priority Priority
	// RetryCount is the number of retry passes the operation went through.
	// It is never reset by a refresh.
	RetryCount int
}

// ErrorKind classifies backend failures. Every kind is retryable.
type ErrorKind int

const (
	// BackendUnavailable means the medium is not present in this environment.
	BackendUnavailable ErrorKind = iota + 1
	// WriteFailed covers serialization problems and medium-level rejections.
	WriteFailed
	// InternalUnexpected is a panic that escaped a backend.
	InternalUnexpected
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case BackendUnavailable:
		return "backend_unavailable"
	case WriteFailed:
		return "write_failed"
	case InternalUnexpected:
		return "internal_unexpected"
	default:
		return "unknown"
	}
}

// SyncError is a single backend failure captured for an operation.
type SyncError struct {
	Backend string
	Kind    ErrorKind
	Err     error
}

// Error implements error.
func (e SyncError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Kind, e.Err)
}

// Unwrap returns the underlying backend error.
func (e SyncError) Unwrap() error {
	return e.Err
}

// SyncResult describes the outcome of persisting one operation, or the
// aggregate of a whole batch.
type SyncResult struct {
	OperationID   string        `json:"operation_id,omitempty"`
	Success       bool          `json:"success"`
	Errors        []SyncError   `json:"-"`
	Warnings      []string      `json:"warnings,omitempty"`
	FallbacksUsed []string      `json:"fallbacks_used,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Err joins the captured backend errors into a single error, or returns nil
// when none were recorded.
func (r SyncResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}

	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, e)
	}
	return fmt.Errorf("sync failed: %w", errors.Join(errs...))
}

// SyncConfig is the engine configuration as exposed through stats.
type SyncConfig struct {
	DebounceDelay         time.Duration `json:"debounce_delay"`
	HighPriorityDelay     time.Duration `json:"high_priority_delay"`
	MaxRetries            int           `json:"max_retries"`
	RetryDelay            time.Duration `json:"retry_delay"`
	EnableFallback        bool          `json:"enable_fallback"`
	BatchSize             int           `json:"batch_size"`
	EnableCompression     bool          `json:"enable_compression"`
	MinSuccessfulBackends int           `json:"min_successful_backends"`
}

// SyncStats is a read-only snapshot of the engine state.
type SyncStats struct {
	PendingOperations int        `json:"pending_operations"`
	IsProcessing      bool       `json:"is_processing"`
	LastSyncTime      time.Time  `json:"last_sync_time"`
	Config            SyncConfig `json:"config"`

	Passes    int64 `json:"passes"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}
