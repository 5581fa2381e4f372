// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package syncer implements the storage synchronization engine of the
// go-auth-keeper agent.
//
// Callers hand small field-level updates of the authentication state to an
// [Engine]. Updates touching the same set of fields are coalesced into one
// pending operation and flushed after a sliding debounce window, shorter when
// a high priority update is pending. A flush pass sorts the pending
// operations by priority, cuts them into batches and writes every operation
// through a [Chain] of storage backends:
//
//	primary (sqlite) ─► secondary (cookie jar | keyring) ─► fallback (memory)
//
// Primary and secondary are always attempted independently of each other.
// The fallback is best effort: it is attempted only when an earlier backend
// failed, and its failures are warnings. An operation is persisted when at
// least MinSuccessfulBackends mandatory backends accepted it. Failed
// operations stay pending and are retried after RetryDelay until they exceed
// MaxRetries, at which point they are dropped and reported.
//
// Time is taken from a [Clock] so tests can drive timers deterministically.
package syncer
