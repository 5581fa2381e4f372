// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the agent process lifecycle.
//
// It restores the persisted session, runs the background workers and the
// admin server, and on SIGINT/SIGTERM flushes every pending write before
// exiting.
package client
