// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import "context"

// Client defines the minimal lifecycle contract for runnable client
// applications.
type Client interface {
	// Run starts the client application and blocks until exit.
	Run() error
}

// Flusher is the part of the sync engine the application drives on exit.
type Flusher interface {
	// Shutdown flushes pending writes and closes the engine.
	Shutdown(ctx context.Context) error
}
