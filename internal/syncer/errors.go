package syncer

import "errors"

var (
	// ErrEngineClosed is reported by a forced flush on a closed engine.
	ErrEngineClosed = errors.New("sync engine is closed")

	// ErrPassAborted is reported for an operation whose pass ended before it
	// was attempted.
	ErrPassAborted = errors.New("sync pass aborted")

	// ErrBackendPanic wraps a panic that escaped a storage backend.
	ErrBackendPanic = errors.New("storage backend panicked")

	// ErrNoBackends is reported when the chain holds no usable backend.
	ErrNoBackends = errors.New("no storage backend available")
)
