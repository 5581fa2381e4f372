package store

import "errors"

// Sentinel errors returned by backends. Callers should use [errors.Is] to
// match against these values.
var (
	// ErrBackendUnavailable is returned when the medium does not exist in
	// the current execution context (no keychain daemon, read-only
	// directory, closed database).
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// ErrValueTooLarge is returned when a value exceeds the medium's size
	// limit.
	ErrValueTooLarge = errors.New("value exceeds backend size limit")
)

// Chain setup errors returned by [NewBackends].
var (
	// ErrSealerRequired is returned when the cookie jar is selected without a
	// sealer.
	ErrSealerRequired = errors.New("cookie backend requires a sealer")

	// ErrUnknownSecondary is returned for an unsupported secondary backend
	// kind.
	ErrUnknownSecondary = errors.New("unknown secondary backend")
)

// Low-level database operation errors of the SQLite backend.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails.
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a statement fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrScanningRows is returned when scanning a result row fails.
	ErrScanningRows = errors.New("failed to scan auth state rows")
)

// Cookie jar errors.
var (
	// ErrJarCorrupted is returned when the jar file cannot be decoded.
	ErrJarCorrupted = errors.New("cookie jar file is corrupted")
)
