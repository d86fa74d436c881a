// Package sentinel holds the storage facts that journal and audit backends
// report. Services translate them into domain errors; they never reach a
// client unwrapped.
package sentinel

import "errors"

var (
	// ErrConflict means the journal slot was taken by a concurrent writer,
	// or the entry does not directly follow the last stored sequence.
	ErrConflict = errors.New("journal sequence conflict")
	// ErrUnavailable means the backend could not be reached.
	ErrUnavailable = errors.New("storage backend unavailable")
)
