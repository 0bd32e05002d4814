package storage

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// so services can translate them into domain errors.
//
// - ErrNotFound: document does not exist
// - ErrConflict: document with the same key already exists
// - ErrTransient: the backend failed in a way worth retrying (busy, dropped connection)
// - ErrUnavailable: transient failures persisted after retries
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrTransient   = errors.New("transient storage failure")
	ErrUnavailable = errors.New("storage unavailable")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
