package family

import (
	"errors"

	"github.com/mmynk/familysync/internal/storage"
)

// Domain errors. Callers match them with errors.Is; the wrapped message
// carries the detail (which field, which code).
var (
	ErrValidation     = errors.New("validation failed")
	ErrFamilyNotFound = errors.New("family not found")
	ErrItemNotFound   = errors.New("item not found")
	ErrNoActiveFamily = errors.New("no active family")
	ErrConflict       = errors.New("conflict")

	// ErrUnavailable is the storage error reported once retries are exhausted.
	ErrUnavailable = storage.ErrUnavailable
)

// resultClasses labels expected failures in operation metrics.
var resultClasses = map[error]string{
	ErrValidation:     "invalid",
	ErrFamilyNotFound: "not_found",
	ErrItemNotFound:   "not_found",
	ErrNoActiveFamily: "no_family",
	ErrConflict:       "conflict",
	ErrUnavailable:    "unavailable",
}
