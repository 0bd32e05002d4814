package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/familysync/internal/auth"
	"github.com/mmynk/familysync/internal/family"
)

// connectError maps domain errors onto Connect codes. Errors that are
// neither expected nor transient are reported as internal.
func connectError(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, family.ErrValidation):
		code = connect.CodeInvalidArgument
	case errors.Is(err, family.ErrFamilyNotFound),
		errors.Is(err, family.ErrItemNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, family.ErrNoActiveFamily):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, family.ErrConflict):
		code = connect.CodeAborted
	case errors.Is(err, auth.ErrNotAuthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		code = connect.CodeUnauthenticated
	case errors.Is(err, family.ErrUnavailable):
		code = connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}
