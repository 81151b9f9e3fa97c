package service

import (
	"errors"
	"strings"
)

// ErrForbidden is returned when the actor is not the project's assigned
// requester or approver for the attempted operation.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a pending change request blocks the
// operation, or a request being decided is no longer pending. The caller
// must refresh and retry with updated context.
var ErrConflict = errors.New("conflict")

// ValidationError carries every validation failure of an operation so a
// caller can display all problems at once.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
