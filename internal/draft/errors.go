package draft

import "errors"

// Coordinator error taxonomy. Callers classify with errors.Is; the HTTP
// layer maps each sentinel to a status code. Validation always happens
// before any mutation, so a returned error implies no state change.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidArgument = errors.New("invalid argument")
)
