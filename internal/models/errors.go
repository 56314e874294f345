package models

import "errors"

// Domain errors shared across services and handlers. Handlers translate
// these into HTTP statuses; repositories translate storage errors into them.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("not enough permissions")
	ErrInvalidState      = errors.New("can only register for published events")
	ErrAlreadyRegistered = errors.New("already registered for this event")
	ErrCapacityExceeded  = errors.New("event is at full capacity")
)
