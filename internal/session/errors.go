package session

import "errors"

var (
	// ErrUnknownDriver indicates a configured driver name with no implementation.
	ErrUnknownDriver = errors.New("session: unknown driver")

	// ErrInvalidID indicates a session id that is not a UUID.
	ErrInvalidID = errors.New("session: invalid session id")
)
