package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrHTTPStatus indicates a response outside the 2xx range.
	ErrHTTPStatus = errors.New("backend: unexpected http status")

	// ErrMalformed indicates a response body that is not the expected JSON.
	ErrMalformed = errors.New("backend: malformed response")

	// ErrEmptyBody indicates a successful status with nothing in the body.
	ErrEmptyBody = errors.New("backend: empty response body")
)

// StatusError carries the status code of a non-2xx response.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s: http %d", e.URL, e.Code)
}

func (e *StatusError) Unwrap() error {
	return ErrHTTPStatus
}
