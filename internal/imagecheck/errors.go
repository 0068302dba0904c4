package imagecheck

import "errors"

var (
	ErrUnknownWatch = errors.New("unknown results page")
	ErrNoSource     = errors.New("image has no src")
)
