package form

import "errors"

var (
	// ErrUnknownField indicates an identifier that names no form field.
	ErrUnknownField = errors.New("form: unknown field")

	// ErrAbsentField indicates an optional field missing from the layout.
	ErrAbsentField = errors.New("form: field not present in layout")

	// ErrUnknownPreset indicates a preset name with no registered values.
	ErrUnknownPreset = errors.New("form: unknown preset")
)

// StoreError wraps a failure of the injected session store with the key involved.
type StoreError struct {
	Op      string
	Key     string
	Wrapped error
}

func (e *StoreError) Error() string {
	return "form: store " + e.Op + " " + e.Key + ": " + e.Wrapped.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Wrapped
}
