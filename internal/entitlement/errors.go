package entitlement

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by stores for users without a record.
	ErrNotFound = errors.New("entitlement: not found")
	// ErrValidation marks malformed user input; callers re-prompt.
	ErrValidation = errors.New("entitlement: validation failed")
	// ErrInvalidPhone is returned for phone numbers of the wrong shape.
	ErrInvalidPhone = &ValidationError{Field: "phone_number", Reason: "expected 10 digits starting with 0 or 9 digits not starting with 0"}
	// ErrInvalidCode is returned for codes that are not exactly 4 digits.
	ErrInvalidCode = &ValidationError{Field: "code", Reason: "expected exactly 4 digits"}
)

// ValidationError describes which input field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Code returns a stable identifier used in structured logs.
func (e *ValidationError) Code() string {
	return "invalid_" + e.Field
}
