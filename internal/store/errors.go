package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record or subscription matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrValidation classifies every *ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports the first required field that is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
