package core

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupted is returned when a file set is structurally inconsistent:
	// bad magic, a bucket table that disagrees with the totals, or a stream
	// that ends before the records the index promises.
	ErrCorrupted = errors.New("meryl data is corrupted")
	// ErrMerSizeMismatch is returned by a reader opened with an expected mer
	// size that differs from the one recorded in the header.
	ErrMerSizeMismatch = errors.New("mer size mismatch")
	// ErrOutOfOrder is returned when a mer is not strictly greater than the
	// previously written one.
	ErrOutOfOrder = errors.New("mers must be added in strictly increasing order")
	// ErrZeroCount is returned when a mer is added with a count of zero.
	ErrZeroCount = errors.New("mer count must be at least 1")
	ErrClosed    = errors.New("meryl stream is closed")
	ErrLocked    = errors.New("meryl file set is locked by another writer")
)

// ValidationError is a custom error type for invalid parameters.
type ValidationError struct {
	Message string
	Field   string // e.g., "merSize", "prefixSize", "count"
	Value   string // The invalid value
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s '%s': %s", e.Field, e.Value, e.Message)
}

// NewValidationError builds a ValidationError, formatting the value with %v.
func NewValidationError(field string, value any, format string, args ...any) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf(format, args...),
		Field:   field,
		Value:   fmt.Sprintf("%v", value),
	}
}

type UnsupportedTypeError struct {
	Message string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported type value: %s", e.Message)
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var validationError *ValidationError
	// Use errors.As to check if the error (or any error in its chain) is a ValidationError.
	return errors.As(err, &validationError)
}

func IsUnsupportedError(err error) bool {
	var unsupportedError *UnsupportedTypeError
	return errors.As(err, &unsupportedError)
}
