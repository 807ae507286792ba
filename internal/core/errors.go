package core

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller input that cannot be processed.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrDimensionMismatch is returned when an embedding does not match the
	// index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyResult is wrapped in an InferenceError when a provider
	// succeeds but returns nothing usable.
	ErrEmptyResult = errors.New("empty inference result")
)

// InferenceError reports a failed call to an inference capability.
type InferenceError struct {
	Capability string
	Err        error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference %s failed: %v", e.Capability, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
