package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfig is returned when a request cannot be served because of missing configuration,
	// such as an absent or placeholder API key.
	ErrConfig = errors.New("configuration error")
	// ErrUpstream is returned when the index could not be repaired after an embedding size change.
	ErrUpstream = errors.New("upstream failure")
	// ErrExternalService is returned when the vector store or embedding API fails during retrieval.
	ErrExternalService = errors.New("external service error")
)

// ValidationError represents a validation error with a field name.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
