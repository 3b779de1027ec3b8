package errors

import (
	"context"
	"errors"
	"fmt"
)

// Common error types used across the reqflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrNotRunning indicates that the scheduler has not been started
	ErrNotRunning = errors.New("scheduler is not running")

	// ErrCanceled indicates that an operation was canceled by a stop request
	ErrCanceled = errors.New("operation canceled")

	// ErrInvalidTarget indicates that a request target failed validation
	ErrInvalidTarget = errors.New("invalid request target")

	// ErrEmptyBatch indicates that a batch submission contained no tasks
	ErrEmptyBatch = errors.New("batch contains no tasks")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IsCanceled returns true if the error represents a cancellation, either
// from an explicit stop request or from context cancellation
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// ValidationError provides structured information about a configuration
// validation failure.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint to the error and returns it.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap allows errors.Is checks against ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}
