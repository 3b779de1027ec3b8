// Package validation provides common validation utilities for the reqflow library.
package validation

import (
	"fmt"
	"net/url"

	rferrors "github.com/vnykmshr/reqflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return rferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateRange validates that an integer value lies within [min, max].
// Returns a ValidationError if the value is out of range.
func ValidateRange(module, field string, value, min, max int) error {
	if value < min || value > max {
		return rferrors.NewValidationError(module, field, value, "out of range").
			WithHint(fmt.Sprintf("use a value between %d and %d", min, max))
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
// Returns a ValidationError if the value is nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return rferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return rferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// ValidateTarget validates that a request target is a well-formed URL with a
// supported scheme and a host. Returns a ValidationError describing the first
// problem found.
func ValidateTarget(module, field, target string) error {
	if target == "" {
		return rferrors.NewValidationError(module, field, target, "cannot be empty").
			WithHint("provide a non-empty target URL")
	}

	u, err := url.Parse(target)
	if err != nil {
		return rferrors.NewValidationError(module, field, target, "malformed URL").
			WithHint(err.Error())
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return rferrors.NewValidationError(module, field, target, "unsupported scheme").
			WithHint("use http, https, ws or wss")
	}

	if u.Host == "" {
		return rferrors.NewValidationError(module, field, target, "missing host")
	}

	return nil
}

// IsValidTarget reports whether a target passes ValidateTarget.
func IsValidTarget(target string) bool {
	return ValidateTarget("validation", "target", target) == nil
}
