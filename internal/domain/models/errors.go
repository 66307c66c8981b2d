package models

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable marks a network, timeout or rate-limit failure of one adapter.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrInsufficientData marks a profile to which no adapter contributed.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrStakeCapViolation marks a raw stake above the configured cap.
	ErrStakeCapViolation = errors.New("stake exceeds cap")
)

// SourceError wraps an adapter failure. It unwraps to ErrSourceUnavailable.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

// ValidationError reports malformed input. It is the only error class
// propagated to callers.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
