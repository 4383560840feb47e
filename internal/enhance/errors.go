package enhance

import (
	"errors"
	"fmt"
)

// Common enhancement errors. None of them reach callers of Enhance; they are
// logged and the raw text is returned instead.
var (
	// ErrDisabled is returned when enhancement is switched off in configuration.
	ErrDisabled = errors.New("text enhancement is disabled")

	// ErrModelNotConfigured is returned when no model name is set.
	ErrModelNotConfigured = errors.New("enhancement model is not configured")

	// ErrNoChoices is returned when the server answers without any choices.
	ErrNoChoices = errors.New("no response choices from enhancement server")

	// ErrEmptyResponse is returned when the model answers with blank text.
	ErrEmptyResponse = errors.New("enhancement server returned empty text")
)

// EnhanceError wraps errors with additional context about an enhancement failure.
type EnhanceError struct {
	// Op is the operation that failed (e.g., "Enhance", "IsServerAvailable").
	Op string

	// Err is the underlying error.
	Err error

	// Attempts is how many requests were made before giving up.
	Attempts int
}

// Error implements the error interface.
func (e *EnhanceError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("enhance: %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("enhance: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *EnhanceError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *EnhanceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapEnhanceError wraps err as an EnhanceError unless it already is one.
func WrapEnhanceError(op string, err error, attempts int) error {
	if err == nil {
		return nil
	}

	var enhErr *EnhanceError
	if errors.As(err, &enhErr) {
		return err
	}

	return &EnhanceError{Op: op, Err: err, Attempts: attempts}
}
