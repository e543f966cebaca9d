package domain

import "errors"

// ErrModelUnavailable is returned when no model artifact has been loaded.
var ErrModelUnavailable = errors.New("model not loaded")

// ValidationError is a client-caused rejection raised before any scoring is
// attempted. Message is the exact text returned to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ScoringError wraps a failure during feature coercion or the model call.
type ScoringError struct {
	Err error
}

func (e *ScoringError) Error() string { return e.Err.Error() }

func (e *ScoringError) Unwrap() error { return e.Err }
