package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrStateConflict   = errors.New("state conflict")
	ErrAlreadyClaimed  = errors.New("already claimed")
	ErrAlreadyOpen     = errors.New("session already open")
	ErrNotCompleted    = fmt.Errorf("%w: quest not completed", ErrStateConflict)
	ErrClockRegression = errors.New("clock regression")
	// ErrVersionConflict is returned by stores when a compare-and-swap loses a race.
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")
)

// ValidationError describes a malformed definition. It unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Conflict wraps ErrStateConflict with the attempted transition.
func Conflict(entity, from, to string) error {
	return fmt.Errorf("%w: %s cannot move from %s to %s", ErrStateConflict, entity, from, to)
}

// NotFound wraps ErrNotFound with the missing entity and key.
func NotFound(entity string, key any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, key)
}

// IsBenign reports whether err is an expected outcome under concurrency or
// retried event delivery. Callers treat these as "no further action".
func IsBenign(err error) bool {
	return errors.Is(err, ErrStateConflict) ||
		errors.Is(err, ErrAlreadyClaimed) ||
		errors.Is(err, ErrAlreadyOpen) ||
		errors.Is(err, ErrAlreadyExists)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
