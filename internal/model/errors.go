package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("mission not found")
	ErrUnauthorized    = errors.New("not mission owner")
	ErrInvalidArgument = errors.New("invalid argument")
)

// ValidationError rejects bad input on create or update.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidTransitionError is returned when a status change is not an edge
// of the mission status machine.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// ConnectionError wraps a failed database connection attempt.
type ConnectionError struct {
	Cause error
}

func (e *ConnectionError) Error() string {
	return "database connection failed: " + e.Cause.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// StorageError wraps an unexpected storage failure with operation context.
type StorageError struct {
	Op    string
	ID    string
	Cause error
}

func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("storage: %s: %s", e.Op, e.Cause.Error())
	}

	return fmt.Sprintf("storage: %s %s: %s", e.Op, e.ID, e.Cause.Error())
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
