package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrScoreNotFound      = errors.New("no credit score found")

	// ErrInconsistentWrite guards the rescore protocol: a score history
	// entry must never reference a transaction that was not persisted.
	// Unreachable while the protocol holds.
	ErrInconsistentWrite = errors.New("score history entry references unpersisted transaction")
)

// ValidationError rejects malformed input before any store mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
