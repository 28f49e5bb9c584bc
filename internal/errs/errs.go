// Package errs defines the structured error taxonomy surfaced to callers.
// Every rejection carries a machine-readable reason; none of them implies
// partial state (failed operations mutate nothing).
package errs

import (
	"errors"
	"fmt"
)

// ValidationError rejects a request before any mutation because a required
// field is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// NotFoundError rejects a request because the referenced entity does not
// exist or the caller has no access to it. The two cases are deliberately
// indistinguishable to the caller.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found or not accessible", e.Entity, e.ID)
}

// ConflictError rejects a request that violates an aggregate invariant:
// capacity reached, duplicate rating, closed challenge window, and so on.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// Validation builds a ValidationError.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFound builds a NotFoundError.
func NotFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// Conflict builds a ConflictError.
func Conflict(format string, args ...interface{}) error {
	return &ConflictError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
