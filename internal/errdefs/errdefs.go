// Package errdefs defines the error classes surfaced across the command
// boundary: validation, not-found, external-service, and conflict errors.
// Callers classify with errors.As; construction wraps an underlying cause
// where one exists.
package errdefs

import "fmt"

// ValidationError indicates malformed input caught before any side effect
// (bad publisher DN, empty rule subject, invalid rule spec).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// Validation creates a ValidationError for the given field.
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError indicates a referenced resource (file, machine, rule id)
// does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// NotFound creates a NotFoundError.
func NotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ExternalServiceError wraps a failure from a collaborator (file system,
// downstream execution). The cause is preserved for errors.Is/As chains.
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// External wraps err as an ExternalServiceError.
func External(service, op string, err error) error {
	return &ExternalServiceError{Service: service, Op: op, Err: err}
}

// ConflictError indicates an operation raced with another on the same
// resource, e.g. two evidence package generations against one directory.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Reason)
}

// Conflict creates a ConflictError.
func Conflict(resource, reason string) error {
	return &ConflictError{Resource: resource, Reason: reason}
}
