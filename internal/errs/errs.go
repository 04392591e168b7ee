// Package errs holds the error taxonomy shared by ingestion, storage and the
// HTTP and gRPC surfaces.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIngestionDisabled is returned by every mutating operation while the
// ingestion kill switch is off.
var ErrIngestionDisabled = errors.New("ingestion is disabled")

// ValidationError reports malformed or missing input
type ValidationError struct {
	Field   string
	Reasons []string
}

func (e *ValidationError) Error() string {
	msg := strings.Join(e.Reasons, ", ")
	if e.Field != "" && msg == "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return msg
}

// Validation builds a ValidationError from one or more reasons.
func Validation(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

// NotFoundError reports a reference to a record that does not exist
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

// PolicyError reports an action forbidden by configuration
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

// Policy builds a PolicyError.
func Policy(reason string) *PolicyError {
	return &PolicyError{Reason: reason}
}

// ConflictError reports a uniqueness violation, e.g. a duplicate scrape target URL
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// StorageError wraps a failed store read or write
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsPolicy reports whether err is, or wraps, a PolicyError.
func IsPolicy(err error) bool {
	var p *PolicyError
	return errors.As(err, &p)
}

// IsConflict reports whether err is, or wraps, a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsStorage reports whether err is, or wraps, a StorageError.
func IsStorage(err error) bool {
	var s *StorageError
	return errors.As(err, &s)
}
