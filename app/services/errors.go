// Package services holds the business rules of every catalog operation.
// Each write runs in one transaction; callers get either a committed result
// or one of the errors below with nothing persisted.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shashiranjanraj/stockroom/pkg/database"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("services: not found")

	// ErrBasePhotoRequired is returned when a product would end up
	// without a base photo.
	ErrBasePhotoRequired = errors.New("services: base photo is required")

	// ErrSuperAdminProtected is returned for any edit or delete of the
	// SuperAdmin through user management.
	ErrSuperAdminProtected = errors.New("services: the SuperAdmin account is protected")

	// ErrInUse is returned when a row cannot be deleted because products
	// still reference it.
	ErrInUse = errors.New("services: still referenced")

	// ErrInvalidCredentials is returned by a failed login.
	ErrInvalidCredentials = errors.New("services: invalid credentials")
)

// FieldErrors maps form field names to validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ConflictError reports a unique constraint violation raised at commit.
type ConflictError struct {
	Entity string // "Supplier"
	Field  string // "name"
	Value  string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Failed to save %s. The %s '%s' is likely already taken.",
		e.Entity, strings.ReplaceAll(e.Field, "_", " "), e.Value)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// conflict converts a unique violation into a ConflictError, guessing the
// column from candidates. values maps column names to submitted values.
// Other errors pass through.
func conflict(err error, entity string, values map[string]string, candidates ...string) error {
	if !database.IsUniqueViolation(err) {
		return err
	}
	field := database.ConflictField(err, candidates...)
	return &ConflictError{Entity: entity, Field: field, Value: values[field], Err: err}
}

// AsFieldErrors returns the FieldErrors in err, if any.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// AsConflict returns the ConflictError in err, if any.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
