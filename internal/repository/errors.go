package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Common repository errors
var (
	// ErrNotFound is returned when a record is not found or not owned by the caller
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateUser is returned when the username or email is already taken
	ErrDuplicateUser = errors.New("username or email already exists")

	// ErrDuplicateAccount is returned when the user already connected the page
	ErrDuplicateAccount = errors.New("account already exists")
)

const uniqueViolation = "23505"

// uniqueConstraint returns the violated constraint name for a Postgres
// unique violation, or "" for any other error.
func uniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		if pqErr.Constraint == "" {
			return "unknown"
		}
		return pqErr.Constraint
	}
	return ""
}

const invalidTextRepresentation = "22P02"

// isMalformedID reports whether Postgres rejected a parameter that is not a
// valid UUID.
func isMalformedID(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}
