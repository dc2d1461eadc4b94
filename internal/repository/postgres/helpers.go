package postgres

import (
	ierr "github.com/feebridge/feebridge/internal/errors"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}

// wrapDBError maps a raw driver error onto the domain error taxonomy,
// keeping unique violations distinguishable so callers can treat
// insert-or-detect-conflict as a non-error.
func wrapDBError(err error, hint string) error {
	if isUniqueViolation(err) {
		return ierr.WithError(err).
			WithHint(hint).
			Mark(ierr.ErrAlreadyExists)
	}
	return ierr.WithError(err).
		WithHint(hint).
		Mark(ierr.ErrDatabase)
}
