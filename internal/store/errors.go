// Package store persists users, community content, messages and history
// entries through gorm.
package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"mutual_aid/internal/apperr"
)

var (
	ErrNotFound        = apperr.NotFound("record not found")
	ErrConflict        = apperr.Conflict("record already exists")
	ErrEmailTaken      = apperr.Conflict("email already in use")
	ErrLastAdmin       = apperr.Conflict("cannot remove the last admin")
	ErrInvalidStatus   = apperr.Validation("invalid status")
	ErrInvalidRole     = apperr.Validation("invalid role")
	ErrInvalidValue    = apperr.Validation("invalid field value")
	ErrNothingToUpdate = apperr.Validation("no updatable fields supplied")
	ErrSelfMessage     = apperr.Validation("cannot send a message to yourself")
	ErrEmptyMessage    = apperr.Validation("message content is required")
	ErrNotReporter     = apperr.Forbidden("only the incident reporter can add updates")
)

const uniqueViolation = "23505"

// isUniqueViolation recognises duplicate-key failures from either postgres driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// notFound turns gorm's sentinel into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
