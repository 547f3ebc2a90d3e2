// Package repository implements the data access layer for the application.
package repository

import (
	"errors"
	"strings"

	"dailyprompt/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, pgUniqueViolation)
}

// notFoundOr maps gorm.ErrRecordNotFound to a typed not-found error and
// anything else to an internal error. Typed errors pass through.
func notFoundOr(err error, resource string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	if _, ok := models.AsAppError(err); ok {
		return err
	}
	return models.NewInternalError(err)
}

func internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := models.AsAppError(err); ok {
		return err
	}
	return models.NewInternalError(err)
}
