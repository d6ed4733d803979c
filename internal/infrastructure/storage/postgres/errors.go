package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"kvtrade/internal/core/apperror"
)

// PostgreSQL error codes the repositories care about.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgQueryCanceled       = "57014"
)

// MapError converts driver errors to AppError. Unique violations become
// DUPLICATE_ENTRY, foreign key violations DEPENDENCY, no rows NOT_FOUND.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewNotFound(entity, nil)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &apperror.AppError{
			Code:       apperror.CodeTimeout,
			Message:    "operation deadline exceeded",
			HTTPStatus: 504,
			Err:        err,
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.NewDuplicate(entity, pgErr.ConstraintName, pgErr.Detail)
		case pgForeignKeyViolation:
			return apperror.NewDependency(entity, "operation blocked by dependent records").
				WithCause(err)
		case pgQueryCanceled:
			return &apperror.AppError{
				Code:       apperror.CodeTimeout,
				Message:    "statement timeout exceeded",
				HTTPStatus: 504,
				Err:        err,
			}
		}
	}
	return apperror.NewInternal(err)
}
