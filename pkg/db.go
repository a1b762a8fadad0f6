package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	PgCodeNotNullViolation    = "23502"
	PgCodeForeignKeyViolation = "23503"
	PgCodeUniqueViolation     = "23505"
	PgCodeCheckViolation      = "23514"
)

// PgError returns the postgres error from err's chain, if any
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsUniqueViolationError checks if the error is a unique violation error
func IsUniqueViolationError(err error) bool {
	return hasPgCode(err, PgCodeUniqueViolation)
}

// IsForeignKeyViolationError checks if the error is a foreign key violation error
func IsForeignKeyViolationError(err error) bool {
	return hasPgCode(err, PgCodeForeignKeyViolation)
}

// IsCheckViolationError checks if the error is a check constraint violation error
func IsCheckViolationError(err error) bool {
	return hasPgCode(err, PgCodeCheckViolation)
}

// IsIntegrityViolationError is true for any of the class 23 errors we handle
func IsIntegrityViolationError(err error) bool {
	return IsUniqueViolationError(err) ||
		IsForeignKeyViolationError(err) ||
		IsCheckViolationError(err) ||
		hasPgCode(err, PgCodeNotNullViolation)
}

func hasPgCode(err error, code string) bool {
	pgErr, ok := PgError(err)
	return ok && pgErr.Code == code
}
