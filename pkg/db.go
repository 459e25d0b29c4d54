package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeUniqueViolation = "23505"
	pgCodeUndefinedTable  = "42P01"
)

// IsUniqueViolationError reports whether err (or anything it wraps) is a
// postgres unique constraint violation.
func IsUniqueViolationError(err error) bool {
	return pgErrorCode(err) == pgCodeUniqueViolation
}

// IsUndefinedTableError reports a missing table, usually migrations that never ran.
func IsUndefinedTableError(err error) bool {
	return pgErrorCode(err) == pgCodeUndefinedTable
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
