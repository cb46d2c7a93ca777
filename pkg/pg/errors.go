package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmptyConnectionString    = errors.New("pg: connection string is empty, set PG_CONN_URL")
	ErrFailedToParseDBConfig    = errors.New("pg: cannot parse connection string")
	ErrFailedToOpenDBConnection = errors.New("pg: cannot reach database")
	ErrHealthcheckFailed        = errors.New("pg: healthcheck failed")
	ErrFailedToApplyMigrations  = errors.New("pg: migrations failed")
	ErrQueryFailed              = errors.New("pg: query failed")
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// IsNotFoundError reports whether err came from a query that matched no row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports a unique constraint violation, optionally on a specific constraint.
func IsDuplicateKeyError(err error, constraint ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	if len(constraint) == 0 {
		return true
	}
	for _, c := range constraint {
		if pgErr.ConstraintName == c {
			return true
		}
	}
	return false
}
