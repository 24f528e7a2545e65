package router

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrConnectionUnavailable is returned when a tenant's underlying store
	// cannot be reached. It is a retryable infrastructure error, distinct
	// from a tenant that does not exist.
	ErrConnectionUnavailable = errors.New("tenant store unavailable")

	ErrFailedToParseConnConfig  = errors.New("failed to parse connection config")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrRouterClosed             = errors.New("router is closed")
	ErrNilTenant                = errors.New("nil tenant")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
	ErrMigrationsDirNotFound    = errors.New("migrations directory not found")
	ErrMigrationPathNotProvided = errors.New("migration path not provided")
)

// IsNotFoundError detects pgx.ErrNoRows for consistent "not found" handling
// across tenant-scoped queries.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError detects PostgreSQL unique constraint violations
// (SQLSTATE 23505), e.g. provisioning an empresa index entry twice.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolationError detects referential integrity violations
// (SQLSTATE 23503).
func IsForeignKeyViolationError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
