package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Unique constraints the services distinguish between.
const (
	ConstraintTenantSlug  = "tenants_slug_unique"
	ConstraintUserEmail   = "users_tenant_email_unique"
	ConstraintAPIKeyKey   = "api_keys_key_unique"
	ConstraintAPIKeyName  = "api_keys_tenant_name_unique"
	uniqueViolationSQLErr = "23505"
)

// ConflictError reports which unique constraint rejected a write.
// errors.Is(err, ErrConflict) holds for every ConflictError.
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return "conflict on " + e.Constraint
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// IsConflictOn reports whether err is a unique violation of constraint.
func IsConflictOn(err error, constraint string) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Constraint == constraint
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationSQLErr {
		return &ConflictError{Constraint: pgErr.ConstraintName}
	}
	return err
}
