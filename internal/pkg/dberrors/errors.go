package dberrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Unique constraints that surface as conflicts
const (
	UsersUsernameKey       = "users_username_key"
	UsersExternalIDKey     = "users_external_id_key"
	CommunitiesUsernameKey = "communities_username_key"
	CommunitiesExternalKey = "communities_external_id_key"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraintName
}

// DuplicateConstraint returns the violated unique constraint name, if err is one
func DuplicateConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}
