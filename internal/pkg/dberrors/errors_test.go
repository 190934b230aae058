package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: UsersUsernameKey}
	wrapped := fmt.Errorf("upsert user: %w", pgErr)

	name, ok := DuplicateConstraint(wrapped)
	assert.True(t, ok)
	assert.Equal(t, UsersUsernameKey, name)
	assert.True(t, IsDuplicateConstraintError(wrapped, UsersUsernameKey))
	assert.False(t, IsDuplicateConstraintError(wrapped, CommunitiesUsernameKey))

	_, ok = DuplicateConstraint(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = DuplicateConstraint(errors.New("boom"))
	assert.False(t, ok)
}
