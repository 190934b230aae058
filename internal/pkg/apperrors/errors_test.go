package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundMatchesSentinels(t *testing.T) {
	err := fmt.Errorf("create post: %w", NotFound(KindAuthor, "user_1"))

	assert.True(t, errors.Is(err, ErrResourceNotFound))
	assert.False(t, errors.Is(err, ErrOptionNotFound))
	assert.True(t, IsNotFoundKind(err, KindAuthor))
	assert.False(t, IsNotFoundKind(err, KindCommunity))
	assert.Equal(t, `author "user_1" not found`, NotFound(KindAuthor, "user_1").Error())
}

func TestOptionNotFoundMatchesBoth(t *testing.T) {
	err := NotFound(KindOption, "Green")

	assert.True(t, errors.Is(err, ErrResourceNotFound))
	assert.True(t, errors.Is(err, ErrOptionNotFound))
}

func TestFanOutError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &FanOutError{
		Op:        "delete event",
		Step:      "pull community refs",
		Completed: []string{"delete documents", "pull user refs"},
		Err:       cause,
	}

	assert.True(t, errors.Is(err, ErrPartialCascade))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "pull community refs")
	assert.Contains(t, err.Error(), "possibly partially applied")

	err.RolledBack = true
	assert.Contains(t, err.Error(), "rolled back")
}

func TestIsMatchesAnyTarget(t *testing.T) {
	err := NewConflictError("username taken")

	assert.True(t, Is(err, ErrValidationFailed, ErrConflict))
	assert.False(t, Is(err, ErrValidationFailed, ErrPermissionDenied))
}
