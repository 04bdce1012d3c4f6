package errors

import (
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrForbidden, "not yours"))

	appErr := FromError(wrapped)
	require.NotNil(t, appErr)
	assert.Equal(t, KindForbidden, appErr.Code)
	assert.Equal(t, http.StatusForbidden, appErr.Status)
	assert.Equal(t, "not yours", appErr.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, KindInternal, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
	assert.Nil(t, FromError(nil))
}

func TestIsMatchesByKind(t *testing.T) {
	err := Clone(ErrNotFound, "post not found")
	assert.True(t, stdErrors.Is(err, ErrNotFound))
	assert.False(t, stdErrors.Is(err, ErrConflict))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrRateLimited, "slow down")
	assert.Equal(t, "slow down", clone.Message)
	assert.Equal(t, "rate limit exceeded", ErrRateLimited.Message)
	assert.Equal(t, http.StatusTooManyRequests, clone.Status)
}
