package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAsMatchesSentinel(t *testing.T) {
	err := WrapAs(ErrTransientDirectory, errors.New("dial tcp: timeout"), "")
	wrapped := fmt.Errorf("evaluate: %w", err)

	assert.True(t, errors.Is(wrapped, ErrTransientDirectory))
	assert.False(t, errors.Is(wrapped, ErrUnknownUser))
	assert.Equal(t, http.StatusBadGateway, FromError(wrapped).Status)
	assert.Contains(t, err.Error(), "dial tcp: timeout")
}

func TestCloneKeepsCode(t *testing.T) {
	clone := Clone(ErrNotFound, "community not found")
	assert.True(t, errors.Is(clone, ErrNotFound))
	assert.Equal(t, "community not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.True(t, errors.Is(appErr, sql.ErrConnDone))
	assert.Nil(t, FromError(nil))
}
