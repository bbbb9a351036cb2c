package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", Clone(ErrLedgerIntegrity, "document d1 is inconsistent"))

	appErr := FromError(wrapped)
	assert.Equal(t, ErrLedgerIntegrity.Code, appErr.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "document d1 is inconsistent", appErr.Message)
}

func TestFromErrorFallsBackToInternal(t *testing.T) {
	cause := errors.New("boom")
	appErr := FromError(cause)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrReviewConflict, "already reviewed")
	assert.Equal(t, "already reviewed", clone.Message)
	assert.Equal(t, "version cannot be reviewed", ErrReviewConflict.Message)
	assert.Nil(t, Clone(nil, "x"))
}
