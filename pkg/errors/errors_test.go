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

func TestCloneKeepsCodeAndOverridesMessage(t *testing.T) {
	err := Clone(ErrEligibility, "outstanding tuition balance")
	require.Equal(t, ErrEligibility.Code, err.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
	assert.Equal(t, "outstanding tuition balance", err.Error())
	assert.True(t, stdErrors.Is(err, ErrEligibility))
	assert.False(t, stdErrors.Is(err, ErrForbidden))
}

func TestStorePreservesTypedErrors(t *testing.T) {
	typed := Clone(ErrConflict, "duplicate")
	assert.Same(t, typed, Store(fmt.Errorf("wrapped: %w", typed), "ignored"))

	raw := Store(sql.ErrConnDone, "failed to allocate number")
	assert.True(t, HasCode(raw, ErrStore))
	assert.ErrorIs(t, raw, sql.ErrConnDone)
	assert.Nil(t, Store(nil, "noop"))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	e := FromError(stdErrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, e.Code)
	assert.Nil(t, FromError(nil))
}
