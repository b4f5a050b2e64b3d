package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	e := New("LED_002", "Account not found", http.StatusNotFound)
	assert.Equal(t, "[LED_002] Account not found", e.Error())

	wrapped := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, errors.New("pool closed"))
	assert.Equal(t, "[SYS_001] Internal server error: pool closed", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("commit failed")
	e := ErrStorageConflict(inner)

	assert.ErrorIs(t, e, inner)

	var appErr *AppError
	require.True(t, errors.As(fmt.Errorf("debit: %w", e), &appErr))
	assert.Equal(t, "LED_004", appErr.Code)
	assert.Equal(t, http.StatusConflict, appErr.HTTPStatus)
}

func TestErrInsufficientFunds_Details(t *testing.T) {
	e := ErrInsufficientFunds(5000, 5000)

	assert.Equal(t, "LED_001", e.Code)
	assert.Equal(t, http.StatusPaymentRequired, e.HTTPStatus)
	assert.Equal(t, int64(5000), e.Details["current_balance"])
	assert.Equal(t, int64(5000), e.Details["shortfall"])
}

func TestValidation_NotRetryableStatus(t *testing.T) {
	e := Validation("description is required")
	assert.Equal(t, "LED_003", e.Code)
	assert.Equal(t, http.StatusBadRequest, e.HTTPStatus)
	assert.Equal(t, "description is required", e.Message)
}

func TestErrInsufficientScope(t *testing.T) {
	e := ErrInsufficientScope("ledger:admin")
	assert.Equal(t, "AUTH_002", e.Code)
	assert.Equal(t, http.StatusForbidden, e.HTTPStatus)
	assert.Contains(t, e.Message, "ledger:admin")
}
