package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesByReason(t *testing.T) {
	err := NewStockExceededError("Paracetamol", 3)

	assert.True(t, errors.Is(err, ErrStockExceeded))
	assert.False(t, errors.Is(err, ErrOutOfStock))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", err), ErrStockExceeded))
}

func TestWithDetail_DoesNotMutateSentinel(t *testing.T) {
	e := ErrSaleLineCreationFailed.WithDetail("product_id", int64(7))

	assert.Equal(t, int64(7), e.Details["product_id"])
	assert.Nil(t, ErrSaleLineCreationFailed.Details)
}

func TestWithCause_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	e := ErrNetwork.WithCause(cause)

	assert.True(t, errors.Is(e, cause))
	assert.Equal(t, "Pharmacy API request failed: connection refused", e.Error())
}

func TestGetAppError_PlainError(t *testing.T) {
	e := GetAppError(errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, e.Code)
	assert.False(t, HasReason(errors.New("boom"), ReasonNetworkError))
}
