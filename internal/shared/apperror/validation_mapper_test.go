package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sampleForm struct {
	PeriodStart string  `json:"periodStart" validate:"required"`
	Amount      float64 `json:"amount" validate:"min=0,max=500000"`
}

func TestFormatFieldName(t *testing.T) {
	assert.Equal(t, "Period Start", formatFieldName("periodStart"))
	assert.Equal(t, "Recipient Phone", formatFieldName("recipient_phone"))
}

func TestMapValidationError(t *testing.T) {
	err := Validator().Struct(sampleForm{Amount: 600000})

	mapped := MapValidationError(err)
	httpErr := ToHTTP(mapped)

	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, CodeValidation, httpErr.Code)
	assert.Equal(t, "Period Start is required", httpErr.Message)

	fields, ok := httpErr.Details.(map[string]string)
	assert.True(t, ok)
	assert.Equal(t, "Amount must not exceed 500000", fields["amount"])
}

func TestToHTTP_UnknownError(t *testing.T) {
	httpErr := ToHTTP(assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, CodeInternalError, httpErr.Code)
}

func TestAppError_IsMatchesDetailedCopy(t *testing.T) {
	detailed := ErrInvalidInput.WithDetails(map[string]string{"id": "bad"})
	wrapped := fmt.Errorf("handler: %w", detailed)

	assert.True(t, errors.Is(wrapped, ErrInvalidInput))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
	assert.Nil(t, ErrInvalidInput.Details)
}
