package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"not found passthrough", "NOT_FOUND", ErrCodeNotFound},
		{"item not found collapses", "ITEM_NOT_FOUND", ErrCodeNotFound},
		{"cost not found collapses", "COST_NOT_FOUND", ErrCodeNotFound},
		{"duplicate lead", "DUPLICATE_LEAD", ErrCodeAlreadyExists},
		{"duplicate mapping", "DUPLICATE_MAPPING", ErrCodeAlreadyExists},
		{"already processed", "ALREADY_PROCESSED", ErrCodeAlreadyProcessed},
		{"not connected", "NOT_CONNECTED", ErrCodeNotConnected},
		{"invalid state", "INVALID_STATE", ErrCodeInvalidState},
		{"invalid quantity prefix rule", "INVALID_QUANTITY", ErrCodeInvalidInput},
		{"invalid fx rate prefix rule", "INVALID_FX_RATE", ErrCodeInvalidInput},
		{"zero fob value", "ZERO_FOB_VALUE", ErrCodeBusinessRule},
		{"sync disabled", "SYNC_DISABLED", ErrCodeBusinessRule},
		{"insufficient stock", "INSUFFICIENT_STOCK", ErrCodeInsufficientStock},
		{"already normalized", ErrCodeNotFound, ErrCodeNotFound},
		{"unknown passes through", "SOMETHING_ELSE", "SOMETHING_ELSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, NormalizeErrorCode(tt.input))
		})
	}
}

func TestGetHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrCodeNotFound))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeAlreadyProcessed))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(ErrCodeNotConnected))
	assert.Equal(t, http.StatusUnprocessableEntity, GetHTTPStatus(ErrCodeInvalidState))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(ErrCodeInvalidInput))
	assert.Equal(t, http.StatusBadGateway, GetHTTPStatus(ErrCodeChannelUnavailable))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus("NO_SUCH_CODE"))
}

func TestNewSuccessResponseWithMeta_TotalPages(t *testing.T) {
	r := NewSuccessResponseWithMeta(nil, 41, 1, 20)
	assert.True(t, r.Success)
	assert.Equal(t, 3, r.Meta.TotalPages)

	r = NewSuccessResponseWithMeta(nil, 40, 2, 20)
	assert.Equal(t, 2, r.Meta.TotalPages)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	r := NewErrorResponseWithRequestID(ErrCodeNotFound, "gone", "req-1")
	assert.False(t, r.Success)
	assert.Equal(t, ErrCodeNotFound, r.Error.Code)
	assert.Equal(t, "req-1", r.Error.RequestID)
}
