package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeNotFound, http.StatusNotFound},
		{"DOCUMENT_NOT_FOUND", http.StatusNotFound},
		{"FORM_ASSOCIATION_NOT_FOUND", http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeDefinitionInUse, http.StatusConflict},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeContentInvalid, http.StatusBadRequest},
		{ErrCodeInvalidFormLink, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeReadOnly, http.StatusForbidden},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeProcessEngine, http.StatusBadGateway},
		{ErrCodeIAMUnavailable, http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"NOT_FOUND_SOMETHING", http.StatusInternalServerError},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "name", Message: "This field is required"},
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "VALIDATION_ERROR",
			"message": "Request validation failed",
			"request_id": "req-1",
			"details": [{"field": "name", "message": "This field is required"}]
		}
	}`, string(data))
}

func TestNewErrorResponse_OmitsEmptyRequestID(t *testing.T) {
	data, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "missing"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"missing"}}`, string(data))
}

func TestNewPagedResponse(t *testing.T) {
	resp := NewPagedResponse(shared.NewPaginated([]string{"a", "b"}, 5, 1, 2))

	assert.True(t, resp.Success)
	assert.Equal(t, []string{"a", "b"}, resp.Data)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, Meta{Total: 5, Page: 1, PageSize: 2, TotalPages: 3}, *resp.Meta)
}

func TestNewSuccessResponseWithMeta_ZeroPageSize(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{}, 0, 1, 0)
	assert.Equal(t, 0, resp.Meta.TotalPages)
}
