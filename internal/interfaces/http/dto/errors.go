package dto

import (
	"net/http"
	"strings"
)

// General error codes
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
)

// Error codes raised by the domain layer
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeReadOnly            = "READ_ONLY"
	ErrCodeDefinitionInUse     = "DOCUMENT_DEFINITION_IN_USE"
	ErrCodeContentInvalid      = "DOCUMENT_CONTENT_INVALID"
	ErrCodeInvalidFormLink     = "INVALID_FORM_LINK"
)

// Error codes for failing collaborators
const (
	ErrCodeProcessEngine  = "PROCESS_ENGINE_ERROR"
	ErrCodeIAMUnavailable = "IAM_UNAVAILABLE"
)

// Transport level error codes
const (
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeTokenRevoked    = "TOKEN_REVOKED"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

const notFoundSuffix = "_" + ErrCodeNotFound

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeDefinitionInUse:     http.StatusConflict,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeContentInvalid:      http.StatusBadRequest,
	ErrCodeInvalidFormLink:     http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeReadOnly:            http.StatusForbidden,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeProcessEngine:  http.StatusBadGateway,
	ErrCodeIAMUnavailable: http.StatusBadGateway,

	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeTokenRevoked:    http.StatusUnauthorized,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Module specific *_NOT_FOUND codes map to 404; unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasSuffix(code, notFoundSuffix) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
