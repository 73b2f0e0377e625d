package dto

import (
	"net/http"

	"github.com/mfgadmin/backend/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain errors keep their
// own codes (shared.Code*) on the wire.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding fails
	ErrCodeValidation = shared.CodeValidation
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = shared.CodeNotFound
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "CONFLICT"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = shared.CodeUnauthorized
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = shared.CodeForbidden
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "TOKEN_INVALID"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeTimeout is used when a request exceeds its deadline
	ErrCodeTimeout = "REQUEST_TIMEOUT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	shared.CodeValidation:      http.StatusBadRequest,
	shared.CodeInvalidInput:    http.StatusBadRequest,
	shared.CodeInvalidQuantity: http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,

	// Auth errors
	shared.CodeUnauthorized: http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenInvalid:     http.StatusUnauthorized,

	// Resource errors
	shared.CodeNotFound:     http.StatusNotFound,
	shared.CodeItemNotFound: http.StatusNotFound,

	// Business rule errors -> 422 Unprocessable Entity
	shared.CodeInvalidState: http.StatusUnprocessableEntity,

	// Conflicts -> 409
	shared.CodeConsistencyViolation: http.StatusConflict,
	shared.CodeConcurrencyConflict:  http.StatusConflict,
	shared.CodeDuplicateRequest:     http.StatusConflict,
	ErrCodeConflict:                 http.StatusConflict,

	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// StatusForError picks the status for a domain error, preferring its code
// and falling back to its kind for codes the table does not list.
func StatusForError(err *shared.DomainError) int {
	if status, ok := ErrorCodeHTTPStatus[err.Code]; ok {
		return status
	}
	switch err.Kind {
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindState:
		return http.StatusUnprocessableEntity
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConsistency, shared.KindConflict:
		return http.StatusConflict
	case shared.KindAccess:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}
