package shared

import "errors"

// ErrorKind classifies a DomainError for callers that need to react to a
// category of failure rather than to a specific code.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindState       ErrorKind = "state"
	KindNotFound    ErrorKind = "not_found"
	KindConsistency ErrorKind = "consistency"
	KindConflict    ErrorKind = "conflict"
	KindAccess      ErrorKind = "access"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so the
// package-level sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error. The kind is derived from the code.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Kind:    kindForCode(code),
	}
}

// NewValidationError creates an error for input rejected before any mutation.
func NewValidationError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Kind: KindValidation}
}

// NewStateError creates an error for an action attempted outside its legal state.
func NewStateError(message string) *DomainError {
	return &DomainError{Code: CodeInvalidState, Message: message, Kind: KindState}
}

// NewNotFoundError creates an error for an unknown identifier of the named resource.
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: resource + " not found", Kind: KindNotFound}
}

// NewConsistencyError creates an error for a mutation that would break a
// cross-entity invariant.
func NewConsistencyError(message string) *DomainError {
	return &DomainError{Code: CodeConsistencyViolation, Message: message, Kind: KindConsistency}
}

// Error codes shared across bounded contexts
const (
	CodeNotFound             = "NOT_FOUND"
	CodeItemNotFound         = "ITEM_NOT_FOUND"
	CodeInvalidInput         = "INVALID_INPUT"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInvalidQuantity      = "INVALID_QUANTITY"
	CodeInvalidState         = "INVALID_STATE"
	CodeConsistencyViolation = "CONSISTENCY_VIOLATION"
	CodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest     = "DUPLICATE_REQUEST"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request with this idempotency key was already processed")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
)

func kindForCode(code string) ErrorKind {
	switch code {
	case CodeNotFound, CodeItemNotFound:
		return KindNotFound
	case CodeInvalidState:
		return KindState
	case CodeConsistencyViolation:
		return KindConsistency
	case CodeConcurrencyConflict, CodeDuplicateRequest:
		return KindConflict
	case CodeUnauthorized, CodeForbidden:
		return KindAccess
	}
	return KindValidation
}

// KindOf returns the kind of a domain error in err's chain, or "" when err
// carries no DomainError.
func KindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

// IsValidationError reports whether err is a ValidationError
func IsValidationError(err error) bool { return KindOf(err) == KindValidation }

// IsStateError reports whether err is a StateError
func IsStateError(err error) bool { return KindOf(err) == KindState }

// IsNotFoundError reports whether err is a NotFoundError
func IsNotFoundError(err error) bool { return KindOf(err) == KindNotFound }

// IsConsistencyError reports whether err is a ConsistencyError
func IsConsistencyError(err error) bool { return KindOf(err) == KindConsistency }
