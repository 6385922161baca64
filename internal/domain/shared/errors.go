package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so callers can match
// errors.Is(err, shared.ErrNotFound) against an error with a specific message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes
const (
	CodeNotFound               = "NOT_FOUND"
	CodeAlreadyExists          = "ALREADY_EXISTS"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidReading         = "INVALID_READING"
	CodeDuplicateBill          = "DUPLICATE_BILL"
	CodeInvalidState           = "INVALID_STATE"
	CodeAmountMismatch         = "AMOUNT_MISMATCH"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeForbidden              = "FORBIDDEN"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrInvalidReading         = NewDomainError(CodeInvalidReading, "Current meter index is lower than previous index")
	ErrDuplicateBill          = NewDomainError(CodeDuplicateBill, "A bill already exists for this customer and period")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrAmountMismatch         = NewDomainError(CodeAmountMismatch, "Payment amount does not match bill amount")
	ErrUnauthorized           = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden              = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
)

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
