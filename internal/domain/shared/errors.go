package shared

import "errors"

// Error codes shared by every bounded context. HTTP handlers map these to
// status codes, so keep them stable.
const (
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeInvalidAmount       = "INVALID_AMOUNT"
	CodeCurrencyMismatch    = "CURRENCY_MISMATCH"
	CodeNotFound            = "NOT_FOUND"
	CodeArchiveFailure      = "ARCHIVE_FAILURE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeCountsPending       = "COUNTS_PENDING"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code, so that
// errors.Is(err, shared.ErrNotFound) matches any NOT_FOUND error.
func (e *DomainError) Is(target error) bool {
	var de *DomainError
	if !errors.As(target, &de) {
		return false
	}
	return de.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapDomainError creates a domain error that keeps the original cause
func WrapDomainError(code, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// CodeOf extracts the domain error code from err, or "" if err is not a
// domain error.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Operation not allowed in current state")
	ErrInvalidAmount       = NewDomainError(CodeInvalidAmount, "Amount must be positive")
	ErrCurrencyMismatch    = NewDomainError(CodeCurrencyMismatch, "Currencies do not match")
	ErrArchiveFailure      = NewDomainError(CodeArchiveFailure, "Failed to archive count sheets")
	ErrCountsPending       = NewDomainError(CodeCountsPending, "Count sheets are still in progress")
)
