package shared

import "fmt"

// Error codes shared by all bounded contexts
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeValidation          = "VALIDATION_ERROR"
	CodeDownstreamFailure   = "DOWNSTREAM_FAILURE"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeAlreadyExists       = "ALREADY_EXISTS"
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
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets callers write errors.Is(err, shared.ErrNotFound) regardless of message.
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

// NewNotFoundError creates a NOT_FOUND error for the named resource
func NewNotFoundError(resource string) *DomainError {
	return NewDomainError(CodeNotFound, resource+" not found")
}

// NewInvalidStateError creates an INVALID_STATE error
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// NewValidationError creates a VALIDATION_ERROR error
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewDownstreamError wraps a collaborator failure
func NewDownstreamError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeDownstreamFailure,
		Message: message,
		cause:   cause,
	}
}

// Common domain errors, intended as errors.Is targets
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrValidation          = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrDownstreamFailure   = NewDomainError(CodeDownstreamFailure, "Downstream service failed")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
)
