package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that detailed
// instances still match the package-level sentinels with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetails returns a copy of the error carrying the given details
func (e *DomainError) WithDetails(details map[string]any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
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
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeValidation          = "VALIDATION_ERROR"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeOutOfStock          = "OUT_OF_STOCK"
	CodeDuplicateRequest    = "DUPLICATE_REQUEST"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrValidation          = NewDomainError(CodeValidation, "Validation failed")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrOutOfStock          = NewDomainError(CodeOutOfStock, "No stock available")
	ErrDuplicateRequest    = NewDomainError(CodeDuplicateRequest, "Request has already been processed")
)

// NewValidationError creates a validation error naming the offending fields
func NewValidationError(message string, fields ...string) *DomainError {
	err := NewDomainError(CodeValidation, message)
	if len(fields) > 0 {
		err.Details = map[string]any{"fields": fields}
	}
	return err
}

// NewNotFoundError creates a not-found error with a resource specific message
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// NewAlreadyExistsError creates a conflict error with a resource specific message
func NewAlreadyExistsError(message string) *DomainError {
	return NewDomainError(CodeAlreadyExists, message)
}

// MissingFields reports required fields that were not supplied
func MissingFields(fields ...string) *DomainError {
	return NewValidationError("Missing required fields", fields...)
}

// MissingParameters reports required query parameters that were not supplied
func MissingParameters(params ...string) *DomainError {
	return NewValidationError("Missing required parameters", params...)
}

// Errorf builds a domain error with a formatted message
func Errorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}
