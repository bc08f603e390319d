package domain

import "fmt"

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeLookupFailed     = "LOOKUP_FAILED"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// Error constructors

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewLookupFailedError wraps an identity-lookup backend failure. This
// is distinct from the legitimate "no such user" empty result, which is
// not an error at all.
func NewLookupFailedError(err error) error {
	return &DomainError{
		Code:    ErrCodeLookupFailed,
		Message: "Identity lookup failed",
		Err:     err,
	}
}

// NewStoreUnavailableError wraps a record-store call that failed or
// timed out.
func NewStoreUnavailableError(err error) error {
	return &DomainError{
		Code:    ErrCodeStoreUnavailable,
		Message: "Record store unavailable",
		Err:     err,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(msg string) error {
	return &DomainError{
		Code:    ErrCodeForbidden,
		Message: msg,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// Helper functions to check error types

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeNotFound
	}
	return false
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeValidation
	}
	return false
}

// IsLookupFailed checks if the error is an identity lookup failure
func IsLookupFailed(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeLookupFailed
	}
	return false
}

// IsStoreUnavailable checks if the error is a store availability error
func IsStoreUnavailable(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeStoreUnavailable
	}
	return false
}

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeUnauthorized
	}
	return false
}

// IsForbidden checks if the error is a forbidden error
func IsForbidden(err error) bool {
	if de, ok := err.(*DomainError); ok {
		return de.Code == ErrCodeForbidden
	}
	return false
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ErrCodeInternal
}
