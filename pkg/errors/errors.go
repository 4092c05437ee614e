package errors

import (
	"fmt"
)

// ErrorCode represents an error code
type ErrorCode string

const (
	ErrCodeNotConfigured        ErrorCode = "NOT_CONFIGURED"
	ErrCodeValidation           ErrorCode = "VALIDATION_ERROR"
	ErrCodeVerificationRequired ErrorCode = "VERIFICATION_REQUIRED"
	ErrCodeVerificationFailed   ErrorCode = "VERIFICATION_FAILED"
	ErrCodePersistence          ErrorCode = "PERSISTENCE_ERROR"
	ErrCodeInternalError        ErrorCode = "INTERNAL_ERROR"
)

// FieldIssue describes a single invalid field in a submitted payload.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError represents an application error
type AppError struct {
	Code    ErrorCode
	Message string
	Details []FieldIssue
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with an AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidation creates a validation error carrying per-field issues
func NewValidation(message string, details []FieldIssue) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Details: details,
	}
}

// Code extracts the error code from err, or ErrCodeInternalError if err
// is not an AppError.
func Code(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// IsNotConfigured checks if error is NotConfigured
func IsNotConfigured(err error) bool {
	return Code(err) == ErrCodeNotConfigured
}

// IsValidation checks if error is a validation error
func IsValidation(err error) bool {
	return Code(err) == ErrCodeValidation
}
