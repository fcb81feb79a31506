package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors, compare with errors.Is
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("resource not found")
	ErrConflict         = errors.New("resource already exists")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrUnprocessable    = errors.New("unprocessable request")
	ErrProvider         = errors.New("messaging provider error")
	ErrTemplateNotFound = errors.New("template not found")
	ErrLeaseHeld        = errors.New("lease held by another run")
	ErrLeaseLost        = errors.New("lease expired or taken over")
)

// AppError carries a user-facing message next to the sentinel it wraps.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Err: ErrUnauthorized}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Err: ErrForbidden}
}

func Validation(msg string) *AppError {
	return &AppError{Code: "VALIDATION", Message: msg, Err: ErrValidation}
}

func NotFound(msg string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: msg, Err: ErrNotFound}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Err: ErrConflict}
}

func QuotaExceeded(msg string) *AppError {
	return &AppError{Code: "QUOTA_EXCEEDED", Message: msg, Err: ErrQuotaExceeded}
}

func Unprocessable(msg string) *AppError {
	return &AppError{Code: "UNPROCESSABLE", Message: msg, Err: ErrUnprocessable}
}

// Message returns the user-facing text of err, or fallback when err carries none.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// ProviderError is a non-2xx answer from the messaging provider. Body is
// passed through to synchronous callers untouched.
type ProviderError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider responded %d: %s", e.StatusCode, string(e.Body))
}

func (e *ProviderError) Unwrap() error {
	return ErrProvider
}

// Retryable reports whether resending could succeed: server errors and
// throttling, not client errors.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
