package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
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

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the code of the outermost AppError in err's chain, or "" if none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// Error codes. The swap kinds double as the machine-readable reason strings
// returned to API and bot clients.
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeQuotaExceeded         = "QUOTA_EXCEEDED"
	ErrCodeDuplicatePendingOffer = "DUPLICATE_PENDING_OFFER"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeStorage               = "STORAGE_ERROR"

	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeInternal          = "INTERNAL_ERROR"
)
