package api

import (
	stderrors "errors"
	"net/http"

	"github.com/mroshb/skill_swap/pkg/errors"
)

var statusByCode = map[string]int{
	errors.ErrCodeValidation:            http.StatusBadRequest,
	errors.ErrCodeQuotaExceeded:         http.StatusTooManyRequests,
	errors.ErrCodeDuplicatePendingOffer: http.StatusConflict,
	errors.ErrCodeNotFound:              http.StatusNotFound,
	errors.ErrCodeForbidden:             http.StatusForbidden,
	errors.ErrCodeInvalidTransition:     http.StatusConflict,
	errors.ErrCodeAlreadyExists:         http.StatusConflict,
	errors.ErrCodeUnauthorized:          http.StatusUnauthorized,
	errors.ErrCodeRateLimitExceeded:     http.StatusTooManyRequests,
	errors.ErrCodeStorage:               http.StatusInternalServerError,
	errors.ErrCodeInternal:              http.StatusInternalServerError,
}

// MapErrorToHTTP maps errors to HTTP status codes and error responses.
// Server-side failures keep their code but not their detail.
func MapErrorToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusOK, ErrorResponse{}
	}

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError, ErrorResponse{
			Code:    errors.ErrCodeInternal,
			Message: "internal error",
		}
	}

	status, known := statusByCode[appErr.Code]
	if !known {
		status = http.StatusInternalServerError
	}

	message := appErr.Message
	if status >= http.StatusInternalServerError {
		message = "internal error"
	}

	return status, ErrorResponse{
		Code:    appErr.Code,
		Message: message,
	}
}
