package dto

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/taskflow/internal/kernel"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

var kindStatus = map[kernel.Kind]int{
	kernel.KindValidation:   http.StatusBadRequest,
	kernel.KindNotFound:     http.StatusNotFound,
	kernel.KindConflict:     http.StatusConflict,
	kernel.KindUnauthorized: http.StatusUnauthorized,
	kernel.KindForbidden:    http.StatusForbidden,
}

// MapDomainError maps business failures to HTTP status codes and error codes.
// Anything else is an internal error and is logged.
func MapDomainError(err error) (status int, code string, message string) {
	if e, ok := kernel.AsError(err); ok {
		if status, ok := kindStatus[e.Kind]; ok {
			return status, e.Code, e.Message
		}
	}

	slog.Error("unmapped error returned to client",
		"error", err,
		"error_type", fmt.Sprintf("%T", err),
	)
	return http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error"
}
