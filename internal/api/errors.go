package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/store"
)

// statusByCode maps business rule violations to HTTP status codes.
var statusByCode = map[domain.ErrorCode]int{
	domain.CodeInvalidRequest:             http.StatusBadRequest,
	domain.CodeAmountExceedBalance:        http.StatusBadRequest,
	domain.CodeTransactionAmountUnMatch:   http.StatusBadRequest,
	domain.CodeTooOldOrderToCancel:        http.StatusBadRequest,
	domain.CodeUserAccountUnMatch:         http.StatusForbidden,
	domain.CodeTransactionAccountUnMatch:  http.StatusForbidden,
	domain.CodeUserNotFound:               http.StatusNotFound,
	domain.CodeAccountNotFound:            http.StatusNotFound,
	domain.CodeTransactionNotFound:        http.StatusNotFound,
	domain.CodeAccountAlreadyUnregistered: http.StatusConflict,
	domain.CodeTransactionAlreadyCanceled: http.StatusConflict,
	domain.CodeMaxAccountPerUser:          http.StatusConflict,
	domain.CodeBalanceNotEmpty:            http.StatusConflict,
	domain.CodeAccountTransactionLock:     http.StatusLocked,
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	if accountErr, ok := domain.AsAccountError(err); ok {
		if status, ok := statusByCode[accountErr.Code]; ok {
			return status
		}
		return http.StatusBadRequest
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	if accountErr, ok := domain.AsAccountError(err); ok {
		return accountErr.Code.Message()
	}

	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return fmt.Sprintf("Invalid %s: %s", validationErr.Field, validationErr.Message)
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the error response for err. A non-empty message
// replaces the default safe message.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	var opts []shared.ResponseOption
	if errors.Is(err, domain.ErrAccountTransactionLock) {
		opts = append(opts, shared.WithElevatedLogLevel())
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Example format: "Key: 'UseBalanceRequest.Amount' Error:Field validation for 'Amount' failed on the 'min' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min", "gt":
		return "too small"
	case "max":
		return "too large"
	case "len", "numeric":
		return "invalid format"
	default:
		return "validation failed"
	}
}
