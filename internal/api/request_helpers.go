package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/domain"
)

// getPathInt64 extracts a positive integer from the URL path parameters.
//
// Returns:
//   - (id, nil): The parsed ID if valid
//   - (0, error): A *domain.ValidationError if the parameter is missing or invalid
func getPathInt64(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := strconv.ParseInt(pathParam, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(paramName, "has invalid format", domain.ErrValidation)
	}
	return id, nil
}

// decodeAndValidate decodes the JSON body into req and validates it. On
// failure it writes a 400 response with the INVALID_REQUEST code and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := shared.DecodeJSON(r, req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format",
			&domain.AccountError{Code: domain.CodeInvalidRequest, Message: err.Error()})
		return false
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err),
			&domain.AccountError{Code: domain.CodeInvalidRequest, Message: err.Error()})
		return false
	}
	return true
}
