package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/service/account"
)

// AccountHandler handles user and account management requests.
type AccountHandler struct {
	service account.Service
	logger  *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(service account.Service, logger *slog.Logger) *AccountHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountHandler{
		service: service,
		logger:  logger.With(slog.String("component", "account_handler")),
	}
}

// RegisterUser handles POST /api/users requests.
func (h *AccountHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.RegisterUser(r.Context(), req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, UserResponse{ID: user.ID, Name: user.Name})
}

// CreateAccount handles POST /api/accounts requests.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	acct, err := h.service.CreateAccount(r.Context(), req.UserID, req.InitialBalance)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, CreateAccountResponse{
		UserID:        acct.UserID,
		AccountNumber: acct.AccountNumber,
		RegisteredAt:  acct.RegisteredAt,
	})
}

// DeleteAccount handles DELETE /api/accounts requests.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req DeleteAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	acct, err := h.service.DeleteAccount(r.Context(), req.UserID, req.AccountNumber)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := DeleteAccountResponse{
		UserID:        acct.UserID,
		AccountNumber: acct.AccountNumber,
	}
	if acct.UnregisteredAt != nil {
		resp.UnregisteredAt = *acct.UnregisteredAt
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// ListAccounts handles GET /api/users/{id}/accounts requests.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathInt64(r, "id")
	if err != nil {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("invalid user id in path",
			slog.String("error", err.Error()))
		HandleAPIError(w, r, err, "")
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := make([]AccountSummary, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, AccountSummary{AccountNumber: a.AccountNumber, Balance: a.Balance})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
