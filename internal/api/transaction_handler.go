package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/account-api/internal/api/shared"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/service/transaction"
)

// TransactionHandler handles balance operation requests.
type TransactionHandler struct {
	service transaction.Service
	logger  *slog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(service transaction.Service, logger *slog.Logger) *TransactionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionHandler{
		service: service,
		logger:  logger.With(slog.String("component", "transaction_handler")),
	}
}

// UseBalance handles POST /api/transactions/use requests.
func (h *TransactionHandler) UseBalance(w http.ResponseWriter, r *http.Request) {
	var req UseBalanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// CancelBalance handles POST /api/transactions/cancel requests.
func (h *TransactionHandler) CancelBalance(w http.ResponseWriter, r *http.Request) {
	var req CancelBalanceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetTransaction handles GET /api/transactions/{id} requests.
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if transactionID == "" {
		logger.FromContextOrDefault(r.Context(), h.logger).Debug("missing transaction id")
		shared.RespondWithError(w, r, http.StatusBadRequest, "Transaction ID is required")
		return
	}

	result, err := h.service.GetTransaction(r.Context(), transactionID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
