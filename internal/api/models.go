package api

import "time"

// UseBalanceRequest defines the payload for POST /api/transactions/use.
type UseBalanceRequest struct {
	UserID        int64  `json:"user_id"        validate:"required,gt=0"`
	AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount"         validate:"required,min=10,max=1000000000"`
}

// CancelBalanceRequest defines the payload for POST /api/transactions/cancel.
type CancelBalanceRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount"         validate:"required,min=10,max=1000000000"`
}

// RegisterUserRequest defines the payload for POST /api/users.
type RegisterUserRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// UserResponse is returned after registering a user.
type UserResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CreateAccountRequest defines the payload for POST /api/accounts.
type CreateAccountRequest struct {
	UserID         int64 `json:"user_id"         validate:"required,gt=0"`
	InitialBalance int64 `json:"initial_balance" validate:"min=0"`
}

// CreateAccountResponse is returned after opening an account.
type CreateAccountResponse struct {
	UserID        int64     `json:"user_id"`
	AccountNumber string    `json:"account_number"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// DeleteAccountRequest defines the payload for DELETE /api/accounts.
type DeleteAccountRequest struct {
	UserID        int64  `json:"user_id"        validate:"required,gt=0"`
	AccountNumber string `json:"account_number" validate:"required,len=10,numeric"`
}

// DeleteAccountResponse is returned after unregistering an account.
type DeleteAccountResponse struct {
	UserID         int64     `json:"user_id"`
	AccountNumber  string    `json:"account_number"`
	UnregisteredAt time.Time `json:"unregistered_at"`
}

// AccountSummary is one entry of GET /api/users/{id}/accounts.
type AccountSummary struct {
	AccountNumber string `json:"account_number"`
	Balance       int64  `json:"balance"`
}
