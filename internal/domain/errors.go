// Package domain defines the core business entities and errors.
package domain

import (
	"errors"
	"fmt"
)

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidAmount is returned when a balance amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")
)

// ErrorCode identifies a business rule violation. Codes are stable and are
// exposed to API clients and recorded on failed transactions.
type ErrorCode string

// Error codes raised by account and balance operations.
const (
	CodeInvalidRequest             ErrorCode = "INVALID_REQUEST"
	CodeUserNotFound               ErrorCode = "USER_NOT_FOUND"
	CodeAccountNotFound            ErrorCode = "ACCOUNT_NOT_FOUND"
	CodeUserAccountUnMatch         ErrorCode = "USER_ACCOUNT_UN_MATCH"
	CodeAccountAlreadyUnregistered ErrorCode = "ACCOUNT_ALREADY_UNREGISTERED"
	CodeAmountExceedBalance        ErrorCode = "AMOUNT_EXCEED_BALANCE"
	CodeTransactionNotFound        ErrorCode = "TRANSACTION_NOT_FOUND"
	CodeTransactionAccountUnMatch  ErrorCode = "TRANSACTION_ACCOUNT_UN_MATCH"
	CodeTransactionAmountUnMatch   ErrorCode = "TRANSACTION_AMOUNT_UN_MATCH"
	CodeTooOldOrderToCancel        ErrorCode = "TOO_OLD_ORDER_TO_CANCEL"
	CodeTransactionAlreadyCanceled ErrorCode = "TRANSACTION_ALREADY_CANCELED"
	CodeAccountTransactionLock     ErrorCode = "ACCOUNT_TRANSACTION_LOCK"
	CodeMaxAccountPerUser          ErrorCode = "MAX_ACCOUNT_PER_USER_10"
	CodeBalanceNotEmpty            ErrorCode = "BALANCE_NOT_EMPTY"
)

var codeMessages = map[ErrorCode]string{
	CodeInvalidRequest:             "invalid request",
	CodeUserNotFound:               "user not found",
	CodeAccountNotFound:            "account not found",
	CodeUserAccountUnMatch:         "account is not owned by the user",
	CodeAccountAlreadyUnregistered: "account is already unregistered",
	CodeAmountExceedBalance:        "amount exceeds account balance",
	CodeTransactionNotFound:        "transaction not found",
	CodeTransactionAccountUnMatch:  "transaction does not belong to the account",
	CodeTransactionAmountUnMatch:   "cancel amount must fully match the transaction amount",
	CodeTooOldOrderToCancel:        "transaction is too old to cancel",
	CodeTransactionAlreadyCanceled: "transaction is already canceled",
	CodeAccountTransactionLock:     "account is in use by another transaction",
	CodeMaxAccountPerUser:          "user already owns the maximum number of accounts (10)",
	CodeBalanceNotEmpty:            "account balance is not empty",
}

// Message returns the human readable description of the code.
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return string(c)
}

// AccountError is a business rule violation carrying a stable error code.
// It is distinct from infrastructure errors, which are never AccountErrors.
type AccountError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface for AccountError.
func (e *AccountError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an AccountError with the same code, so that
// errors created with different messages still match the code sentinels.
func (e *AccountError) Is(target error) bool {
	var other *AccountError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewAccountError creates an AccountError with the default message for code.
func NewAccountError(code ErrorCode) *AccountError {
	return &AccountError{Code: code, Message: code.Message()}
}

// Sentinels for errors.Is checks, one per code.
var (
	ErrInvalidRequest             = NewAccountError(CodeInvalidRequest)
	ErrUserNotFound               = NewAccountError(CodeUserNotFound)
	ErrAccountNotFound            = NewAccountError(CodeAccountNotFound)
	ErrUserAccountUnMatch         = NewAccountError(CodeUserAccountUnMatch)
	ErrAccountAlreadyUnregistered = NewAccountError(CodeAccountAlreadyUnregistered)
	ErrAmountExceedBalance        = NewAccountError(CodeAmountExceedBalance)
	ErrTransactionNotFound        = NewAccountError(CodeTransactionNotFound)
	ErrTransactionAccountUnMatch  = NewAccountError(CodeTransactionAccountUnMatch)
	ErrTransactionAmountUnMatch   = NewAccountError(CodeTransactionAmountUnMatch)
	ErrTooOldOrderToCancel        = NewAccountError(CodeTooOldOrderToCancel)
	ErrTransactionAlreadyCanceled = NewAccountError(CodeTransactionAlreadyCanceled)
	ErrAccountTransactionLock     = NewAccountError(CodeAccountTransactionLock)
	ErrMaxAccountPerUser          = NewAccountError(CodeMaxAccountPerUser)
	ErrBalanceNotEmpty            = NewAccountError(CodeBalanceNotEmpty)
)

// AsAccountError extracts the AccountError from err, if any.
func AsAccountError(err error) (*AccountError, bool) {
	var accountErr *AccountError
	if errors.As(err, &accountErr) {
		return accountErr, true
	}
	return nil, false
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Err:     err,
	}
}
