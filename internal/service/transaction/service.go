// Package transaction implements the balance operations of the account
// ledger: using balance, canceling a previous use and looking up records.
//
// Every balance-affecting attempt, successful or not, is persisted as exactly
// one domain.Transaction. Attempts on one account are serialized with a
// per-account lock; business rule violations are returned as
// *domain.AccountError after the FAIL record is saved, while store failures
// are returned as *ServiceError.
package transaction

import (
	"context"
	"fmt"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
)

// Default configuration values.
const (
	// DefaultCancelWindow is how long after a successful use it can be canceled.
	DefaultCancelWindow = 365 * 24 * time.Hour

	// DefaultMaxBalanceRetries bounds the compare-and-set retries of a balance write.
	DefaultMaxBalanceRetries = 3
)

// Service provides the balance operations.
type Service interface {
	// UseBalance debits amount from the account owned by userID.
	//
	// Checks run in order: amount is positive (INVALID_REQUEST, nothing is
	// recorded), user exists, account exists, account is owned by the user,
	// account is IN_USE, amount does not exceed the balance. The first failing
	// check is recorded as a FAIL transaction and returned as a
	// *domain.AccountError. On success the debit and the SUCCESS record are
	// written together and the envelope carries the balance after the debit.
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*domain.TransactionResult, error)

	// CancelBalance reverses a successful use of the same account.
	//
	// Checks run in order: amount is positive and the transaction ID is not
	// empty (INVALID_REQUEST, nothing is recorded), account exists, account is
	// IN_USE, the original transaction exists, belongs to the account, is a
	// successful USE, has the same amount, is within the cancel window and has
	// not already been canceled.
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*domain.TransactionResult, error)

	// GetTransaction returns the envelope of a recorded transaction.
	// Returns domain.ErrTransactionNotFound if there is no such record.
	GetTransaction(ctx context.Context, transactionID string) (*domain.TransactionResult, error)
}

// Config holds the tunables of the service.
type Config struct {
	// CancelWindow is the maximum age of a transaction that can be canceled.
	CancelWindow time.Duration
	// MaxBalanceRetries bounds retries of a conflicting balance write.
	MaxBalanceRetries int
}

func (c Config) withDefaults() Config {
	if c.CancelWindow <= 0 {
		c.CancelWindow = DefaultCancelWindow
	}
	if c.MaxBalanceRetries <= 0 {
		c.MaxBalanceRetries = DefaultMaxBalanceRetries
	}
	return c
}

// Operation names used in ServiceError.
const (
	OpUseBalance     = "use_balance"
	OpCancelBalance  = "cancel_balance"
	OpGetTransaction = "get_transaction"
)

// ServiceError wraps infrastructure failures of the transaction service.
// It never wraps a *domain.AccountError, so callers can tell a rejected
// request from a system that could not complete it.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "use_balance")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
