// Package account manages account users and the lifecycle of their accounts.
package account

import (
	"context"
	"fmt"

	"github.com/phrazzld/account-api/internal/domain"
)

// MaxAccountsPerUser is the maximum number of IN_USE accounts a user may own.
const MaxAccountsPerUser = 10

// maxNumberAttempts bounds retries when a generated account number is taken.
const maxNumberAttempts = 5

// Service provides user registration and account management.
type Service interface {
	// RegisterUser creates a new account user.
	// Returns domain.ErrInvalidRequest if the name is invalid.
	RegisterUser(ctx context.Context, name string) (*domain.AccountUser, error)

	// CreateAccount opens a new account for the user with the given initial
	// balance. The account number follows the latest issued number.
	//
	// Returns:
	//   - domain.ErrUserNotFound if the user does not exist
	//   - domain.ErrMaxAccountPerUser if the user already has MaxAccountsPerUser accounts
	//   - domain.ErrInvalidRequest if the initial balance is negative
	CreateAccount(ctx context.Context, userID int64, initialBalance int64) (*domain.Account, error)

	// DeleteAccount unregisters an empty account owned by the user. It is
	// serialized with balance operations on the same account.
	//
	// Returns:
	//   - domain.ErrUserNotFound, domain.ErrAccountNotFound
	//   - domain.ErrUserAccountUnMatch if the user does not own the account
	//   - domain.ErrAccountAlreadyUnregistered
	//   - domain.ErrBalanceNotEmpty if the balance is not zero
	DeleteAccount(ctx context.Context, userID int64, accountNumber string) (*domain.Account, error)

	// ListAccounts returns every account owned by the user.
	// Returns domain.ErrUserNotFound if the user does not exist.
	ListAccounts(ctx context.Context, userID int64) ([]*domain.Account, error)
}

// ServiceError wraps infrastructure failures of the account service.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "create_account")
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

func newServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{Operation: operation, Message: message, Err: err}
}
