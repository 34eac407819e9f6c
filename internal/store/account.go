package store

import (
	"context"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
)

// AccountStore defines the interface for account persistence.
// Returned accounts are copies; mutating them does not change stored state.
type AccountStore interface {
	// Create saves a new account and assigns its ID.
	// Returns ErrAccountNumberExists if the account number is taken.
	Create(ctx context.Context, account *domain.Account) error

	// GetByID retrieves an account by its internal ID.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Account, error)

	// GetByNumber retrieves an account by its account number.
	// Returns ErrAccountNotFound if the account does not exist.
	GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)

	// ListByUser returns every account owned by the user, ordered by account number.
	ListByUser(ctx context.Context, userID int64) ([]*domain.Account, error)

	// CountByUser returns the number of IN_USE accounts owned by the user.
	CountByUser(ctx context.Context, userID int64) (int, error)

	// GetLatest returns the account with the highest account number.
	// Returns ErrAccountNotFound if no account exists.
	GetLatest(ctx context.Context) (*domain.Account, error)

	// UpdateBalance sets the balance to next only if it currently equals expected.
	// Returns ErrBalanceConflict if the stored balance differs and
	// ErrAccountNotFound if the account does not exist.
	UpdateBalance(ctx context.Context, id int64, expected, next int64) error

	// Unregister marks the account UNREGISTERED at the given time.
	// Returns ErrAccountNotFound if the account does not exist.
	Unregister(ctx context.Context, id int64, at time.Time) error
}
