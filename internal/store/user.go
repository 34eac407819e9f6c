package store

import (
	"context"

	"github.com/phrazzld/account-api/internal/domain"
)

// UserStore defines the interface for account user persistence.
type UserStore interface {
	// Create saves a new user and assigns its ID.
	// Returns validation errors from the domain AccountUser if data is invalid.
	Create(ctx context.Context, user *domain.AccountUser) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id int64) (*domain.AccountUser, error)
}
