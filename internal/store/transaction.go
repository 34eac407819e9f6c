package store

import (
	"context"

	"github.com/phrazzld/account-api/internal/domain"
)

// TransactionStore defines the interface for the append-only audit log of
// balance attempts. Records are never updated or deleted.
type TransactionStore interface {
	// Save appends a record.
	// Returns ErrTransactionExists if the ID is already used and
	// ErrCancellationExists if a successful cancellation of the same
	// original transaction is already stored.
	Save(ctx context.Context, tx *domain.Transaction) error

	// GetByID retrieves a record by transaction ID.
	// Returns ErrTransactionNotFound if the record does not exist.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// GetCancellation returns the successful CANCEL record that reverses
	// originalID. Returns ErrTransactionNotFound if there is none.
	GetCancellation(ctx context.Context, originalID string) (*domain.Transaction, error)
}
