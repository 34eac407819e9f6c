package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/store"
)

// TransactionStore implements store.TransactionStore in memory.
type TransactionStore struct {
	mu            sync.RWMutex
	transactions  map[string]domain.Transaction
	cancellations map[string]string // original transaction ID -> cancel record ID
	logger        *slog.Logger
}

// NewTransactionStore creates a new empty TransactionStore.
// If logger is nil, the default logger is used.
func NewTransactionStore(logger *slog.Logger) *TransactionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionStore{
		transactions:  make(map[string]domain.Transaction),
		cancellations: make(map[string]string),
		logger:        logger.With(slog.String("component", "memory_transaction_store")),
	}
}

// Ensure TransactionStore implements store.TransactionStore interface
var _ store.TransactionStore = (*TransactionStore)(nil)

// Save implements store.TransactionStore.
func (s *TransactionStore) Save(ctx context.Context, tx *domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.transactions[tx.ID]; exists {
		return store.ErrTransactionExists
	}

	isCancellation := tx.Type == domain.TransactionTypeCancel &&
		tx.Result == domain.TransactionResultSuccess &&
		tx.CanceledTransactionID != ""
	if isCancellation {
		if _, exists := s.cancellations[tx.CanceledTransactionID]; exists {
			return store.ErrCancellationExists
		}
		s.cancellations[tx.CanceledTransactionID] = tx.ID
	}

	s.transactions[tx.ID] = *tx

	logger.FromContextOrDefault(ctx, s.logger).Debug("transaction recorded",
		slog.String("transaction_id", tx.ID),
		slog.String("type", string(tx.Type)),
		slog.String("result", string(tx.Result)))
	return nil
}

// GetByID implements store.TransactionStore.
func (s *TransactionStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactions[id]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	return &tx, nil
}

// GetCancellation implements store.TransactionStore.
func (s *TransactionStore) GetCancellation(ctx context.Context, originalID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cancelID, ok := s.cancellations[originalID]
	if !ok {
		return nil, store.ErrTransactionNotFound
	}
	tx := s.transactions[cancelID]
	return &tx, nil
}

// Len returns the number of stored records.
func (s *TransactionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions)
}

// List returns every stored record for the account number, in no particular order.
func (s *TransactionStore) List(accountNumber string) []*domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Transaction
	for _, tx := range s.transactions {
		if tx.AccountNumber == accountNumber {
			tx := tx
			out = append(out, &tx)
		}
	}
	return out
}
