package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/store"
)

// AccountStore implements store.AccountStore in memory.
// Accounts are stored by value so callers never share state with the store.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[int64]domain.Account
	byNumber map[string]int64
	nextID   int64
	logger   *slog.Logger
}

// NewAccountStore creates a new empty AccountStore.
// If logger is nil, the default logger is used.
func NewAccountStore(logger *slog.Logger) *AccountStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountStore{
		accounts: make(map[int64]domain.Account),
		byNumber: make(map[string]int64),
		logger:   logger.With(slog.String("component", "memory_account_store")),
	}
}

// Ensure AccountStore implements store.AccountStore interface
var _ store.AccountStore = (*AccountStore)(nil)

// Create implements store.AccountStore.
func (s *AccountStore) Create(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byNumber[account.AccountNumber]; exists {
		return store.ErrAccountNumberExists
	}

	s.nextID++
	account.ID = s.nextID
	s.accounts[account.ID] = *account
	s.byNumber[account.AccountNumber] = account.ID

	logger.FromContextOrDefault(ctx, s.logger).Debug("account created",
		slog.Int64("account_id", account.ID),
		slog.String("account_number", account.AccountNumber))
	return nil
}

// GetByID implements store.AccountStore.
func (s *AccountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return &account, nil
}

// GetByNumber implements store.AccountStore.
func (s *AccountStore) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byNumber[accountNumber]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	account := s.accounts[id]
	return &account, nil
}

// ListByUser implements store.AccountStore.
func (s *AccountStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*domain.Account, 0)
	for _, account := range s.accounts {
		if account.UserID == userID {
			account := account
			accounts = append(accounts, &account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].AccountNumber < accounts[j].AccountNumber
	})
	return accounts, nil
}

// CountByUser implements store.AccountStore.
func (s *AccountStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, account := range s.accounts {
		if account.UserID == userID && account.IsInUse() {
			count++
		}
	}
	return count, nil
}

// GetLatest implements store.AccountStore.
func (s *AccountStore) GetLatest(ctx context.Context) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Account
	for _, account := range s.accounts {
		if latest == nil || account.AccountNumber > latest.AccountNumber {
			account := account
			latest = &account
		}
	}
	if latest == nil {
		return nil, store.ErrAccountNotFound
	}
	return latest, nil
}

// UpdateBalance implements store.AccountStore.
func (s *AccountStore) UpdateBalance(ctx context.Context, id int64, expected, next int64) error {
	if next < 0 {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrNegativeBalance)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}
	if account.Balance != expected {
		return store.ErrBalanceConflict
	}

	account.Balance = next
	account.UpdatedAt = time.Now().UTC()
	s.accounts[id] = account

	logger.FromContextOrDefault(ctx, s.logger).Debug("account balance updated",
		slog.Int64("account_id", id),
		slog.Int64("balance", next))
	return nil
}

// Unregister implements store.AccountStore.
func (s *AccountStore) Unregister(ctx context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return store.ErrAccountNotFound
	}

	account.Status = domain.AccountStatusUnregistered
	account.UnregisteredAt = &at
	account.UpdatedAt = at
	s.accounts[id] = account
	return nil
}
