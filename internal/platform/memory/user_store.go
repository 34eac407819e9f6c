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

// UserStore implements store.UserStore in memory.
type UserStore struct {
	mu     sync.RWMutex
	users  map[int64]domain.AccountUser
	nextID int64
	logger *slog.Logger
}

// NewUserStore creates a new empty UserStore.
// If logger is nil, the default logger is used.
func NewUserStore(logger *slog.Logger) *UserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		users:  make(map[int64]domain.AccountUser),
		logger: logger.With(slog.String("component", "memory_user_store")),
	}
}

// Ensure UserStore implements store.UserStore interface
var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.
func (s *UserStore) Create(ctx context.Context, user *domain.AccountUser) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	user.ID = s.nextID
	s.users[user.ID] = *user

	logger.FromContextOrDefault(ctx, s.logger).Debug("user created",
		slog.Int64("user_id", user.ID))
	return nil
}

// GetByID implements store.UserStore.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*domain.AccountUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return &user, nil
}
