package transaction

import (
	"context"
	"sync"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/events"
	"github.com/phrazzld/account-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockUserStore mocks the store.UserStore interface
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.AccountUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*domain.AccountUser, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountUser), args.Error(1)
}

// MockAccountStore mocks the store.AccountStore interface
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) Create(ctx context.Context, account *domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountStore) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Account, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*domain.Account), args.Error(1)
}

func (m *MockAccountStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockAccountStore) GetLatest(ctx context.Context) (*domain.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountStore) UpdateBalance(ctx context.Context, id int64, expected, next int64) error {
	args := m.Called(ctx, id, expected, next)
	return args.Error(0)
}

func (m *MockAccountStore) Unregister(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockTransactionStore mocks the store.TransactionStore interface
type MockTransactionStore struct {
	mock.Mock
}

func (m *MockTransactionStore) Save(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionStore) GetCancellation(ctx context.Context, originalID string) (*domain.Transaction, error) {
	args := m.Called(ctx, originalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

// passthroughTxRunner runs the unit directly against the given stores.
type passthroughTxRunner struct {
	accounts     store.AccountStore
	transactions store.TransactionStore
}

func (r *passthroughTxRunner) RunInTx(ctx context.Context, fn store.UnitFn) error {
	return fn(ctx, r.accounts, r.transactions)
}

// noopLocker runs fn without locking, or fails with err when set.
// held reports whether fn is running.
type noopLocker struct {
	err  error
	held bool
}

func (l *noopLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if l.err != nil {
		return l.err
	}
	l.held = true
	defer func() { l.held = false }()
	return fn(ctx)
}

// recordingEmitter collects emitted events. When locker is set it also
// notes whether the lock was held at each emit.
type recordingEmitter struct {
	mu         sync.Mutex
	events     []*events.Event
	err        error
	locker     *noopLocker
	heldAtEmit []bool
}

func (e *recordingEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	if e.locker != nil {
		e.heldAtEmit = append(e.heldAtEmit, e.locker.held)
	}
	return e.err
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}
