package memory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustCreateAccount(t *testing.T, s *AccountStore, userID int64, number string, balance int64) *domain.Account {
	t.Helper()
	account, err := domain.NewAccount(userID, number, balance)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), account))
	return account
}

func TestAccountStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore(testLogger())

	account := mustCreateAccount(t, s, 15, "1000000012", 10000)
	assert.NotZero(t, account.ID)

	byNumber, err := s.GetByNumber(ctx, "1000000012")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byNumber.ID)
	assert.Equal(t, int64(10000), byNumber.Balance)

	byID, err := s.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "1000000012", byID.AccountNumber)

	// Returned values are copies
	byID.Balance = 0
	again, err := s.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10000), again.Balance)
}

func TestAccountStore_CreateDuplicateNumber(t *testing.T) {
	s := NewAccountStore(testLogger())
	mustCreateAccount(t, s, 1, "1000000000", 0)

	duplicate, err := domain.NewAccount(2, "1000000000", 0)
	require.NoError(t, err)

	err = s.Create(context.Background(), duplicate)
	assert.ErrorIs(t, err, store.ErrAccountNumberExists)
}

func TestAccountStore_CreateInvalid(t *testing.T) {
	s := NewAccountStore(testLogger())

	err := s.Create(context.Background(), &domain.Account{AccountNumber: "1", UserID: 1})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorIs(t, err, domain.ErrInvalidAccountNumber)
}

func TestAccountStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore(testLogger())

	_, err := s.GetByNumber(ctx, "1000000000")
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	_, err = s.GetByID(ctx, 42)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	_, err = s.GetLatest(ctx)
	assert.ErrorIs(t, err, store.ErrAccountNotFound)

	assert.ErrorIs(t, s.UpdateBalance(ctx, 42, 0, 10), store.ErrAccountNotFound)
	assert.ErrorIs(t, s.Unregister(ctx, 42, time.Now()), store.ErrAccountNotFound)
}

func TestAccountStore_ListCountLatest(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore(testLogger())

	mustCreateAccount(t, s, 1, "1000000002", 0)
	second := mustCreateAccount(t, s, 1, "1000000000", 0)
	mustCreateAccount(t, s, 2, "1000000001", 0)

	accounts, err := s.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "1000000000", accounts[0].AccountNumber)
	assert.Equal(t, "1000000002", accounts[1].AccountNumber)

	require.NoError(t, s.Unregister(ctx, second.ID, time.Now().UTC()))

	count, err := s.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	latest, err := s.GetLatest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1000000002", latest.AccountNumber)

	empty, err := s.ListByUser(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAccountStore_UpdateBalance(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore(testLogger())
	account := mustCreateAccount(t, s, 1, "1000000000", 10000)

	require.NoError(t, s.UpdateBalance(ctx, account.ID, 10000, 9000))

	err := s.UpdateBalance(ctx, account.ID, 10000, 8000)
	assert.ErrorIs(t, err, store.ErrBalanceConflict)

	err = s.UpdateBalance(ctx, account.ID, 9000, -1)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)

	stored, err := s.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), stored.Balance)
}

func TestAccountStore_UpdateBalanceConcurrentCAS(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore(testLogger())
	account := mustCreateAccount(t, s, 1, "1000000000", 100)

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.UpdateBalance(ctx, account.ID, 100, 90); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestAccountStore_Unregister(t *testing.T) {
	ctx := context.Background()
	s := NewAccountStore(testLogger())
	account := mustCreateAccount(t, s, 1, "1000000000", 0)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Unregister(ctx, account.ID, at))

	stored, err := s.GetByNumber(ctx, "1000000000")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountStatusUnregistered, stored.Status)
	require.NotNil(t, stored.UnregisteredAt)
	assert.Equal(t, at, *stored.UnregisteredAt)
}
