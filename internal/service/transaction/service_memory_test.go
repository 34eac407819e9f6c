package transaction

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/events"
	"github.com/phrazzld/account-api/internal/platform/lock"
	"github.com/phrazzld/account-api/internal/platform/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFixture struct {
	users        *memory.UserStore
	accounts     *memory.AccountStore
	transactions *memory.TransactionStore
	emitter      *events.InMemoryEventEmitter
	svc          Service
}

func newMemoryFixture(t *testing.T) *memoryFixture {
	t.Helper()
	log := testLogger()
	f := &memoryFixture{
		users:        memory.NewUserStore(log),
		accounts:     memory.NewAccountStore(log),
		transactions: memory.NewTransactionStore(log),
		emitter:      events.NewInMemoryEventEmitter(log),
	}
	f.svc = NewService(
		f.users,
		f.accounts,
		f.transactions,
		memory.NewTxRunner(f.accounts, f.transactions, log),
		lock.NewLocalLocker(5*time.Second, log),
		f.emitter,
		Config{},
		log,
	)
	return f
}

func (f *memoryFixture) user(t *testing.T, name string) *domain.AccountUser {
	t.Helper()
	user, err := domain.NewAccountUser(name)
	require.NoError(t, err)
	require.NoError(t, f.users.Create(context.Background(), user))
	return user
}

func (f *memoryFixture) account(t *testing.T, userID int64, number string, balance int64) *domain.Account {
	t.Helper()
	account, err := domain.NewAccount(userID, number, balance)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return account
}

func (f *memoryFixture) balance(t *testing.T, number string) int64 {
	t.Helper()
	account, err := f.accounts.GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return account.Balance
}

func TestMemory_UseThenCancel(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	user := f.user(t, "Pobi")
	f.account(t, user.ID, "1000000012", 10000)

	used, err := f.svc.UseBalance(ctx, user.ID, "1000000012", 1000)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), used.BalanceSnapshot)
	assert.Equal(t, int64(9000), f.balance(t, "1000000012"))

	canceled, err := f.svc.CancelBalance(ctx, used.TransactionID, "1000000012", 1000)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeCancel, canceled.TransactionType)
	assert.Equal(t, int64(10000), canceled.BalanceSnapshot)
	assert.Equal(t, int64(10000), f.balance(t, "1000000012"))

	// A use can be canceled only once
	_, err = f.svc.CancelBalance(ctx, used.TransactionID, "1000000012", 1000)
	assert.ErrorIs(t, err, domain.ErrTransactionAlreadyCanceled)
	assert.Equal(t, int64(10000), f.balance(t, "1000000012"))

	// A cancel record is not itself cancelable
	_, err = f.svc.CancelBalance(ctx, canceled.TransactionID, "1000000012", 1000)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	stored, err := f.svc.GetTransaction(ctx, canceled.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, canceled, stored)

	assert.Equal(t, 4, f.transactions.Len())
}

func TestMemory_AuditCompleteness(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	owner := f.user(t, "Pobi")
	other := f.user(t, "Harry")
	f.account(t, owner.ID, "1000000012", 500)

	attempts := []struct {
		userID int64
		number string
		amount int64
		ok     bool
	}{
		{owner.ID, "1000000012", 200, true},
		{owner.ID, "1000000012", 1000, false},
		{other.ID, "1000000012", 100, false},
		{owner.ID, "1000000099", 100, false},
		{999, "1000000012", 100, false},
		{owner.ID, "1000000012", 300, true},
	}
	for _, a := range attempts {
		_, err := f.svc.UseBalance(ctx, a.userID, a.number, a.amount)
		assert.Equal(t, a.ok, err == nil, "attempt %+v: %v", a, err)
	}

	assert.Equal(t, len(attempts), f.transactions.Len())
	assert.Equal(t, int64(0), f.balance(t, "1000000012"))

	missing := f.transactions.List("1000000099")
	require.Len(t, missing, 1)
	assert.Zero(t, missing[0].AccountID)
	assert.Zero(t, missing[0].BalanceSnapshot)
	assert.Equal(t, domain.CodeAccountNotFound, missing[0].ErrorCode)
}

func TestMemory_SnapshotEqualsStoredBalance(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	user := f.user(t, "Pobi")
	f.account(t, user.ID, "1000000012", 10000)

	before := int64(10000)
	for _, amount := range []int64{10, 990, 4000, 5000} {
		result, err := f.svc.UseBalance(ctx, user.ID, "1000000012", amount)
		require.NoError(t, err)
		assert.Equal(t, before-amount, result.BalanceSnapshot)
		assert.Equal(t, result.BalanceSnapshot, f.balance(t, "1000000012"))
		before = result.BalanceSnapshot
	}
	assert.Zero(t, before)

	_, err := f.svc.UseBalance(ctx, user.ID, "1000000012", 10)
	assert.ErrorIs(t, err, domain.ErrAmountExceedBalance)
}

func TestMemory_ConcurrentUsesNeverOverdraw(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	user := f.user(t, "Pobi")
	f.account(t, user.ID, "1000000012", 1000)

	const attempts = 50
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		exceeded  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.UseBalance(ctx, user.ID, "1000000012", 100)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if assert.ErrorIs(t, err, domain.ErrAmountExceedBalance) {
				exceeded++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, successes)
	assert.Equal(t, attempts-10, exceeded)
	assert.Zero(t, f.balance(t, "1000000012"))
	assert.Equal(t, attempts, f.transactions.Len())
}

func TestMemory_DifferentAccountsAreIndependent(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	user := f.user(t, "Pobi")
	f.account(t, user.ID, "1000000001", 10000)
	f.account(t, user.ID, "1000000002", 10000)

	var wg sync.WaitGroup
	for _, number := range []string{"1000000001", "1000000002"} {
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(number string) {
				defer wg.Done()
				_, err := f.svc.UseBalance(ctx, user.ID, number, 100)
				assert.NoError(t, err)
			}(number)
		}
	}
	wg.Wait()

	assert.Equal(t, int64(9000), f.balance(t, "1000000001"))
	assert.Equal(t, int64(9000), f.balance(t, "1000000002"))
}

type countingHandler struct {
	mu    sync.Mutex
	types map[domain.TransactionResultType]int
}

func (h *countingHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	var payload events.TransactionRecorded
	if err := event.UnmarshalPayload(&payload); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types[payload.TransactionResultType]++
	return nil
}

func TestMemory_EventsForEveryRecord(t *testing.T) {
	f := newMemoryFixture(t)
	ctx := context.Background()
	handler := &countingHandler{types: make(map[domain.TransactionResultType]int)}
	f.emitter.RegisterHandler(handler)

	user := f.user(t, "Pobi")
	f.account(t, user.ID, "1000000012", 1000)

	_, err := f.svc.UseBalance(ctx, user.ID, "1000000012", 600)
	require.NoError(t, err)
	_, err = f.svc.UseBalance(ctx, user.ID, "1000000012", 600)
	require.Error(t, err)

	assert.Equal(t, 1, handler.types[domain.TransactionResultSuccess])
	assert.Equal(t, 1, handler.types[domain.TransactionResultFail])
}
