package transaction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/store"
)

// balanceMutator is the only code that changes an account balance.
type balanceMutator struct {
	maxRetries int
	logger     *slog.Logger
}

// apply adds delta to the account balance with a compare-and-set write and
// returns the account as stored afterwards; its Balance is the snapshot.
//
// The non-negative check runs against the balance the write is conditioned
// on, so a concurrent change is detected by the store and the account is
// reloaded before checking again. On a rule violation the last loaded
// account is returned together with the *domain.AccountError.
func (m *balanceMutator) apply(
	ctx context.Context,
	accounts store.AccountStore,
	account *domain.Account,
	delta int64,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, m.logger)
	current := *account

	for attempt := 0; ; attempt++ {
		next, err := current.BalanceAfter(delta)
		if err != nil {
			return &current, err
		}

		err = accounts.UpdateBalance(ctx, current.ID, current.Balance, next)
		if err == nil {
			current.Balance = next
			return &current, nil
		}
		if !errors.Is(err, store.ErrBalanceConflict) {
			return &current, fmt.Errorf("failed to update balance: %w", err)
		}
		if attempt >= m.maxRetries {
			return &current, fmt.Errorf("gave up after %d attempts: %w", attempt+1, err)
		}

		log.Warn("balance changed concurrently, reloading account",
			slog.String("account_number", current.AccountNumber),
			slog.Int("attempt", attempt+1))

		reloaded, err := accounts.GetByID(ctx, current.ID)
		if err != nil {
			return &current, fmt.Errorf("failed to reload account: %w", err)
		}
		if !reloaded.IsInUse() {
			return reloaded, domain.ErrAccountAlreadyUnregistered
		}
		current = *reloaded
	}
}
