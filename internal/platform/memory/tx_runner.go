package memory

import (
	"context"
	"log/slog"

	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/store"
)

// TxRunner implements store.TxRunner for the memory stores.
// Balance writes made inside a unit are reverted with a compare-and-set
// in reverse order when the unit fails. Records are append-only and are
// written last by callers, so nothing else needs undoing.
type TxRunner struct {
	accounts     store.AccountStore
	transactions store.TransactionStore
	logger       *slog.Logger
}

// NewTxRunner creates a TxRunner over the given stores.
func NewTxRunner(
	accounts store.AccountStore,
	transactions store.TransactionStore,
	logger *slog.Logger,
) *TxRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &TxRunner{
		accounts:     accounts,
		transactions: transactions,
		logger:       logger.With(slog.String("component", "memory_tx_runner")),
	}
}

// Ensure TxRunner implements store.TxRunner interface
var _ store.TxRunner = (*TxRunner)(nil)

// RunInTx implements store.TxRunner.
func (r *TxRunner) RunInTx(ctx context.Context, fn store.UnitFn) error {
	unit := &unitAccounts{AccountStore: r.accounts}

	err := fn(ctx, unit, r.transactions)
	if err == nil {
		return nil
	}

	log := logger.FromContextOrDefault(ctx, r.logger)
	for i := len(unit.writes) - 1; i >= 0; i-- {
		w := unit.writes[i]
		if undoErr := r.accounts.UpdateBalance(ctx, w.id, w.next, w.previous); undoErr != nil {
			log.Error("failed to revert balance write",
				slog.Int64("account_id", w.id),
				slog.String("error", undoErr.Error()))
		}
	}
	return err
}

type balanceWrite struct {
	id       int64
	previous int64
	next     int64
}

// unitAccounts records successful balance writes so they can be reverted.
type unitAccounts struct {
	store.AccountStore
	writes []balanceWrite
}

func (u *unitAccounts) UpdateBalance(ctx context.Context, id int64, expected, next int64) error {
	if err := u.AccountStore.UpdateBalance(ctx, id, expected, next); err != nil {
		return err
	}
	u.writes = append(u.writes, balanceWrite{id: id, previous: expected, next: next})
	return nil
}
