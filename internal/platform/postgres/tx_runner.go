package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/phrazzld/account-api/internal/store"
)

// TxRunner implements store.TxRunner with a database transaction.
type TxRunner struct {
	db           *sql.DB
	accounts     *PostgresAccountStore
	transactions *PostgresTransactionStore
}

// NewTxRunner creates a TxRunner whose units run in transactions on db.
func NewTxRunner(db *sql.DB, logger *slog.Logger) *TxRunner {
	return &TxRunner{
		db:           db,
		accounts:     NewPostgresAccountStore(db, logger),
		transactions: NewPostgresTransactionStore(db, logger),
	}
}

// Ensure TxRunner implements store.TxRunner interface
var _ store.TxRunner = (*TxRunner)(nil)

// RunInTx implements store.TxRunner.
func (r *TxRunner) RunInTx(ctx context.Context, fn store.UnitFn) error {
	return store.RunInTransaction(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, r.accounts.WithTx(tx), r.transactions.WithTx(tx))
	})
}
