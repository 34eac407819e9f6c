package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/store"
)

const transactionColumns = `id, account_id, account_number, transaction_type, result_type, amount,
	balance_snapshot, transacted_at, canceled_transaction_id, error_code`

// PostgresTransactionStore implements the store.TransactionStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTransactionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTransactionStore creates a new PostgreSQL implementation of the TransactionStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTransactionStore(db store.DBTX, logger *slog.Logger) *PostgresTransactionStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTransactionStore{
		db:     db,
		logger: logger.With(slog.String("component", "transaction_store")),
	}
}

// Ensure PostgresTransactionStore implements store.TransactionStore interface
var _ store.TransactionStore = (*PostgresTransactionStore)(nil)

// WithTx returns a new PostgresTransactionStore that runs its queries in tx.
func (s *PostgresTransactionStore) WithTx(tx *sql.Tx) *PostgresTransactionStore {
	return &PostgresTransactionStore{
		db:     tx,
		logger: s.logger,
	}
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

// Save implements store.TransactionStore.Save
func (s *PostgresTransactionStore) Save(ctx context.Context, tx *domain.Transaction) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := tx.Validate(); err != nil {
		log.Warn("transaction validation failed during save",
			slog.String("error", err.Error()),
			slog.String("transaction_id", tx.ID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		tx.ID,
		nullInt64(tx.AccountID),
		tx.AccountNumber,
		string(tx.Type),
		string(tx.Result),
		tx.Amount,
		tx.BalanceSnapshot,
		tx.TransactedAt,
		nullString(tx.CanceledTransactionID),
		nullString(string(tx.ErrorCode)),
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrCancellationExists) {
			log.Debug("cancellation already recorded",
				slog.String("canceled_transaction_id", tx.CanceledTransactionID))
			return mapped
		}
		log.Error("failed to save transaction",
			slog.String("error", err.Error()),
			slog.String("transaction_id", tx.ID))
		return mapped
	}

	log.Debug("transaction recorded",
		slog.String("transaction_id", tx.ID),
		slog.String("type", string(tx.Type)),
		slog.String("result", string(tx.Result)))
	return nil
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		tx         domain.Transaction
		accountID  sql.NullInt64
		txType     string
		result     string
		canceledID sql.NullString
		errorCode  sql.NullString
	)
	err := row.Scan(
		&tx.ID,
		&accountID,
		&tx.AccountNumber,
		&txType,
		&result,
		&tx.Amount,
		&tx.BalanceSnapshot,
		&tx.TransactedAt,
		&canceledID,
		&errorCode,
	)
	if err != nil {
		return nil, err
	}
	tx.AccountID = accountID.Int64
	tx.Type = domain.TransactionType(txType)
	tx.Result = domain.TransactionResultType(result)
	tx.CanceledTransactionID = canceledID.String
	tx.ErrorCode = domain.ErrorCode(errorCode.String)
	return &tx, nil
}

func (s *PostgresTransactionStore) getOne(ctx context.Context, query string, arg any) (*domain.Transaction, error) {
	tx, err := scanTransaction(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTransactionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get transaction",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return tx, nil
}

// GetByID implements store.TransactionStore.GetByID
func (s *PostgresTransactionStore) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

// GetCancellation implements store.TransactionStore.GetCancellation
func (s *PostgresTransactionStore) GetCancellation(
	ctx context.Context,
	originalID string,
) (*domain.Transaction, error) {
	return s.getOne(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE canceled_transaction_id = $1
		  AND transaction_type = 'CANCEL'
		  AND result_type = 'SUCCESS'
	`, originalID)
}
