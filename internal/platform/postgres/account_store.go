package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/store"
)

const accountColumns = `id, account_number, user_id, balance, status, registered_at, unregistered_at, updated_at`

// PostgresAccountStore implements the store.AccountStore interface
// using a PostgreSQL database as the storage backend.
type PostgresAccountStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresAccountStore creates a new PostgreSQL implementation of the AccountStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresAccountStore(db store.DBTX, logger *slog.Logger) *PostgresAccountStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAccountStore{
		db:     db,
		logger: logger.With(slog.String("component", "account_store")),
	}
}

// Ensure PostgresAccountStore implements store.AccountStore interface
var _ store.AccountStore = (*PostgresAccountStore)(nil)

// WithTx returns a new PostgresAccountStore that runs its queries in tx.
func (s *PostgresAccountStore) WithTx(tx *sql.Tx) *PostgresAccountStore {
	return &PostgresAccountStore{
		db:     tx,
		logger: s.logger,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var (
		account        domain.Account
		status         string
		unregisteredAt sql.NullTime
	)
	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.UserID,
		&account.Balance,
		&status,
		&account.RegisteredAt,
		&unregisteredAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	account.Status = domain.AccountStatus(status)
	if unregisteredAt.Valid {
		at := unregisteredAt.Time
		account.UnregisteredAt = &at
	}
	return &account, nil
}

// Create implements store.AccountStore.Create
// Returns store.ErrAccountNumberExists if the account number is taken.
func (s *PostgresAccountStore) Create(ctx context.Context, account *domain.Account) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := account.Validate(); err != nil {
		log.Warn("account validation failed during create",
			slog.String("error", err.Error()),
			slog.String("account_number", account.AccountNumber))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO accounts (account_number, user_id, balance, status, registered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		account.AccountNumber,
		account.UserID,
		account.Balance,
		string(account.Status),
		account.RegisteredAt,
		account.UpdatedAt,
	).Scan(&account.ID)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrAccountNumberExists) {
			log.Debug("account number already taken",
				slog.String("account_number", account.AccountNumber))
			return mapped
		}
		log.Error("failed to create account",
			slog.String("error", err.Error()),
			slog.String("account_number", account.AccountNumber),
			slog.Int64("user_id", account.UserID))
		return mapped
	}

	log.Info("account created successfully",
		slog.Int64("account_id", account.ID),
		slog.String("account_number", account.AccountNumber),
		slog.Int64("user_id", account.UserID))
	return nil
}

func (s *PostgresAccountStore) getOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get account",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return account, nil
}

// GetByID implements store.AccountStore.GetByID
func (s *PostgresAccountStore) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	return s.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// GetByNumber implements store.AccountStore.GetByNumber
func (s *PostgresAccountStore) GetByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	return s.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber)
}

// GetLatest implements store.AccountStore.GetLatest
func (s *PostgresAccountStore) GetLatest(ctx context.Context) (*domain.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY account_number DESC LIMIT 1`))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrAccountNotFound
		}
		return nil, MapError(err)
	}
	return account, nil
}

// ListByUser implements store.AccountStore.ListByUser
func (s *PostgresAccountStore) ListByUser(ctx context.Context, userID int64) ([]*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY account_number`,
		userID)
	if err != nil {
		log.Error("failed to list accounts",
			slog.String("error", err.Error()),
			slog.Int64("user_id", userID))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	accounts := make([]*domain.Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, MapError(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return accounts, nil
}

// CountByUser implements store.AccountStore.CountByUser
func (s *PostgresAccountStore) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = $1 AND status = $2`,
		userID, string(domain.AccountStatusInUse)).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// UpdateBalance implements store.AccountStore.UpdateBalance
// The write only applies when the stored balance still equals expected.
func (s *PostgresAccountStore) UpdateBalance(ctx context.Context, id int64, expected, next int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $3, updated_at = $4
		WHERE id = $1 AND balance = $2
	`, id, expected, next, time.Now().UTC())
	if err != nil {
		log.Error("failed to update balance",
			slog.String("error", err.Error()),
			slog.Int64("account_id", id))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrBalanceConflict); err != nil {
		if !errors.Is(err, store.ErrBalanceConflict) {
			return err
		}
		// Distinguish a concurrent write from a missing account
		var exists bool
		if qErr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, id).Scan(&exists); qErr != nil {
			return MapError(qErr)
		}
		if !exists {
			return store.ErrAccountNotFound
		}
		log.Debug("balance changed concurrently", slog.Int64("account_id", id))
		return store.ErrBalanceConflict
	}

	return nil
}

// Unregister implements store.AccountStore.Unregister
func (s *PostgresAccountStore) Unregister(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET status = $2, unregistered_at = $3, updated_at = $3
		WHERE id = $1
	`, id, string(domain.AccountStatusUnregistered), at)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to unregister account",
			slog.String("error", err.Error()),
			slog.Int64("account_id", id))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrAccountNotFound)
}
