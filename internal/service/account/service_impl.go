package account

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/platform/lock"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	users    store.UserStore
	accounts store.AccountStore
	locker   lock.Locker
	now      func() time.Time
	logger   *slog.Logger
}

// NewService creates the account service.
func NewService(
	users store.UserStore,
	accounts store.AccountStore,
	locker lock.Locker,
	logger *slog.Logger,
) Service {
	if users == nil {
		panic("users cannot be nil")
	}
	if accounts == nil {
		panic("accounts cannot be nil")
	}
	if locker == nil {
		panic("locker cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		users:    users,
		accounts: accounts,
		locker:   locker,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "account_service")),
	}
}

// RegisterUser implements Service.RegisterUser.
func (s *serviceImpl) RegisterUser(ctx context.Context, name string) (*domain.AccountUser, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewAccountUser(name)
	if err != nil {
		return nil, &domain.AccountError{Code: domain.CodeInvalidRequest, Message: err.Error()}
	}

	if err := s.users.Create(ctx, user); err != nil {
		log.Error("failed to create user", slog.String("error", err.Error()))
		return nil, newServiceError("register_user", "failed to create user", err)
	}

	log.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// CreateAccount implements Service.CreateAccount.
// Creation is serialized per user so the account limit holds under concurrency.
func (s *serviceImpl) CreateAccount(
	ctx context.Context,
	userID int64,
	initialBalance int64,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.Int64("user_id", userID))

	if initialBalance < 0 {
		return nil, &domain.AccountError{Code: domain.CodeInvalidRequest, Message: "initial balance cannot be negative"}
	}

	var account *domain.Account
	err := s.locker.WithLock(ctx, userLockKey(userID), func(ctx context.Context) error {
		if err := s.requireUser(ctx, userID); err != nil {
			return err
		}

		count, err := s.accounts.CountByUser(ctx, userID)
		if err != nil {
			return err
		}
		if count >= MaxAccountsPerUser {
			return domain.ErrMaxAccountPerUser
		}

		account, err = s.createWithNextNumber(ctx, userID, initialBalance)
		return err
	})
	if err != nil {
		return nil, s.mapError(log, "create_account", err)
	}

	log.Info("account created",
		slog.String("account_number", account.AccountNumber),
		slog.Int64("balance", account.Balance))
	return account, nil
}

// createWithNextNumber issues the number after the latest one, retrying when
// another process takes it first.
func (s *serviceImpl) createWithNextNumber(
	ctx context.Context,
	userID int64,
	initialBalance int64,
) (*domain.Account, error) {
	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		latest := ""
		latestAccount, err := s.accounts.GetLatest(ctx)
		switch {
		case err == nil:
			latest = latestAccount.AccountNumber
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}

		number, err := domain.NextAccountNumber(latest)
		if err != nil {
			return nil, err
		}

		account, err := domain.NewAccount(userID, number, initialBalance)
		if err != nil {
			return nil, err
		}

		err = s.accounts.Create(ctx, account)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, store.ErrAccountNumberExists) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// DeleteAccount implements Service.DeleteAccount.
func (s *serviceImpl) DeleteAccount(
	ctx context.Context,
	userID int64,
	accountNumber string,
) (*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.Int64("user_id", userID),
		slog.String("account_number", accountNumber))

	var account *domain.Account
	err := s.locker.WithLock(ctx, accountNumber, func(ctx context.Context) error {
		if err := s.requireUser(ctx, userID); err != nil {
			return err
		}

		var err error
		account, err = s.accounts.GetByNumber(ctx, accountNumber)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.ErrAccountNotFound
			}
			return err
		}

		switch {
		case !account.IsOwnedBy(userID):
			return domain.ErrUserAccountUnMatch
		case !account.IsInUse():
			return domain.ErrAccountAlreadyUnregistered
		case account.Balance != 0:
			return domain.ErrBalanceNotEmpty
		}

		at := s.now().UTC()
		if err := s.accounts.Unregister(ctx, account.ID, at); err != nil {
			return err
		}
		account.Status = domain.AccountStatusUnregistered
		account.UnregisteredAt = &at
		account.UpdatedAt = at
		return nil
	})
	if err != nil {
		return nil, s.mapError(log, "delete_account", err)
	}

	log.Info("account unregistered")
	return account, nil
}

// ListAccounts implements Service.ListAccounts.
func (s *serviceImpl) ListAccounts(ctx context.Context, userID int64) ([]*domain.Account, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.Int64("user_id", userID))

	if err := s.requireUser(ctx, userID); err != nil {
		return nil, s.mapError(log, "list_accounts", err)
	}

	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return nil, s.mapError(log, "list_accounts", err)
	}
	return accounts, nil
}

func (s *serviceImpl) requireUser(ctx context.Context, userID int64) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return nil
}

// mapError passes rule violations through and wraps everything else.
func (s *serviceImpl) mapError(log *slog.Logger, op string, err error) error {
	if errors.Is(err, lock.ErrNotAcquired) {
		log.Warn("lock not acquired", slog.String("error", err.Error()))
		return domain.ErrAccountTransactionLock
	}
	if accountErr, ok := domain.AsAccountError(err); ok {
		log.Info("account operation rejected", slog.String("error_code", string(accountErr.Code)))
		return accountErr
	}
	log.Error("account operation failed", slog.String("operation", op), slog.String("error", err.Error()))
	return newServiceError(op, "failed to process account operation", err)
}

func userLockKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
