package transaction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/events"
	"github.com/phrazzld/account-api/internal/platform/lock"
	"github.com/phrazzld/account-api/internal/platform/logger"
	"github.com/phrazzld/account-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

type serviceImpl struct {
	accounts     store.AccountStore
	transactions store.TransactionStore
	txRunner     store.TxRunner
	locker       lock.Locker
	emitter      events.EventEmitter
	validator    *validator
	mutator      *balanceMutator
	logger       *slog.Logger
}

// NewService creates the transaction service. emitter may be nil, in which
// case no events are published.
func NewService(
	users store.UserStore,
	accounts store.AccountStore,
	transactions store.TransactionStore,
	txRunner store.TxRunner,
	locker lock.Locker,
	emitter events.EventEmitter,
	cfg Config,
	logger *slog.Logger,
) Service {
	if users == nil {
		panic("users cannot be nil")
	}
	if accounts == nil {
		panic("accounts cannot be nil")
	}
	if transactions == nil {
		panic("transactions cannot be nil")
	}
	if txRunner == nil {
		panic("txRunner cannot be nil")
	}
	if locker == nil {
		panic("locker cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg = cfg.withDefaults()
	logger = logger.With(slog.String("component", "transaction_service"))

	return &serviceImpl{
		accounts:     accounts,
		transactions: transactions,
		txRunner:     txRunner,
		locker:       locker,
		emitter:      emitter,
		validator: &validator{
			users:        users,
			accounts:     accounts,
			transactions: transactions,
			cancelWindow: cfg.CancelWindow,
			now:          time.Now,
		},
		mutator: &balanceMutator{
			maxRetries: cfg.MaxBalanceRetries,
			logger:     logger,
		},
		logger: logger,
	}
}

// attempt carries what is known about one balance attempt for recording.
type attempt struct {
	op            string
	txType        domain.TransactionType
	accountNumber string
	amount        int64
	canceledID    string
	account       *domain.Account
}

// UseBalance implements Service.UseBalance.
func (s *serviceImpl) UseBalance(
	ctx context.Context,
	userID int64,
	accountNumber string,
	amount int64,
) (*domain.TransactionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.Int64("user_id", userID),
		slog.String("account_number", accountNumber),
		slog.Int64("amount", amount))

	if amount <= 0 {
		log.Debug("rejecting non-positive amount")
		return nil, &domain.AccountError{Code: domain.CodeInvalidRequest, Message: domain.ErrInvalidAmount.Error()}
	}

	a := &attempt{
		op:            OpUseBalance,
		txType:        domain.TransactionTypeUse,
		accountNumber: accountNumber,
		amount:        amount,
	}

	var record *domain.Transaction
	err := s.withAccountLock(ctx, log, a, func(ctx context.Context) error {
		account, err := s.validator.validateUse(ctx, userID, accountNumber, amount)
		a.account = account
		if err != nil {
			return err
		}

		record, err = s.commit(ctx, a, -amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("balance used",
		slog.String("transaction_id", record.ID),
		slog.Int64("balance_snapshot", record.BalanceSnapshot))
	return domain.NewTransactionResult(record), nil
}

// CancelBalance implements Service.CancelBalance.
func (s *serviceImpl) CancelBalance(
	ctx context.Context,
	transactionID string,
	accountNumber string,
	amount int64,
) (*domain.TransactionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("canceled_transaction_id", transactionID),
		slog.String("account_number", accountNumber),
		slog.Int64("amount", amount))

	if amount <= 0 {
		log.Debug("rejecting non-positive amount")
		return nil, &domain.AccountError{Code: domain.CodeInvalidRequest, Message: domain.ErrInvalidAmount.Error()}
	}
	if transactionID == "" {
		log.Debug("rejecting empty transaction id")
		return nil, &domain.AccountError{Code: domain.CodeInvalidRequest, Message: "transaction id is required"}
	}

	a := &attempt{
		op:            OpCancelBalance,
		txType:        domain.TransactionTypeCancel,
		accountNumber: accountNumber,
		amount:        amount,
		canceledID:    transactionID,
	}

	var record *domain.Transaction
	err := s.withAccountLock(ctx, log, a, func(ctx context.Context) error {
		account, _, err := s.validator.validateCancel(ctx, transactionID, accountNumber, amount)
		a.account = account
		if err != nil {
			return err
		}

		record, err = s.commit(ctx, a, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info("balance use canceled",
		slog.String("transaction_id", record.ID),
		slog.Int64("balance_snapshot", record.BalanceSnapshot))
	return domain.NewTransactionResult(record), nil
}

// GetTransaction implements Service.GetTransaction.
func (s *serviceImpl) GetTransaction(ctx context.Context, transactionID string) (*domain.TransactionResult, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get transaction",
			slog.String("transaction_id", transactionID),
			slog.String("error", err.Error()))
		return nil, NewServiceError(OpGetTransaction, "failed to get transaction", err)
	}
	return domain.NewTransactionResult(tx), nil
}

// commit applies delta and saves the SUCCESS record in one unit of work,
// then publishes it. On failure a.account is left holding the latest known
// account state.
func (s *serviceImpl) commit(ctx context.Context, a *attempt, delta int64) (*domain.Transaction, error) {
	var record *domain.Transaction
	err := s.txRunner.RunInTx(ctx, func(
		ctx context.Context,
		accounts store.AccountStore,
		transactions store.TransactionStore,
	) error {
		updated, err := s.mutator.apply(ctx, accounts, a.account, delta)
		a.account = updated
		if err != nil {
			return err
		}

		record = domain.NewSuccessTransaction(a.txType, updated, a.amount, updated.Balance)
		record.CanceledTransactionID = a.canceledID
		if err := transactions.Save(ctx, record); err != nil {
			// The unit rolls back, so the stored balance is the one before delta
			rolledBack := *updated
			rolledBack.Balance -= delta
			a.account = &rolledBack

			if errors.Is(err, store.ErrCancellationExists) {
				return domain.ErrTransactionAlreadyCanceled
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, record)
	return record, nil
}

// withAccountLock runs fn under the lock of the attempt's account. Whatever
// the outcome, the record and its event are written before the lock is
// released, so events of one account leave in the order they were recorded.
// Only a lock that could not be acquired is recorded after the fact.
func (s *serviceImpl) withAccountLock(
	ctx context.Context,
	log *slog.Logger,
	a *attempt,
	fn func(ctx context.Context) error,
) error {
	locked := false
	err := s.locker.WithLock(ctx, a.accountNumber, func(ctx context.Context) error {
		locked = true
		if err := fn(ctx); err != nil {
			return s.fail(ctx, log, a, err)
		}
		return nil
	})
	if err != nil && !locked {
		return s.fail(ctx, log, a, err)
	}
	return err
}

// fail turns the error of an attempt into the error returned to the caller.
// Rule violations, including a lock that could not be acquired, are recorded
// as a FAIL transaction first. Anything else is an infrastructure error.
func (s *serviceImpl) fail(ctx context.Context, log *slog.Logger, a *attempt, err error) error {
	if errors.Is(err, lock.ErrNotAcquired) {
		log.Warn("account is locked by another transaction", slog.String("error", err.Error()))
		err = domain.ErrAccountTransactionLock
	}

	accountErr, ok := domain.AsAccountError(err)
	if !ok {
		log.Error("balance operation failed", slog.String("error", err.Error()))
		return NewServiceError(a.op, "failed to process balance operation", err)
	}

	log.Info("balance operation rejected", slog.String("error_code", string(accountErr.Code)))
	if recordErr := s.recordFailure(ctx, a, accountErr.Code); recordErr != nil {
		log.Error("failed to record failed transaction",
			slog.String("error_code", string(accountErr.Code)),
			slog.String("error", recordErr.Error()))
		return NewServiceError(a.op, "failed to record failed transaction", recordErr)
	}
	return accountErr
}

// recordFailure saves the FAIL record of a rejected attempt. When no account
// was resolved during the attempt it is looked up once more so the record
// references it; if that fails too, the record carries no account.
func (s *serviceImpl) recordFailure(ctx context.Context, a *attempt, code domain.ErrorCode) error {
	account := a.account
	if account == nil {
		resolved, err := s.accounts.GetByNumber(ctx, a.accountNumber)
		if err == nil {
			account = resolved
		} else if !errors.Is(err, store.ErrNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Warn("failed to resolve account for failed transaction",
				slog.String("account_number", a.accountNumber),
				slog.String("error", err.Error()))
		}
	}

	record := domain.NewFailedTransaction(a.txType, a.accountNumber, account, a.amount, code)
	record.CanceledTransactionID = a.canceledID
	if err := s.transactions.Save(ctx, record); err != nil {
		return err
	}

	s.publish(ctx, record)
	return nil
}

// publish emits a TransactionRecorded event. Publishing is best effort: the
// stored record is authoritative, so failures are only logged.
func (s *serviceImpl) publish(ctx context.Context, record *domain.Transaction) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewTransactionRecordedEvent(record)
	if err != nil {
		log.Error("failed to build transaction event",
			slog.String("transaction_id", record.ID),
			slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to publish transaction event",
			slog.String("transaction_id", record.ID),
			slog.String("event_id", event.ID.String()),
			slog.String("error", err.Error()))
	}
}
