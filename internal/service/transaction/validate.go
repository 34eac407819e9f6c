package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/account-api/internal/domain"
	"github.com/phrazzld/account-api/internal/store"
)

// validator runs the read-only checks that precede a balance mutation.
// Each method stops at the first failing check. A *domain.AccountError
// reports the violated rule; any other error comes from a store.
// The returned account is whatever could be resolved before stopping.
type validator struct {
	users        store.UserStore
	accounts     store.AccountStore
	transactions store.TransactionStore
	cancelWindow time.Duration
	now          func() time.Time
}

func (v *validator) validateUse(
	ctx context.Context,
	userID int64,
	accountNumber string,
	amount int64,
) (*domain.Account, error) {
	if _, err := v.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	account, err := v.account(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if !account.IsOwnedBy(userID) {
		return account, domain.ErrUserAccountUnMatch
	}
	if !account.IsInUse() {
		return account, domain.ErrAccountAlreadyUnregistered
	}
	if amount > account.Balance {
		return account, domain.ErrAmountExceedBalance
	}
	return account, nil
}

func (v *validator) validateCancel(
	ctx context.Context,
	transactionID string,
	accountNumber string,
	amount int64,
) (*domain.Account, *domain.Transaction, error) {
	account, err := v.account(ctx, accountNumber)
	if err != nil {
		return nil, nil, err
	}
	if !account.IsInUse() {
		return account, nil, domain.ErrAccountAlreadyUnregistered
	}

	original, err := v.transactions.GetByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return account, nil, domain.ErrTransactionNotFound
		}
		return account, nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if original.AccountNumber != account.AccountNumber {
		return account, original, domain.ErrTransactionAccountUnMatch
	}
	if !original.IsSuccessfulUse() {
		return account, original, &domain.AccountError{
			Code:    domain.CodeInvalidRequest,
			Message: "only a successful use can be canceled",
		}
	}
	if amount != original.Amount {
		return account, original, domain.ErrTransactionAmountUnMatch
	}
	if v.now().Sub(original.TransactedAt) > v.cancelWindow {
		return account, original, domain.ErrTooOldOrderToCancel
	}

	_, err = v.transactions.GetCancellation(ctx, original.ID)
	switch {
	case err == nil:
		return account, original, domain.ErrTransactionAlreadyCanceled
	case !errors.Is(err, store.ErrNotFound):
		return account, original, fmt.Errorf("failed to get cancellation: %w", err)
	}

	return account, original, nil
}

func (v *validator) account(ctx context.Context, accountNumber string) (*domain.Account, error) {
	account, err := v.accounts.GetByNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}
