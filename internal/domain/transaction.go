package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransactionType identifies the kind of balance operation.
type TransactionType string

// Possible transaction types
const (
	TransactionTypeUse    TransactionType = "USE"
	TransactionTypeCancel TransactionType = "CANCEL"
)

// TransactionResultType is the outcome of a balance operation attempt.
type TransactionResultType string

// Possible transaction results
const (
	TransactionResultSuccess TransactionResultType = "SUCCESS"
	TransactionResultFail    TransactionResultType = "FAIL"
)

// Common validation errors for Transaction
var (
	ErrEmptyTransactionID     = errors.New("transaction ID cannot be empty")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrInvalidResultType      = errors.New("invalid transaction result type")
	ErrMissingErrorCode       = errors.New("failed transaction must carry an error code")
)

// Transaction is the immutable audit record of one balance-affecting attempt.
//
// AccountID is zero when the attempt failed before an account could be
// resolved; AccountNumber always holds the requested number.
type Transaction struct {
	ID                    string                `json:"transaction_id"`
	AccountID             int64                 `json:"account_id"`
	AccountNumber         string                `json:"account_number"`
	Type                  TransactionType       `json:"transaction_type"`
	Result                TransactionResultType `json:"transaction_result_type"`
	Amount                int64                 `json:"amount"`
	BalanceSnapshot       int64                 `json:"balance_snapshot"`
	TransactedAt          time.Time             `json:"transacted_at"`
	CanceledTransactionID string                `json:"canceled_transaction_id,omitempty"`
	ErrorCode             ErrorCode             `json:"error_code,omitempty"`
}

// NewTransactionID returns a new opaque transaction identifier
// (a random UUID without dashes).
func NewTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewSuccessTransaction builds the record of a successful attempt.
// snapshot must be the balance after the mutation.
func NewSuccessTransaction(
	txType TransactionType,
	account *Account,
	amount int64,
	snapshot int64,
) *Transaction {
	return &Transaction{
		ID:              NewTransactionID(),
		AccountID:       account.ID,
		AccountNumber:   account.AccountNumber,
		Type:            txType,
		Result:          TransactionResultSuccess,
		Amount:          amount,
		BalanceSnapshot: snapshot,
		TransactedAt:    time.Now().UTC(),
	}
}

// NewFailedTransaction builds the record of a rejected attempt.
// account may be nil when it could not be resolved; the snapshot is then zero.
func NewFailedTransaction(
	txType TransactionType,
	accountNumber string,
	account *Account,
	amount int64,
	code ErrorCode,
) *Transaction {
	tx := &Transaction{
		ID:            NewTransactionID(),
		AccountNumber: accountNumber,
		Type:          txType,
		Result:        TransactionResultFail,
		Amount:        amount,
		TransactedAt:  time.Now().UTC(),
		ErrorCode:     code,
	}
	if account != nil {
		tx.AccountID = account.ID
		tx.AccountNumber = account.AccountNumber
		tx.BalanceSnapshot = account.Balance
	}
	return tx
}

// Validate checks if the Transaction has valid data.
func (t *Transaction) Validate() error {
	if t.ID == "" {
		return ErrEmptyTransactionID
	}
	if t.Type != TransactionTypeUse && t.Type != TransactionTypeCancel {
		return ErrInvalidTransactionType
	}
	switch t.Result {
	case TransactionResultSuccess:
	case TransactionResultFail:
		if t.ErrorCode == "" {
			return ErrMissingErrorCode
		}
	default:
		return ErrInvalidResultType
	}
	if t.BalanceSnapshot < 0 {
		return ErrNegativeBalance
	}
	return nil
}

// IsSuccessfulUse reports whether the transaction is a successful USE,
// the only kind that can be canceled.
func (t *Transaction) IsSuccessfulUse() bool {
	return t.Type == TransactionTypeUse && t.Result == TransactionResultSuccess
}

// TransactionResult is the envelope returned to callers of balance operations.
type TransactionResult struct {
	AccountNumber         string                `json:"account_number"`
	TransactionType       TransactionType       `json:"transaction_type"`
	TransactionResultType TransactionResultType `json:"transaction_result_type"`
	TransactionID         string                `json:"transaction_id"`
	Amount                int64                 `json:"amount"`
	TransactedAt          time.Time             `json:"transacted_at"`
	BalanceSnapshot       int64                 `json:"balance_snapshot"`
}

// NewTransactionResult maps a stored transaction to the outbound envelope.
func NewTransactionResult(t *Transaction) *TransactionResult {
	return &TransactionResult{
		AccountNumber:         t.AccountNumber,
		TransactionType:       t.Type,
		TransactionResultType: t.Result,
		TransactionID:         t.ID,
		Amount:                t.Amount,
		TransactedAt:          t.TransactedAt,
		BalanceSnapshot:       t.BalanceSnapshot,
	}
}
