package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

// Possible account status values
const (
	AccountStatusInUse        AccountStatus = "IN_USE"
	AccountStatusUnregistered AccountStatus = "UNREGISTERED"
)

// Account number rules.
const (
	// FirstAccountNumber is assigned when no account exists yet.
	FirstAccountNumber = "1000000000"

	// MaxAccountsPerUser is the number of IN_USE accounts a user may own.
	MaxAccountsPerUser = 10
)

var accountNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

// Common validation errors for Account
var (
	ErrInvalidAccountNumber = errors.New("account number must be 10 digits")
	ErrEmptyAccountUserID   = errors.New("account user ID cannot be empty")
	ErrNegativeBalance      = errors.New("account balance cannot be negative")
	ErrInvalidAccountStatus = errors.New("invalid account status")
)

// Account is a single ledger account owned by one AccountUser.
// The balance is held in the smallest currency unit.
type Account struct {
	ID             int64         `json:"id"`
	AccountNumber  string        `json:"account_number"`
	UserID         int64         `json:"user_id"`
	Balance        int64         `json:"balance"`
	Status         AccountStatus `json:"status"`
	RegisteredAt   time.Time     `json:"registered_at"`
	UnregisteredAt *time.Time    `json:"unregistered_at,omitempty"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewAccount creates a new IN_USE account for the given user.
func NewAccount(userID int64, accountNumber string, initialBalance int64) (*Account, error) {
	now := time.Now().UTC()
	account := &Account{
		AccountNumber: accountNumber,
		UserID:        userID,
		Balance:       initialBalance,
		Status:        AccountStatusInUse,
		RegisteredAt:  now,
		UpdatedAt:     now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	return account, nil
}

// Validate checks if the Account has valid data.
func (a *Account) Validate() error {
	if !IsValidAccountNumber(a.AccountNumber) {
		return ErrInvalidAccountNumber
	}
	if a.UserID <= 0 {
		return ErrEmptyAccountUserID
	}
	if a.Balance < 0 {
		return ErrNegativeBalance
	}
	if !isValidAccountStatus(a.Status) {
		return ErrInvalidAccountStatus
	}
	return nil
}

// IsInUse reports whether the account accepts balance operations.
func (a *Account) IsInUse() bool {
	return a.Status == AccountStatusInUse
}

// IsOwnedBy reports whether userID owns the account.
func (a *Account) IsOwnedBy(userID int64) bool {
	return a.UserID == userID
}

// BalanceAfter returns the balance that results from applying delta.
// It returns ErrAmountExceedBalance when the result would be negative.
func (a *Account) BalanceAfter(delta int64) (int64, error) {
	next := a.Balance + delta
	if delta < 0 && next < 0 {
		return a.Balance, ErrAmountExceedBalance
	}
	if delta > 0 && next < a.Balance {
		return a.Balance, fmt.Errorf("%w: balance overflow", ErrInvalidRequest)
	}
	return next, nil
}

// NextAccountNumber returns the account number that follows latest.
// An empty latest yields FirstAccountNumber.
func NextAccountNumber(latest string) (string, error) {
	if latest == "" {
		return FirstAccountNumber, nil
	}
	n, err := strconv.ParseInt(latest, 10, 64)
	if err != nil || !IsValidAccountNumber(latest) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountNumber, latest)
	}
	next := strconv.FormatInt(n+1, 10)
	if !IsValidAccountNumber(next) {
		return "", fmt.Errorf("%w: account numbers exhausted", ErrInvalidAccountNumber)
	}
	return next, nil
}

// IsValidAccountNumber reports whether s is a well-formed account number.
func IsValidAccountNumber(s string) bool {
	return accountNumberPattern.MatchString(s)
}

func isValidAccountStatus(status AccountStatus) bool {
	switch status {
	case AccountStatusInUse, AccountStatusUnregistered:
		return true
	default:
		return false
	}
}
