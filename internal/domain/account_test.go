package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	account, err := NewAccount(15, "1000000012", 10000)
	require.NoError(t, err)

	assert.Equal(t, int64(15), account.UserID)
	assert.Equal(t, "1000000012", account.AccountNumber)
	assert.Equal(t, int64(10000), account.Balance)
	assert.Equal(t, AccountStatusInUse, account.Status)
	assert.False(t, account.RegisteredAt.IsZero())
	assert.Nil(t, account.UnregisteredAt)
}

func TestAccountValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(a *Account)
		wantErr error
	}{
		{name: "valid", mutate: func(a *Account) {}, wantErr: nil},
		{name: "short number", mutate: func(a *Account) { a.AccountNumber = "12345" }, wantErr: ErrInvalidAccountNumber},
		{name: "non digit number", mutate: func(a *Account) { a.AccountNumber = "10000000a0" }, wantErr: ErrInvalidAccountNumber},
		{name: "missing user", mutate: func(a *Account) { a.UserID = 0 }, wantErr: ErrEmptyAccountUserID},
		{name: "negative balance", mutate: func(a *Account) { a.Balance = -1 }, wantErr: ErrNegativeBalance},
		{name: "unknown status", mutate: func(a *Account) { a.Status = "CLOSED" }, wantErr: ErrInvalidAccountStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &Account{
				AccountNumber: "1000000000",
				UserID:        1,
				Balance:       0,
				Status:        AccountStatusInUse,
			}
			tt.mutate(account)
			assert.Equal(t, tt.wantErr, account.Validate())
		})
	}
}

func TestAccountBalanceAfter(t *testing.T) {
	account := &Account{Balance: 10000}

	next, err := account.BalanceAfter(-1000)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), next)

	next, err = account.BalanceAfter(-10000)
	require.NoError(t, err)
	assert.Equal(t, int64(0), next)

	next, err = account.BalanceAfter(-10001)
	assert.ErrorIs(t, err, ErrAmountExceedBalance)
	assert.Equal(t, int64(10000), next)

	next, err = account.BalanceAfter(500)
	require.NoError(t, err)
	assert.Equal(t, int64(10500), next)

	// the receiver is never modified
	assert.Equal(t, int64(10000), account.Balance)
}

func TestAccountBalanceAfter_Overflow(t *testing.T) {
	account := &Account{Balance: 1<<63 - 1}

	_, err := account.BalanceAfter(1)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAccountOwnershipAndStatus(t *testing.T) {
	account := &Account{UserID: 13, Status: AccountStatusInUse}

	assert.True(t, account.IsOwnedBy(13))
	assert.False(t, account.IsOwnedBy(12))
	assert.True(t, account.IsInUse())

	account.Status = AccountStatusUnregistered
	assert.False(t, account.IsInUse())
}

func TestNextAccountNumber(t *testing.T) {
	tests := []struct {
		latest  string
		want    string
		wantErr bool
	}{
		{latest: "", want: FirstAccountNumber},
		{latest: "1000000000", want: "1000000001"},
		{latest: "1000000099", want: "1000000100"},
		{latest: "9999999999", wantErr: true},
		{latest: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.latest, func(t *testing.T) {
			got, err := NextAccountNumber(tt.latest)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidAccountNumber))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
