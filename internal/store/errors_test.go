package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "generic error",
			err:      errors.New("some error"),
			expected: false,
		},
		{
			name:     "ErrNotFound",
			err:      ErrNotFound,
			expected: true,
		},
		{
			name:     "wrapped ErrUserNotFound",
			err:      fmt.Errorf("failed to find user: %w", ErrUserNotFound),
			expected: true,
		},
		{
			name:     "ErrAccountNotFound",
			err:      ErrAccountNotFound,
			expected: true,
		},
		{
			name:     "ErrTransactionNotFound in StoreError",
			err:      NewStoreError("transaction", "get", "lookup failed", ErrTransactionNotFound),
			expected: true,
		},
		{
			name:     "ErrBalanceConflict",
			err:      ErrBalanceConflict,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFoundError(tt.err); got != tt.expected {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "ErrDuplicate", err: ErrDuplicate, expected: true},
		{name: "ErrAccountNumberExists", err: ErrAccountNumberExists, expected: true},
		{name: "ErrTransactionExists", err: ErrTransactionExists, expected: true},
		{
			name:     "wrapped ErrCancellationExists",
			err:      fmt.Errorf("save: %w", ErrCancellationExists),
			expected: true,
		},
		{name: "ErrAccountNotFound", err: ErrAccountNotFound, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsDuplicateError(tt.err))
		})
	}
}

func TestEntitySpecificErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrAccountNotFound, ErrUserNotFound))
	assert.False(t, errors.Is(ErrTransactionExists, ErrCancellationExists))
	assert.Equal(t, "entity not found: account", ErrAccountNotFound.Error())
}

func TestStoreError(t *testing.T) {
	t.Run("with wrapped error", func(t *testing.T) {
		err := NewStoreError("account", "update_balance", "write failed", ErrBalanceConflict)

		assert.Equal(t,
			"update_balance operation on account failed: write failed: balance changed concurrently",
			err.Error())
		assert.ErrorIs(t, err, ErrBalanceConflict)
	})

	t.Run("without wrapped error", func(t *testing.T) {
		err := NewStoreError("user", "create", "name missing", nil)

		assert.Equal(t, "create operation on user failed: name missing", err.Error())
		assert.Nil(t, errors.Unwrap(err))
	})
}
