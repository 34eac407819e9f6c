package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	// This is a generic version of the entity-specific not found errors
	// (e.g., ErrUserNotFound, ErrAccountNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., two accounts with the same number).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUpdateFailed is returned when an update operation fails, for example
	// because the update violates constraints.
	ErrUpdateFailed = errors.New("update failed")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrBalanceConflict is returned by AccountStore.UpdateBalance when the
	// stored balance no longer equals the expected value.
	ErrBalanceConflict = errors.New("balance changed concurrently")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist in the store.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrAccountNotFound indicates that the requested account does not exist in the store.
	ErrAccountNotFound = fmt.Errorf("%w: account", ErrNotFound)

	// ErrTransactionNotFound indicates that the requested transaction record does not exist.
	ErrTransactionNotFound = fmt.Errorf("%w: transaction", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrAccountNumberExists indicates that an account with the number already exists.
	ErrAccountNumberExists = fmt.Errorf("%w: account number", ErrDuplicate)

	// ErrTransactionExists indicates that a record with the same transaction ID exists.
	ErrTransactionExists = fmt.Errorf("%w: transaction", ErrDuplicate)

	// ErrCancellationExists indicates that a successful cancellation of the
	// original transaction has already been recorded.
	ErrCancellationExists = fmt.Errorf("%w: cancellation", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "account", "transaction")
	Operation string // The operation that failed (e.g., "create", "update_balance")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
