package store

import (
	"context"
	"database/sql"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sql.DB and *sql.Tx, allowing our code
// to work with either a database connection or a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UnitFn is the body of a unit of work. The stores it receives are bound to
// the unit, so writes made through them commit or roll back together.
type UnitFn func(ctx context.Context, accounts AccountStore, transactions TransactionStore) error

// TxRunner runs a balance write and its audit record as one unit of work.
type TxRunner interface {
	// RunInTx executes fn. If fn returns an error, nothing fn wrote through
	// the provided stores is kept (for backends that support rollback).
	RunInTx(ctx context.Context, fn UnitFn) error
}
