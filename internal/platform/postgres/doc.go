// Package postgres provides PostgreSQL-specific implementations for the data
// storage interfaces defined in the internal/store package.
// It handles the details of database connections, schema migrations, query
// execution, and data mapping between domain entities and database records.
// Balance writes and their audit records share one database transaction
// through TxRunner.
package postgres
