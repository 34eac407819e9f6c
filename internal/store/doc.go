// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing the balance rules to remain
// independent of whether accounts live in memory or in PostgreSQL.
package store
