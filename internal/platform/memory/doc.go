// Package memory provides in-process implementations of the store interfaces.
// State lives in maps guarded by a mutex and is lost when the process exits.
// It is the default backend and is used by the service tests.
package memory
