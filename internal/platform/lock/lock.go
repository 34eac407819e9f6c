// Package lock serializes work per key. Balance operations take the lock
// keyed by account number so that attempts on one account never interleave,
// while different accounts proceed in parallel.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the lock for a key could not be obtained
// within the configured wait.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker runs functions while holding a per-key lock.
type Locker interface {
	// WithLock runs fn while holding the lock for key and releases it when fn
	// returns. It returns an error wrapping ErrNotAcquired if the lock could
	// not be obtained; otherwise it returns fn's error unchanged.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}
