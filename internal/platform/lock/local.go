package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/account-api/internal/platform/logger"
)

// LocalLocker is an in-process Locker. Each key maps to a one-slot
// semaphore that is dropped once no goroutine holds or waits for it.
type LocalLocker struct {
	mu          sync.Mutex
	locks       map[string]*keyLock
	waitTimeout time.Duration
	logger      *slog.Logger
}

type keyLock struct {
	sem  chan struct{}
	refs int
}

// NewLocalLocker creates a LocalLocker that waits at most waitTimeout for a key.
// A non-positive waitTimeout waits until the context is done.
func NewLocalLocker(waitTimeout time.Duration, logger *slog.Logger) *LocalLocker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalLocker{
		locks:       make(map[string]*keyLock),
		waitTimeout: waitTimeout,
		logger:      logger.With(slog.String("component", "local_locker")),
	}
}

// Ensure LocalLocker implements Locker interface
var _ Locker = (*LocalLocker)(nil)

func (l *LocalLocker) acquireRef(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{sem: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *LocalLocker) releaseRef(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

// WithLock implements Locker.
func (l *LocalLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	log := logger.FromContextOrDefault(ctx, l.logger)

	kl := l.acquireRef(key)
	defer l.releaseRef(key, kl)

	waitCtx := ctx
	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}

	select {
	case kl.sem <- struct{}{}:
	case <-waitCtx.Done():
		log.Warn("failed to acquire lock",
			slog.String("lock_key", key),
			slog.String("error", waitCtx.Err().Error()))
		return fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, waitCtx.Err())
	}
	defer func() { <-kl.sem }()

	log.Debug("lock acquired", slog.String("lock_key", key))
	return fn(ctx)
}

// size returns the number of keys currently tracked.
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
