package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/phrazzld/account-api/internal/platform/logger"
	goredislib "github.com/redis/go-redis/v9"
)

// keyPrefix namespaces lock keys in a shared Redis.
const keyPrefix = "lock:account:"

// RedisOptions configures how a RedisLocker acquires locks.
type RedisOptions struct {
	// Expiry is how long the lock is held before auto-expiring if the owner dies.
	Expiry time.Duration
	// Tries is the number of attempts to acquire the lock before giving up.
	Tries int
	// RetryDelay is the delay between attempts.
	RetryDelay time.Duration
}

// DefaultRedisOptions returns the defaults used when a field is left zero.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:     15 * time.Second,
		Tries:      10,
		RetryDelay: 100 * time.Millisecond,
	}
}

// RedisLocker is a Locker shared by every service instance that talks to
// the same Redis. It uses redsync (RedLock) over a go-redis client.
type RedisLocker struct {
	redsync *redsync.Redsync
	opts    RedisOptions
	logger  *slog.Logger
}

// NewRedisLocker creates a RedisLocker on top of client.
func NewRedisLocker(client goredislib.UniversalClient, opts RedisOptions, logger *slog.Logger) *RedisLocker {
	defaults := DefaultRedisOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = defaults.Expiry
	}
	if opts.Tries < 1 {
		opts.Tries = defaults.Tries
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = defaults.RetryDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		redsync: redsync.New(goredis.NewPool(client)),
		opts:    opts,
		logger:  logger.With(slog.String("component", "redis_locker")),
	}
}

// Ensure RedisLocker implements Locker interface
var _ Locker = (*RedisLocker)(nil)

// WithLock implements Locker.
func (l *RedisLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	log := logger.FromContextOrDefault(ctx, l.logger)
	lockKey := keyPrefix + key

	mutex := l.redsync.NewMutex(
		lockKey,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		if isContention(err) || ctx.Err() != nil {
			log.Warn("failed to acquire lock",
				slog.String("lock_key", lockKey),
				slog.String("error", err.Error()))
			return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
		}
		log.Error("lock backend error",
			slog.String("lock_key", lockKey),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	log.Debug("lock acquired", slog.String("lock_key", lockKey))

	defer func() {
		// Release even if the caller's context is already done
		unlockCtx := context.WithoutCancel(ctx)
		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			log.Error("failed to release lock",
				slog.String("lock_key", lockKey),
				slog.Bool("unlock_ok", ok),
				slog.Any("error", err))
		}
	}()

	return fn(ctx)
}

// isContention reports whether err means another owner holds the lock.
func isContention(err error) bool {
	return errors.Is(err, redsync.ErrFailed) ||
		strings.Contains(err.Error(), "lock already taken")
}
