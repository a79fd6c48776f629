package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/stockledger/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const (
	defaultRedisLockTTL  = 30 * time.Second
	defaultRedisLockWait = 5 * time.Second
	retryInterval        = 50 * time.Millisecond
)

// RedisLocker holds item locks in Redis so server instances sharing a
// database also share the lock
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger *zap.Logger
}

// RedisLockerOption configures a RedisLocker
type RedisLockerOption func(*RedisLocker)

// WithTTL sets how long a lock lives if its holder never releases it
func WithTTL(ttl time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithWait sets how long Lock retries before giving up
func WithWait(wait time.Duration) RedisLockerOption {
	return func(l *RedisLocker) {
		if wait > 0 {
			l.wait = wait
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) RedisLockerOption {
	return func(l *RedisLocker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewRedisLocker creates a locker on an existing Redis client
func NewRedisLocker(client redis.UniversalClient, opts ...RedisLockerOption) *RedisLocker {
	l := &RedisLocker{
		client: redislock.New(client),
		ttl:    defaultRedisLockTTL,
		wait:   defaultRedisLockWait,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock retries until the lock is obtained, the wait elapses or ctx is done.
// Failing to obtain the lock in time reports shared.ErrConcurrencyConflict.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	obtainCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lk, err := l.client.Obtain(obtainCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(retryInterval),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) ||
			errors.Is(err, context.DeadlineExceeded) ||
			errors.Is(err, context.Canceled) {
			l.logger.Info("Item lock not obtained", zap.String("key", key), zap.Duration("wait", l.wait))
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to obtain item lock: %w", err)
	}

	return func() {
		// The holder's request may already be cancelled
		if err := lk.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release item lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
