package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"go.uber.org/zap"
)

// SeriesLocker serializes issuers of the same (tenant, series) across instances before they
// reach the database. The database row lock remains authoritative; this only shortens its queue.
type SeriesLocker struct {
	client *redislock.Client
	ttl    time.Duration
	retry  redislock.RetryStrategy
	logger *zap.Logger
}

// NewSeriesLocker constructs a locker over a Redis client. A nil client yields a nil locker.
func NewSeriesLocker(client redislock.RedisClient, ttl time.Duration, logger *zap.Logger) *SeriesLocker {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeriesLocker{
		client: redislock.New(client),
		ttl:    ttl,
		retry:  redislock.LimitRetry(redislock.LinearBackoff(25*time.Millisecond), 40),
		logger: logger,
	}
}

// Key returns the redis key guarding a series.
func Key(tenantID, series string) string {
	return fmt.Sprintf("series-lock:%s:%s", tenantID, series)
}

// Acquire obtains the series lock. It never fails the caller: when Redis is unavailable or the
// lock cannot be obtained in time, a no-op release is returned and the caller proceeds on the
// database lock alone.
func (l *SeriesLocker) Acquire(ctx context.Context, tenantID, series string) func() {
	noop := func() {}
	if l == nil || l.client == nil {
		return noop
	}
	key := Key(tenantID, series)
	obtained, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: l.retry})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			l.logger.Warn("series lock not obtained; relying on database lock", zap.String("key", key))
		} else {
			l.logger.Warn("series lock unavailable; relying on database lock", zap.String("key", key), zap.Error(err))
		}
		return noop
	}
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := obtained.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("series lock release failed", zap.String("key", key), zap.Error(err))
		}
	}
}
