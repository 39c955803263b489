package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Limiter enforces a per-fingerprint request budget using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

// New creates a [Limiter] backed by the given Redis client. All keys are
// namespaced under prefix.
func New(redisClient redis.UniversalClient, prefix string, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
		config: cfg,
	}
}

// Check counts the call against the fingerprint's window and returns
// ErrRateLimited once the budget is exhausted. The window starts at the
// first hit and is not extended by later ones.
func (l *Limiter) Check(ctx context.Context, fingerprint string) error {
	if l.config.MaxRequests <= 0 || fingerprint == "" {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.key(fingerprint), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRequests) {
		return ErrRateLimited
	}

	return nil
}

// Attempts returns the current counter for a fingerprint. Missing keys
// return zero.
func (l *Limiter) Attempts(ctx context.Context, fingerprint string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(fingerprint)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Reset clears the fingerprint's counter.
func (l *Limiter) Reset(ctx context.Context, fingerprint string) error {
	if err := l.redis.Del(ctx, l.key(fingerprint)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Limiter) key(fingerprint string) string {
	return l.prefix + ":" + fingerprint
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
