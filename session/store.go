package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is an exported sentinel used by session stores.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is an exported sentinel used by session stores.
	ErrExpired = errors.New("session expired")
	// ErrQuotaExceeded is an exported sentinel used by session stores.
	ErrQuotaExceeded = errors.New("session quota exceeded")
	// ErrRateLimited is an exported sentinel used by session stores.
	ErrRateLimited = errors.New("rate limited")
	// ErrUnavailable is an exported sentinel used by session stores.
	ErrUnavailable = errors.New("session backend unavailable")
)

// Config holds store tuning parameters shared by both implementations.
type Config struct {
	// Prefix namespaces all Redis keys. Defaults to "af".
	Prefix string
	// MaxSessionsPerClient caps live sessions per client fingerprint.
	// Zero disables the quota.
	MaxSessionsPerClient int
	// RateLimitMax is the number of requests allowed per fingerprint within
	// RateLimitWindow. Zero disables rate limiting.
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Store is the pluggable session backend consumed by the engine.
//
// Create fails with ErrQuotaExceeded once the owning fingerprint holds the
// configured number of live sessions. Get distinguishes ErrNotFound from
// ErrExpired where the backend can tell the difference. Update refreshes the
// TTL (sliding expiration) and fails with ErrNotFound when the session is
// gone. Delete is idempotent. CheckRateLimit counts the call against the
// fingerprint's window and fails with ErrRateLimited once over budget.
type Store interface {
	Create(ctx context.Context, state *State, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*State, error)
	Update(ctx context.Context, state *State, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
	CheckRateLimit(ctx context.Context, fingerprint string) error
	CleanupExpired(ctx context.Context) error
}
