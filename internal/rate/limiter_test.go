package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*miniredis.Miniredis, *Limiter) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, New(client, "rl", cfg)
}

func TestCheckAllowsWithinBudget(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxRequests: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Check(ctx, "fp"); err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
	}

	if err := l.Check(ctx, "fp"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	attempts, err := l.Attempts(ctx, "fp")
	if err != nil {
		t.Fatalf("attempts failed: %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 4 recorded attempts, got %d", attempts)
	}
}

func TestCheckWindowExpires(t *testing.T) {
	mr, l := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.Check(ctx, "fp"); err != nil {
		t.Fatalf("first check failed: %v", err)
	}
	if err := l.Check(ctx, "fp"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.Check(ctx, "fp"); err != nil {
		t.Fatalf("expected fresh window, got %v", err)
	}
}

func TestCheckDisabledAndEmptyFingerprint(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxRequests: 0, Window: time.Minute})
	if err := l.Check(context.Background(), "fp"); err != nil {
		t.Fatalf("disabled limiter must allow, got %v", err)
	}

	_, l = newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute})
	for i := 0; i < 5; i++ {
		if err := l.Check(context.Background(), ""); err != nil {
			t.Fatalf("empty fingerprint must bypass, got %v", err)
		}
	}
}

func TestResetClearsCounter(t *testing.T) {
	_, l := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute})
	ctx := context.Background()

	if err := l.Check(ctx, "fp"); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if err := l.Reset(ctx, "fp"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	attempts, err := l.Attempts(ctx, "fp")
	if err != nil {
		t.Fatalf("attempts failed: %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected cleared counter, got %d", attempts)
	}
	if err := l.Check(ctx, "fp"); err != nil {
		t.Fatalf("expected fresh budget after reset, got %v", err)
	}
}

func TestCheckRedisDown(t *testing.T) {
	mr, l := newTestLimiter(t, Config{MaxRequests: 1, Window: time.Minute})
	mr.Close()

	if err := l.Check(context.Background(), "fp"); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
