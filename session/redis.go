package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hailrides/authflow/internal/rate"
)

const defaultPrefix = "af"

// RedisStore is the production [Store] backed by go-redis. Session TTL is
// enforced natively by Redis; the quota lives in a per-fingerprint set of
// session IDs pruned on each create.
type RedisStore struct {
	redis        redis.UniversalClient
	prefix       string
	maxPerClient int
	limiter      *rate.Limiter
}

// NewRedisStore creates a [RedisStore] with the given tuning.
func NewRedisStore(client redis.UniversalClient, cfg Config) *RedisStore {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	s := &RedisStore{
		redis:        client,
		prefix:       prefix,
		maxPerClient: cfg.MaxSessionsPerClient,
	}
	if cfg.RateLimitMax > 0 {
		s.limiter = rate.New(client, prefix+":r", rate.Config{
			MaxRequests: cfg.RateLimitMax,
			Window:      cfg.RateLimitWindow,
		})
	}
	return s
}

// Create stores a new session under its ID and registers it against the
// owning fingerprint's quota set.
func (s *RedisStore) Create(ctx context.Context, state *State, ttl time.Duration) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session id required")
	}

	now := time.Now()
	state.CreatedAt = now.UnixMilli()
	state.ExpiresAt = now.Add(ttl).UnixMilli()

	if s.maxPerClient > 0 && state.Fingerprint != "" {
		live, err := s.pruneClientSet(ctx, state.Fingerprint)
		if err != nil {
			return err
		}
		if live >= s.maxPerClient {
			return ErrQuotaExceeded
		}
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(state.SessionID), payload, ttl)
		if state.Fingerprint != "" {
			pipe.SAdd(ctx, s.clientKey(state.Fingerprint), state.SessionID)
			pipe.Expire(ctx, s.clientKey(state.Fingerprint), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get loads a session by ID. Redis evicts expired keys itself, so an absent
// key reads as ErrNotFound; a stored-but-stale record (clock drift between
// writers) reads as ErrExpired and is deleted eagerly.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*State, error) {
	data, err := s.redis.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	if state.Expired(time.Now()) {
		_ = s.remove(ctx, &state)
		return nil, ErrExpired
	}

	return &state, nil
}

// Update writes the session back and slides its TTL. The quota set's TTL is
// refreshed alongside so it outlives its longest member.
func (s *RedisStore) Update(ctx context.Context, state *State, ttl time.Duration) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session id required")
	}

	n, err := s.redis.Exists(ctx, s.sessionKey(state.SessionID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}

	state.ExpiresAt = time.Now().Add(ttl).UnixMilli()

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(state.SessionID), payload, ttl)
		if state.Fingerprint != "" {
			pipe.Expire(ctx, s.clientKey(state.Fingerprint), ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete removes a session and its quota registration. Deleting an absent
// session is a no-op.
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	data, err := s.redis.Get(ctx, s.sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt payload: drop the key, the quota set self-prunes.
		if err := s.redis.Del(ctx, s.sessionKey(sessionID)).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}
	state.SessionID = sessionID

	return s.remove(ctx, &state)
}

// CheckRateLimit counts the call against the fingerprint's request window.
func (s *RedisStore) CheckRateLimit(ctx context.Context, fingerprint string) error {
	if s.limiter == nil {
		return nil
	}

	err := s.limiter.Check(ctx, fingerprint)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		return ErrRateLimited
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

// CleanupExpired is a no-op for Redis: session keys and rate counters carry
// their own TTLs, and quota sets are pruned on create.
func (s *RedisStore) CleanupExpired(ctx context.Context) error {
	return nil
}

func (s *RedisStore) remove(ctx context.Context, state *State) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(state.SessionID))
		if state.Fingerprint != "" {
			pipe.SRem(ctx, s.clientKey(state.Fingerprint), state.SessionID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// pruneClientSet drops quota entries whose session key no longer exists and
// returns the remaining live count.
func (s *RedisStore) pruneClientSet(ctx context.Context, fingerprint string) (int, error) {
	ids, err := s.redis.SMembers(ctx, s.clientKey(fingerprint)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.redis.Pipeline()
	checks := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		checks[i] = pipe.Exists(ctx, s.sessionKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	live := 0
	var dead []interface{}
	for i, cmd := range checks {
		if cmd.Val() > 0 {
			live++
		} else {
			dead = append(dead, ids[i])
		}
	}

	if len(dead) > 0 {
		if err := s.redis.SRem(ctx, s.clientKey(fingerprint), dead...).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	return live, nil
}

func (s *RedisStore) sessionKey(id string) string {
	return s.prefix + ":s:" + id
}

func (s *RedisStore) clientKey(fingerprint string) string {
	return s.prefix + ":c:" + fingerprint
}
