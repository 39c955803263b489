package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore is a single-process [Store] for tests and local runs. All
// state lives behind one mutex; CleanupExpired performs the sweep that
// Redis TTLs handle natively in [RedisStore].
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*State
	byClient map[string]map[string]struct{}
	windows  map[string][]time.Time

	maxPerClient int
	rateMax      int
	rateWindow   time.Duration

	now func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore] with the given tuning.
func NewMemoryStore(cfg Config) *MemoryStore {
	return &MemoryStore{
		sessions:     make(map[string]*State),
		byClient:     make(map[string]map[string]struct{}),
		windows:      make(map[string][]time.Time),
		maxPerClient: cfg.MaxSessionsPerClient,
		rateMax:      cfg.RateLimitMax,
		rateWindow:   cfg.RateLimitWindow,
		now:          time.Now,
	}
}

// Create stores a new session and counts it against the fingerprint quota.
func (s *MemoryStore) Create(ctx context.Context, state *State, ttl time.Duration) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	state.CreatedAt = now.UnixMilli()
	state.ExpiresAt = now.Add(ttl).UnixMilli()

	if s.maxPerClient > 0 && state.Fingerprint != "" {
		live := 0
		for id := range s.byClient[state.Fingerprint] {
			st, ok := s.sessions[id]
			if !ok || st.Expired(now) {
				s.dropLocked(id)
				continue
			}
			live++
		}
		if live >= s.maxPerClient {
			return ErrQuotaExceeded
		}
	}

	s.sessions[state.SessionID] = state.Clone()
	if state.Fingerprint != "" {
		set, ok := s.byClient[state.Fingerprint]
		if !ok {
			set = make(map[string]struct{})
			s.byClient[state.Fingerprint] = set
		}
		set[state.SessionID] = struct{}{}
	}
	return nil
}

// Get loads a session by ID. Expired sessions are deleted eagerly and read
// as ErrExpired, releasing their quota slot.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if state.Expired(s.now()) {
		s.dropLocked(sessionID)
		return nil, ErrExpired
	}
	return state.Clone(), nil
}

// Update writes the session back and slides its TTL.
func (s *MemoryStore) Update(ctx context.Context, state *State, ttl time.Duration) error {
	if state == nil || state.SessionID == "" {
		return errors.New("session id required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	existing, ok := s.sessions[state.SessionID]
	if !ok {
		return ErrNotFound
	}
	if existing.Expired(now) {
		s.dropLocked(state.SessionID)
		return ErrNotFound
	}

	state.ExpiresAt = now.Add(ttl).UnixMilli()
	s.sessions[state.SessionID] = state.Clone()
	return nil
}

// Delete removes a session. Deleting an absent session is a no-op.
func (s *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropLocked(sessionID)
	return nil
}

// CheckRateLimit counts the call against a sliding window of request
// timestamps per fingerprint.
func (s *MemoryStore) CheckRateLimit(ctx context.Context, fingerprint string) error {
	if s.rateMax <= 0 || fingerprint == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-s.rateWindow)

	stamps := s.windows[fingerprint]
	kept := stamps[:0]
	for _, t := range stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= s.rateMax {
		s.windows[fingerprint] = kept
		return ErrRateLimited
	}

	s.windows[fingerprint] = append(kept, now)
	return nil
}

// CleanupExpired sweeps sessions past their TTL and rate windows with no
// recent activity.
func (s *MemoryStore) CleanupExpired(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, state := range s.sessions {
		if state.Expired(now) {
			s.dropLocked(id)
		}
	}

	cutoff := now.Add(-s.rateWindow)
	for fp, stamps := range s.windows {
		kept := stamps[:0]
		for _, t := range stamps {
			if t.After(cutoff) {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			delete(s.windows, fp)
			continue
		}
		s.windows[fp] = kept
	}
	return nil
}

func (s *MemoryStore) dropLocked(sessionID string) {
	state, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	delete(s.sessions, sessionID)
	if state.Fingerprint == "" {
		return
	}
	if set, ok := s.byClient[state.Fingerprint]; ok {
		delete(set, sessionID)
		if len(set) == 0 {
			delete(s.byClient, state.Fingerprint)
		}
	}
}
