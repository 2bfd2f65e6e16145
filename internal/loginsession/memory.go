package loginsession

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
)

// MemoryStore is an in-process Store for local development and tests. It is
// not shared between instances.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]Attempt
	byUser map[string]string
	now    func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tokens: make(map[string]Attempt),
		byUser: make(map[string]string),
		now:    time.Now,
	}
}

// WithClock replaces the time source. For tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	if now != nil {
		s.now = now
	}
	return s
}

// Put stores the attempt and drops the user's previous token.
func (s *MemoryStore) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if token == "" || userID == "" {
		return errors.New("loginsession: token and user id are required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	hash := security.HashToken(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.byUser[userID]; ok && prev != hash {
		delete(s.tokens, prev)
	}
	s.tokens[hash] = Attempt{UserID: userID, ExpiresAt: s.now().UTC().Add(ttl)}
	s.byUser[userID] = hash
	return nil
}

// Get returns ErrNotFound for missing or expired tokens.
func (s *MemoryStore) Get(ctx context.Context, token string) (*Attempt, error) {
	hash := security.HashToken(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.tokens[hash]
	if !ok {
		return nil, ErrNotFound
	}
	if expired(&a, s.now()) {
		s.removeLocked(hash, a.UserID)
		return nil, ErrNotFound
	}
	return &a, nil
}

// Delete reports whether the token was present (expired entries count as absent).
func (s *MemoryStore) Delete(ctx context.Context, token string) (bool, error) {
	hash := security.HashToken(token)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.tokens[hash]
	if !ok {
		return false, nil
	}
	s.removeLocked(hash, a.UserID)
	return !expired(&a, s.now()), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) removeLocked(hash, userID string) {
	delete(s.tokens, hash)
	if s.byUser[userID] == hash {
		delete(s.byUser, userID)
	}
}
