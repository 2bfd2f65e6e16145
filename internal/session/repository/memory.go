package repository

import (
	"context"
	"sync"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/session/domain"
)

// MemoryRepository keeps revocations in process memory. For tests.
type MemoryRepository struct {
	mu      sync.Mutex
	revoked map[string]domain.RevokedRefreshToken
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{revoked: make(map[string]domain.RevokedRefreshToken)}
}

// Revoke keeps the first revocation of a jti.
func (r *MemoryRepository) Revoke(ctx context.Context, rt *domain.RevokedRefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.revoked[rt.JTI]; !ok {
		r.revoked[rt.JTI] = *rt
	}
	return nil
}

func (r *MemoryRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[jti]
	return ok, nil
}

func (r *MemoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for jti, rt := range r.revoked {
		if rt.ExpiresAt.Before(now) {
			delete(r.revoked, jti)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored revocations.
func (r *MemoryRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.revoked)
}
