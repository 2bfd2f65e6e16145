package repository

import (
	"context"
	"sync"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/domain"
)

// MemoryRepository keeps OTP devices in process memory. For tests and local
// runs without Postgres.
type MemoryRepository struct {
	mu      sync.Mutex
	devices map[string]domain.Device
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{devices: make(map[string]domain.Device)}
}

// Get returns a copy of the device for userID, or nil if none.
func (r *MemoryRepository) Get(ctx context.Context, userID string) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[userID]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// Issue mirrors the Postgres upsert.
func (r *MemoryRepository) Issue(ctx context.Context, userID, secret string, now time.Time) (*domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[userID]
	if !ok {
		d = domain.Device{UserID: userID, Secret: secret, CreatedAt: now}
	}
	d.Counter++
	d.IssuedAt = now
	d.UpdatedAt = now
	r.devices[userID] = d
	return &d, nil
}

// Advance mirrors the Postgres compare-and-set.
func (r *MemoryRepository) Advance(ctx context.Context, userID string, expected uint64, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.devices[userID]
	if !ok || d.Counter != expected {
		return false, nil
	}
	d.Counter++
	d.IssuedAt = time.Time{}
	d.UpdatedAt = now
	r.devices[userID] = d
	return true, nil
}
