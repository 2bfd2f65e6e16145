package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/domain"
)

// MemoryRepository keeps users in process memory. For tests.
type MemoryRepository struct {
	mu         sync.Mutex
	byID       map[string]domain.User
	byUsername map[string]string
}

// NewMemoryRepository returns an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]domain.User),
		byUsername: make(map[string]string),
	}
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byUsername[domain.NormalizeUsername(username)]
	if !ok {
		return nil, nil
	}
	u := r.byID[id]
	return &u, nil
}

// Create stores a copy of u. Usernames are unique.
func (r *MemoryRepository) Create(ctx context.Context, u *domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUsername[u.Username]; ok {
		return errors.New("username already exists")
	}
	r.byID[u.ID] = *u
	r.byUsername[u.Username] = u.ID
	return nil
}

// SetActive flips IsActive for id.
func (r *MemoryRepository) SetActive(id string, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		u.IsActive = active
		r.byID[id] = u
	}
}
