package repository

import (
	"context"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/domain"
)

// Repository defines persistence for users.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByUsername looks up by the normalized username. Returns nil, nil when no row matches.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
