package repository

import (
	"context"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/session/domain"
)

// Repository defines persistence for refresh-token revocations.
type Repository interface {
	// Revoke denylists r.JTI. Revoking an already revoked jti is a no-op.
	Revoke(ctx context.Context, r *domain.RevokedRefreshToken) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// DeleteExpired removes revocations whose token has expired before now and returns how many.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
