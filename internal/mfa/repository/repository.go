package repository

import (
	"context"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/domain"
)

// Repository defines persistence for OTP devices.
type Repository interface {
	// Get returns the device for userID, or nil if the user has none.
	Get(ctx context.Context, userID string) (*domain.Device, error)
	// Issue creates the device with secret when missing and otherwise keeps the
	// stored secret. Either way it advances the counter and stamps issued_at
	// with now, so only the passcode for the returned counter is live.
	Issue(ctx context.Context, userID, secret string, now time.Time) (*domain.Device, error)
	// Advance moves the counter past expected and clears issued_at, only if the
	// stored counter still equals expected. Returns false when another request
	// got there first.
	Advance(ctx context.Context, userID string, expected uint64, now time.Time) (bool, error)
}
