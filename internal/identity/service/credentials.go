package service

import (
	"context"
	"fmt"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
	userdomain "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/domain"
)

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
}

// CredentialVerifier checks a username and password against the user store.
// It has no side effects.
type CredentialVerifier struct {
	users  UserRepo
	hasher *security.Hasher
}

// NewCredentialVerifier returns a CredentialVerifier.
func NewCredentialVerifier(users UserRepo, hasher *security.Hasher) *CredentialVerifier {
	return &CredentialVerifier{users: users, hasher: hasher}
}

// Verify returns the active user matching username and password. Unknown
// users, inactive accounts and wrong passwords all return ErrInvalidCredentials
// after the same bcrypt work. Store failures are returned wrapped in ErrServiceUnavailable.
func (v *CredentialVerifier) Verify(ctx context.Context, username, password string) (*userdomain.User, error) {
	username = userdomain.NormalizeUsername(username)
	if username == "" || password == "" {
		_ = v.hasher.CompareDummy([]byte(password))
		return nil, ErrInvalidCredentials
	}
	user, err := v.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: user lookup: %v", ErrServiceUnavailable, err)
	}
	if user == nil || user.PasswordHash == "" {
		_ = v.hasher.CompareDummy([]byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := v.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
