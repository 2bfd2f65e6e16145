// Package loginsession holds the short-lived temporary tokens that link a
// successful password check to the passcode step of the same login.
package loginsession

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the lifetime of a temporary login token.
const DefaultTTL = 5 * time.Minute

var (
	// ErrNotFound is returned when a token is unknown, expired or already used.
	ErrNotFound = errors.New("loginsession: token not found")
	// ErrUnavailable is returned when the backing cache cannot be reached.
	ErrUnavailable = errors.New("loginsession: store unavailable")
)

// Attempt is what a temporary token resolves to.
type Attempt struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store maps temporary tokens to pending login attempts. Tokens are keyed by
// their SHA-256 and a user has at most one live token: Put replaces the
// user's previous one.
type Store interface {
	Put(ctx context.Context, token, userID string, ttl time.Duration) error
	// Get resolves token. Returns ErrNotFound when missing or past ExpiresAt.
	Get(ctx context.Context, token string) (*Attempt, error)
	// Delete removes token and reports whether this call removed it.
	Delete(ctx context.Context, token string) (bool, error)
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

func expired(a *Attempt, now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
