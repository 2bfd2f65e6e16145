package domain

import "time"

// RevokedRefreshToken is a denylisted refresh token, kept until its own expiry.
type RevokedRefreshToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
