package domain

import "time"

// Device is the single OTP slot of a user (otp_devices table). Counter is the
// nonce of the only live passcode; it only ever increases.
type Device struct {
	UserID    string
	Secret    string
	Counter   uint64
	IssuedAt  time.Time // zero when no passcode is outstanding
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outstanding reports whether a passcode was issued for the current counter
// and is still within ttl at now.
func (d *Device) Outstanding(now time.Time, ttl time.Duration) bool {
	if d == nil || d.IssuedAt.IsZero() {
		return false
	}
	return now.Before(d.IssuedAt.Add(ttl))
}
