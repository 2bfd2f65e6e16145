// Package mfa issues and verifies the emailed one-time passcodes of the
// second login factor.
package mfa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/domain"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/repository"
)

// DefaultTTL is how long a passcode is accepted after it was issued.
const DefaultTTL = 5 * time.Minute

var (
	// ErrChallengeDispatchFailed is returned when the passcode could not be delivered.
	ErrChallengeDispatchFailed = errors.New("mfa: passcode dispatch failed")
	// ErrChallengeUnavailable is returned when the device store cannot be reached.
	ErrChallengeUnavailable = errors.New("mfa: device store unavailable")
	// ErrInvalidOrExpiredChallenge is returned for a wrong, stale or missing passcode.
	ErrInvalidOrExpiredChallenge = errors.New("mfa: invalid or expired passcode")
)

// Recipient identifies who a passcode is for and where to send it.
type Recipient struct {
	UserID   string
	Username string
	Email    string
}

// Message is one passcode delivery.
type Message struct {
	To        string
	Username  string
	Passcode  string
	ExpiresIn time.Duration
}

// Sender delivers passcodes out of band. Implementations must not log Passcode.
type Sender interface {
	SendPasscode(ctx context.Context, msg Message) error
}

// Issuer creates or refreshes the user's OTP device and sends the passcode.
type Issuer struct {
	repo   repository.Repository
	sender Sender
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// NewIssuer returns an Issuer. ttl <= 0 uses DefaultTTL; nil logger uses slog.Default().
func NewIssuer(repo repository.Repository, sender Sender, ttl time.Duration, logger *slog.Logger) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Issuer{repo: repo, sender: sender, ttl: ttl, now: time.Now, logger: logger}
}

// WithClock replaces the time source. For tests.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	if now != nil {
		i.now = now
	}
	return i
}

// Issue invalidates any outstanding passcode for r.UserID, derives a fresh one
// and sends it to r.Email. The passcode itself never leaves this method except
// through the Sender.
func (i *Issuer) Issue(ctx context.Context, r Recipient) (*domain.Device, error) {
	if r.UserID == "" || r.Email == "" {
		return nil, fmt.Errorf("%w: recipient has no user id or email", ErrChallengeDispatchFailed)
	}
	secret, err := NewDeviceSecret()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	device, err := i.repo.Issue(ctx, r.UserID, secret, i.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	code, err := Passcode(device.Secret, device.Counter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	msg := Message{To: r.Email, Username: r.Username, Passcode: code, ExpiresIn: i.ttl}
	if err := i.sender.SendPasscode(ctx, msg); err != nil {
		i.logger.Warn("mfa: passcode dispatch failed", "user_id", r.UserID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrChallengeDispatchFailed, err)
	}
	return device, nil
}

// Verifier checks submitted passcodes against the user's current device.
type Verifier struct {
	repo repository.Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewVerifier returns a Verifier. ttl <= 0 uses DefaultTTL.
func NewVerifier(repo repository.Repository, ttl time.Duration) *Verifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Verifier{repo: repo, ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. For tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	if now != nil {
		v.now = now
	}
	return v
}

// Verify reads the device fresh and reports whether passcode is the live code.
// It does not change any state.
func (v *Verifier) Verify(ctx context.Context, userID, passcode string) (*domain.Device, error) {
	device, err := v.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	if device == nil || !device.Outstanding(v.now(), v.ttl) {
		return nil, ErrInvalidOrExpiredChallenge
	}
	if !PasscodeMatches(passcode, device.Secret, device.Counter) {
		return nil, ErrInvalidOrExpiredChallenge
	}
	return device, nil
}

// Consume retires the passcode that Verify accepted. A concurrent issue or
// consume in between makes this fail with ErrInvalidOrExpiredChallenge.
func (v *Verifier) Consume(ctx context.Context, device *domain.Device) error {
	ok, err := v.repo.Advance(ctx, device.UserID, device.Counter, v.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrChallengeUnavailable, err)
	}
	if !ok {
		return ErrInvalidOrExpiredChallenge
	}
	return nil
}
