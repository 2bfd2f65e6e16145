// Package service implements the two-factor login flow: password check,
// emailed passcode, passcode verification and token issuance.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/loginsession"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa"
	mfadomain "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/domain"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/server/interceptors"
	sessiondomain "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/session/domain"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry"
)

// Sentinel errors for auth service; handler maps them to HTTP statuses.
var (
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrExpiredOrUnknownSession   = errors.New("login session expired or unknown")
	ErrInvalidOrExpiredChallenge = errors.New("invalid or expired OTP")
	ErrChallengeDispatchFailed   = errors.New("OTP could not be sent")
	ErrServiceUnavailable        = errors.New("service temporarily unavailable")
	ErrInvalidRefreshToken       = errors.New("invalid or expired refresh token")
)

// ChallengeIssuer sends a fresh passcode, replacing the user's previous one.
type ChallengeIssuer interface {
	Issue(ctx context.Context, r mfa.Recipient) (*mfadomain.Device, error)
}

// ChallengeVerifier checks a passcode and retires it once accepted.
type ChallengeVerifier interface {
	Verify(ctx context.Context, userID, passcode string) (*mfadomain.Device, error)
	Consume(ctx context.Context, device *mfadomain.Device) error
}

// RevocationRepo is the minimal refresh-token denylist needed by the auth service.
type RevocationRepo interface {
	Revoke(ctx context.Context, r *sessiondomain.RevokedRefreshToken) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthService drives a login from password check to token pair. Per attempt
// the states are credentials ok, challenge sent and verified; any failure
// leaves the caller free to start over.
type AuthService struct {
	users       UserRepo
	credentials *CredentialVerifier
	issuer      ChallengeIssuer
	verifier    ChallengeVerifier
	attempts    loginsession.Store
	tokens      *security.TokenProvider
	revocations RevocationRepo
	loginTTL    time.Duration
	events      telemetry.EventEmitter
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthService returns an AuthService with the given dependencies.
// loginTTL <= 0 uses loginsession.DefaultTTL. events and logger may be nil.
func NewAuthService(
	users UserRepo,
	hasher *security.Hasher,
	issuer ChallengeIssuer,
	verifier ChallengeVerifier,
	attempts loginsession.Store,
	tokens *security.TokenProvider,
	revocations RevocationRepo,
	loginTTL time.Duration,
	events telemetry.EventEmitter,
	logger *slog.Logger,
) *AuthService {
	if loginTTL <= 0 {
		loginTTL = loginsession.DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       users,
		credentials: NewCredentialVerifier(users, hasher),
		issuer:      issuer,
		verifier:    verifier,
		attempts:    attempts,
		tokens:      tokens,
		revocations: revocations,
		loginTTL:    loginTTL,
		events:      events,
		logger:      logger,
		now:         time.Now,
	}
}

// WithClock replaces the time source used for revocation timestamps. For tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	if now != nil {
		s.now = now
	}
	return s
}

// BeginLogin checks the password, emails a passcode and returns the temporary
// token that the passcode must be submitted with. No token is returned when
// the passcode could not be sent.
func (s *AuthService) BeginLogin(ctx context.Context, username, password string) (string, error) {
	user, err := s.credentials.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.emit(ctx, telemetry.EventLoginFailed, "", username, "bad credentials")
			return "", ErrInvalidCredentials
		}
		s.logger.Error("auth: credential check failed", "error", err)
		return "", ErrServiceUnavailable
	}
	if err := s.sendChallenge(ctx, user.ID, user.Username, user.Email); err != nil {
		return "", err
	}
	token, err := security.NewOpaqueToken()
	if err != nil {
		return "", err
	}
	if err := s.attempts.Put(ctx, token, user.ID, s.loginTTL); err != nil {
		s.logger.Error("auth: storing login attempt failed", "user_id", user.ID, "error", err)
		return "", ErrServiceUnavailable
	}
	s.emit(ctx, telemetry.EventOTPSent, user.ID, user.Username, "")
	return token, nil
}

// ResendChallenge emails a new passcode for a live temporary token, which
// invalidates the previous one. The token keeps its original expiry.
func (s *AuthService) ResendChallenge(ctx context.Context, tempToken string) (string, error) {
	attempt, err := s.resolve(ctx, tempToken)
	if err != nil {
		return "", err
	}
	user, err := s.users.GetByID(ctx, attempt.UserID)
	if err != nil {
		s.logger.Error("auth: user lookup failed", "user_id", attempt.UserID, "error", err)
		return "", ErrServiceUnavailable
	}
	if user == nil || !user.IsActive {
		return "", ErrExpiredOrUnknownSession
	}
	if err := s.sendChallenge(ctx, user.ID, user.Username, user.Email); err != nil {
		return "", err
	}
	s.emit(ctx, telemetry.EventOTPResent, user.ID, user.Username, "")
	return tempToken, nil
}

// VerifyChallenge exchanges a temporary token and the emailed passcode for a
// token pair. A wrong passcode leaves the temporary token usable; a correct
// one consumes both.
func (s *AuthService) VerifyChallenge(ctx context.Context, tempToken, passcode string) (*security.TokenPair, error) {
	attempt, err := s.resolve(ctx, tempToken)
	if err != nil {
		return nil, err
	}
	device, err := s.verifier.Verify(ctx, attempt.UserID, passcode)
	if err != nil {
		return nil, s.challengeError(ctx, attempt.UserID, err)
	}
	user, err := s.users.GetByID(ctx, attempt.UserID)
	if err != nil {
		s.logger.Error("auth: user lookup failed", "user_id", attempt.UserID, "error", err)
		return nil, ErrServiceUnavailable
	}
	if user == nil || !user.IsActive {
		return nil, ErrExpiredOrUnknownSession
	}
	// Consume is a compare-and-set on the device counter, so of two
	// concurrent verifications with the same passcode only one gets here.
	if err := s.verifier.Consume(ctx, device); err != nil {
		return nil, s.challengeError(ctx, attempt.UserID, err)
	}
	removed, err := s.attempts.Delete(ctx, tempToken)
	if err != nil {
		s.logger.Error("auth: deleting login attempt failed", "user_id", attempt.UserID, "error", err)
		return nil, ErrServiceUnavailable
	}
	if !removed {
		return nil, ErrExpiredOrUnknownSession
	}
	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth: issue tokens: %w", err)
	}
	s.emit(ctx, telemetry.EventLoginSucceeded, user.ID, user.Username, "")
	return pair, nil
}

// Logout revokes refreshToken when it is valid and belongs to callerUserID.
// Unknown, malformed, foreign and already revoked tokens succeed without effect.
func (s *AuthService) Logout(ctx context.Context, callerUserID, refreshToken string) error {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil || claims.UserID() != callerUserID {
		return nil
	}
	rev := &sessiondomain.RevokedRefreshToken{
		JTI:       claims.ID,
		UserID:    claims.UserID(),
		ExpiresAt: claims.ExpiresAt.Time,
		RevokedAt: s.now().UTC(),
	}
	if err := s.revocations.Revoke(ctx, rev); err != nil {
		s.logger.Error("auth: revoking refresh token failed", "user_id", callerUserID, "error", err)
		return ErrServiceUnavailable
	}
	s.emit(ctx, telemetry.EventLogout, callerUserID, "", "")
	return nil
}

// RefreshAccess mints a new access token from a valid, unrevoked refresh token.
// The refresh token itself is not rotated.
func (s *AuthService) RefreshAccess(ctx context.Context, refreshToken string) (string, time.Time, error) {
	claims, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("auth: revocation check failed", "error", err)
		return "", time.Time{}, ErrServiceUnavailable
	}
	if revoked {
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	user, err := s.users.GetByID(ctx, claims.UserID())
	if err != nil {
		s.logger.Error("auth: user lookup failed", "user_id", claims.UserID(), "error", err)
		return "", time.Time{}, ErrServiceUnavailable
	}
	if user == nil || !user.IsActive {
		return "", time.Time{}, ErrInvalidRefreshToken
	}
	access, _, expiresAt, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: issue access token: %w", err)
	}
	s.emit(ctx, telemetry.EventTokenRefreshed, user.ID, user.Username, "")
	return access, expiresAt, nil
}

// resolve maps a temporary token to its pending attempt.
func (s *AuthService) resolve(ctx context.Context, tempToken string) (*loginsession.Attempt, error) {
	if tempToken == "" {
		return nil, ErrExpiredOrUnknownSession
	}
	attempt, err := s.attempts.Get(ctx, tempToken)
	if err != nil {
		if errors.Is(err, loginsession.ErrNotFound) {
			return nil, ErrExpiredOrUnknownSession
		}
		s.logger.Error("auth: login attempt lookup failed", "error", err)
		return nil, ErrServiceUnavailable
	}
	return attempt, nil
}

func (s *AuthService) sendChallenge(ctx context.Context, userID, username, email string) error {
	_, err := s.issuer.Issue(ctx, mfa.Recipient{UserID: userID, Username: username, Email: email})
	if err == nil {
		return nil
	}
	if errors.Is(err, mfa.ErrChallengeDispatchFailed) {
		s.logger.Error("auth: passcode dispatch failed", "user_id", userID, "error", err)
		s.emit(ctx, telemetry.EventOTPDispatchFailed, userID, username, "")
		return ErrChallengeDispatchFailed
	}
	s.logger.Error("auth: passcode issue failed", "user_id", userID, "error", err)
	return ErrServiceUnavailable
}

func (s *AuthService) challengeError(ctx context.Context, userID string, err error) error {
	if errors.Is(err, mfa.ErrInvalidOrExpiredChallenge) {
		s.emit(ctx, telemetry.EventOTPFailed, userID, "", "")
		return ErrInvalidOrExpiredChallenge
	}
	s.logger.Error("auth: passcode check failed", "user_id", userID, "error", err)
	return ErrServiceUnavailable
}

func (s *AuthService) emit(ctx context.Context, eventType, userID, username, detail string) {
	if s.events == nil {
		return
	}
	telemetry.EmitAsync(s.events, ctx, &telemetry.Event{
		Type:     eventType,
		UserID:   userID,
		Username: username,
		IP:       interceptors.GetClientIP(ctx),
		Detail:   detail,
	})
}
