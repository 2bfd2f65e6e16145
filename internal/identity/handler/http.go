// Package handler serves the login endpoints over HTTP/JSON.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/identity/service"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/server/interceptors"
)

const (
	maxRequestBodySize = 1 << 20
	maxUsernameLen     = 150
	maxPasswordLen     = 128
	maxTokenLen        = 4096
	otpSentDetail      = "OTP sent"
)

// AuthService is the login flow the handler drives. *service.AuthService implements it.
type AuthService interface {
	BeginLogin(ctx context.Context, username, password string) (string, error)
	ResendChallenge(ctx context.Context, tempToken string) (string, error)
	VerifyChallenge(ctx context.Context, tempToken, passcode string) (*security.TokenPair, error)
	Logout(ctx context.Context, callerUserID, refreshToken string) error
	RefreshAccess(ctx context.Context, refreshToken string) (string, time.Time, error)
}

// Handler maps HTTP requests to the auth service and its errors to statuses.
type Handler struct {
	auth   AuthService
	tokens interceptors.AccessValidator
	logger *slog.Logger
}

// NewHandler returns an auth HTTP handler. tokens validates the Bearer token on logout.
func NewHandler(auth AuthService, tokens interceptors.AccessValidator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{auth: auth, tokens: tokens, logger: logger}
}

// Register mounts the login routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /resend-otp", h.ResendOTP)
	mux.HandleFunc("POST /verify-otp", h.VerifyOTP)
	mux.Handle("POST /logout", interceptors.AuthMiddleware(h.tokens, http.HandlerFunc(h.Logout)))
	mux.HandleFunc("POST /token/refresh", h.RefreshToken)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tempTokenRequest struct {
	TempToken string `json:"temp_token"`
}

type verifyRequest struct {
	TempToken string `json:"temp_token"`
	OTP       string `json:"otp"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type otpSentResponse struct {
	Detail    string `json:"detail"`
	TempToken string `json:"temp_token"`
}

type tokenPairResponse struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	fields := map[string]string{}
	username := strings.TrimSpace(req.Username)
	requireField(fields, "username", username, maxUsernameLen)
	requireField(fields, "password", req.Password, maxPasswordLen)
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	token, err := h.auth.BeginLogin(r.Context(), username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, otpSentResponse{Detail: otpSentDetail, TempToken: token})
}

// ResendOTP handles POST /resend-otp.
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req tempTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	fields := map[string]string{}
	tempToken := strings.TrimSpace(req.TempToken)
	requireField(fields, "temp_token", tempToken, maxTokenLen)
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	token, err := h.auth.ResendChallenge(r.Context(), tempToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, otpSentResponse{Detail: otpSentDetail, TempToken: token})
}

// VerifyOTP handles POST /verify-otp.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	fields := map[string]string{}
	tempToken := strings.TrimSpace(req.TempToken)
	requireField(fields, "temp_token", tempToken, maxTokenLen)
	otp := mfa.NormalizePasscode(req.OTP)
	if otp == "" {
		fields["otp"] = "This field is required."
	} else if !isSixDigits(otp) {
		fields["otp"] = "Enter the 6-digit code."
	}
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	pair, err := h.auth.VerifyChallenge(r.Context(), tempToken, otp)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenPairResponse{RefreshToken: pair.RefreshToken, AccessToken: pair.AccessToken})
}

// Logout handles POST /logout. AuthMiddleware has already checked the Bearer token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserID(r.Context())
	if !ok || userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing or invalid authorization"})
		return
	}
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	fields := map[string]string{}
	refresh := strings.TrimSpace(req.RefreshToken)
	requireField(fields, "refresh_token", refresh, maxTokenLen)
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	if err := h.auth.Logout(r.Context(), userID, refresh); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RefreshToken handles POST /token/refresh.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !h.decode(w, r, &req) {
		return
	}
	fields := map[string]string{}
	refresh := strings.TrimSpace(req.RefreshToken)
	requireField(fields, "refresh_token", refresh, maxTokenLen)
	if len(fields) > 0 {
		writeValidation(w, fields)
		return
	}
	access, expiresAt, err := h.auth.RefreshAccess(r.Context(), refresh)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accessTokenResponse{AccessToken: access, ExpiresAt: expiresAt.Unix()})
}

// decode reads a JSON object body into v. On failure it writes a 400 and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err := dec.Decode(v); err != nil {
		msg := "Request body must be a JSON object."
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "Request body is too large."
		} else if errors.Is(err, io.EOF) {
			msg = "Request body is empty."
		}
		writeValidation(w, map[string]string{"body": msg})
		return false
	}
	return true
}

// writeError maps service errors to responses. Infrastructure details are logged, never returned.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid credentials"})
	case errors.Is(err, service.ErrInvalidOrExpiredChallenge):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid or expired OTP"})
	case errors.Is(err, service.ErrExpiredOrUnknownSession):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "login session expired or unknown"})
	case errors.Is(err, service.ErrInvalidRefreshToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired refresh token"})
	case errors.Is(err, service.ErrChallengeDispatchFailed), errors.Is(err, service.ErrServiceUnavailable):
		h.logger.WarnContext(r.Context(), "auth: upstream failure", "path", r.URL.Path, "error", err)
		w.Header().Set("Retry-After", "30")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service temporarily unavailable"})
	default:
		h.logger.ErrorContext(r.Context(), "auth: unexpected error", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func requireField(fields map[string]string, name, value string, maxLen int) {
	switch {
	case value == "":
		fields[name] = "This field is required."
	case len(value) > maxLen:
		fields[name] = "Ensure this field has no more than " + strconv.Itoa(maxLen) + " characters."
	}
}

func isSixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func writeValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request", Fields: fields})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
