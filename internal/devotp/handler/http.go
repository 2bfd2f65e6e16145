// Package handler serves the dev-only passcode lookup (GET /dev/otp).
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/devotp"
)

const devOTPNote = "DEV MODE ONLY"

// Handler returns the last passcode sent to a user. Only registered when dev
// OTP mode is enabled and not production.
type Handler struct {
	store devotp.Store
}

// NewHandler returns a dev OTP handler reading from store.
func NewHandler(store devotp.Store) *Handler {
	return &Handler{store: store}
}

// Register mounts GET /dev/otp on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /dev/otp", h.GetOTP)
}

// GetOTP handles GET /dev/otp?username=.
func (h *Handler) GetOTP(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}
	code, ok := h.store.Get(r.Context(), username)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "OTP not found or expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"otp": code, "note": devOTPNote})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
