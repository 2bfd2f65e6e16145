package handler

import (
	"encoding/json"
	"net/http"
)

// HTTPHandler serves GET /healthz and GET /readyz.
type HTTPHandler struct {
	checks Checks
}

// NewHTTPHandler returns the HTTP health endpoints backed by checks.
func NewHTTPHandler(checks Checks) *HTTPHandler {
	return &HTTPHandler{checks: checks}
}

// Register mounts the health routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Liveness)
	mux.HandleFunc("GET /readyz", h.Readiness)
}

// Liveness reports that the process is up. It never touches dependencies.
func (h *HTTPHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// Readiness returns 503 when the database or the cache is unreachable.
func (h *HTTPHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	results, ready := h.checks.Run(r.Context())
	status, code := "ok", http.StatusOK
	if !ready {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": results})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
