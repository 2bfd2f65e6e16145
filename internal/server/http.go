// Package server assembles the HTTP and gRPC servers.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	devotphandler "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/devotp/handler"
	healthhandler "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/health/handler"
	identityhandler "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/identity/handler"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/server/interceptors"
)

const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 120 * time.Second
)

// HTTPDeps holds the route groups of the HTTP API. Nil groups are not mounted.
type HTTPDeps struct {
	Auth   *identityhandler.Handler
	Health *healthhandler.HTTPHandler
	// DevOTP is set only when dev OTP mode is enabled and not production.
	DevOTP *devotphandler.Handler
	// Metrics serves GET /metrics (e.g. promhttp.HandlerFor).
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewHTTPHandler mounts every route group and wraps the mux with tracing,
// panic recovery, request logging and client IP capture.
func NewHTTPHandler(deps HTTPDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	if deps.Auth != nil {
		deps.Auth.Register(mux)
	}
	if deps.Health != nil {
		deps.Health.Register(mux)
	}
	if deps.DevOTP != nil {
		deps.DevOTP.Register(mux)
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	var h http.Handler = mux
	h = interceptors.ClientIPMiddleware(h)
	h = logRequests(logger, h)
	h = recoverPanics(logger, h)
	return otelhttp.NewHandler(h, "http.server",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// NewHTTPServer returns an *http.Server for h with conservative timeouts.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
