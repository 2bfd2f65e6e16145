package handler

import (
	"context"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server implements grpc.health.v1.Health. Check reports SERVING only when
// every dependency in Checks answers.
type Server struct {
	healthpb.UnimplementedHealthServer
	checks Checks
}

// NewServer returns a new Health gRPC server.
func NewServer(checks Checks) *Server {
	return &Server{checks: checks}
}

// Check returns the readiness of the whole service; per-service names are not tracked.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if _, ready := s.checks.Run(ctx); !ready {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
