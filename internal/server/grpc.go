package server

import (
	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/health/handler"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/server/interceptors"
)

// PublicMethods are the RPCs served without a Bearer token.
var PublicMethods = map[string]bool{
	healthpb.Health_Check_FullMethodName: true,
	healthpb.Health_Watch_FullMethodName: true,
}

// GRPCDeps holds the dependencies of the gRPC server.
type GRPCDeps struct {
	// Tokens validates Bearer access tokens for non-public RPCs.
	Tokens interceptors.AccessValidator
	// Health answers grpc.health.v1.Health. If nil, the health service is not registered.
	Health *healthhandler.Server
	Logger *slog.Logger
}

// NewGRPCServer returns a server with tracing, request logging and Bearer
// authentication, with every service registered.
func NewGRPCServer(deps GRPCDeps) *grpc.Server {
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingUnary(deps.Logger, PublicMethods),
			interceptors.AuthUnary(deps.Tokens, PublicMethods),
		),
	)
	RegisterServices(s, deps)
	return s
}

// RegisterServices registers the gRPC services with the given server.
//
//   - grpc.health.v1.Health → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps GRPCDeps) {
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
}
