// server runs the staff login API: POST /login, /resend-otp, /verify-otp,
// /logout and /token/refresh over HTTP, plus the gRPC health service when
// GRPC_ADDR is set.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/audit"
	auditrepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/audit/repository"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/config"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/db"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/devotp"
	devotphandler "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/devotp/handler"
	healthhandler "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/health/handler"
	identityhandler "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/identity/handler"
	identityservice "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/identity/service"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/loginsession"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/mail"
	mfarepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/repository"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/server"
	sessionrepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/session/repository"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry/metrics"
	telemetryotel "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry/otel"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry/producer"
	userrepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/repository"
)

const (
	redisKeyPrefix  = "staff-auth:login"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		return err
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn("otel shutdown", "error", err)
		}
	}()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	attempts, closeAttempts, err := newAttemptStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAttempts()

	tokens, err := newTokenProvider(cfg, logger)
	if err != nil {
		return err
	}

	var (
		sender mfa.Sender
		outbox *devotp.Outbox
	)
	if cfg.OTPReturnToClient {
		outbox = devotp.NewOutbox()
		sender = outbox
		logger.Warn("dev OTP mode: passcodes are not emailed and are served at GET /dev/otp")
	} else {
		if cfg.SMTPHost == "" {
			return errors.New("SMTP_HOST must be set unless OTP_RETURN_TO_CLIENT is true")
		}
		sender = mail.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	otpDevices := mfarepo.NewPostgresRepository(database)
	issuer := mfa.NewIssuer(otpDevices, sender, cfg.OTPLifetime(), logger)
	verifier := mfa.NewVerifier(otpDevices, cfg.OTPLifetime())
	users := userrepo.NewPostgresRepository(database)
	revocations := sessionrepo.NewPostgresRepository(database)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	activityMetrics, err := metrics.NewEmitter(registry)
	if err != nil {
		return err
	}

	kafkaProducer, err := producer.NewKafkaProducer(cfg.KafkaBrokersList(), cfg.ActivityKafkaTopic)
	if err != nil {
		return err
	}
	events := telemetry.Multi{
		activityMetrics,
		telemetryotel.NewEventEmitter(providers.LoggerProvider),
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		events = append(events, kafkaProducer)
		logger.Info("activity events published to kafka", "topic", cfg.ActivityKafkaTopic)
	} else {
		events = append(events, audit.NewLogger(auditrepo.NewPostgresRepository(database), logger))
	}

	auth := identityservice.NewAuthService(
		users,
		security.NewHasher(cfg.BcryptCost),
		issuer,
		verifier,
		attempts,
		tokens,
		revocations,
		cfg.LoginSessionLifetime(),
		events,
		logger,
	)

	checks := healthhandler.Checks{DB: database, Cache: attempts}
	deps := server.HTTPDeps{
		Auth:    identityhandler.NewHandler(auth, tokens, logger),
		Health:  healthhandler.NewHTTPHandler(checks),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:  logger,
	}
	if outbox != nil {
		deps.DevOTP = devotphandler.NewHandler(outbox)
	}
	httpServer := server.NewHTTPServer(cfg.HTTPAddr, server.NewHTTPHandler(deps))

	errCh := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		grpcServer = server.NewGRPCServer(server.GRPCDeps{
			Tokens: tokens,
			Health: healthhandler.NewServer(checks),
			Logger: logger,
		})
		go func() {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown", "error", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	// Let in-flight async activity emits finish before the emitters close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	logger.Info("server stopped")
	return nil
}

// newAttemptStore returns the shared Redis store, or the in-memory store when
// REDIS_URL is empty (never in production; config.Load rejects that).
func newAttemptStore(cfg *config.Config, logger *slog.Logger) (loginsession.Store, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set: login sessions are kept in process memory")
		return loginsession.NewMemoryStore(), func() {}, nil
	}
	client, err := loginsession.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return loginsession.NewRedisStore(client, redisKeyPrefix), func() { _ = client.Close() }, nil
}

// newTokenProvider builds the JWT provider from the configured keys. Outside
// production a missing key falls back to a random per-process secret.
func newTokenProvider(cfg *config.Config, logger *slog.Logger) (*security.TokenProvider, error) {
	kc := security.KeyConfig{
		Secret:     cfg.JWTSecret,
		PrivateKey: cfg.JWTPrivateKey,
		PublicKey:  cfg.JWTPublicKey,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
	}
	if kc.Secret == "" && kc.PrivateKey == "" && kc.PublicKey == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET or JWT_PRIVATE_KEY/JWT_PUBLIC_KEY must be set when APP_ENV=production")
		}
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		kc.Secret = hex.EncodeToString(b)
		logger.Warn("no JWT key configured: using a random secret; tokens will not survive a restart")
	}
	return security.NewTokenProviderFromKeys(kc)
}
