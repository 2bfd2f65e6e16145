// worker consumes login activity events from Kafka and writes them to the
// audit_logs table. It also prunes expired rows from the refresh-token denylist.
// Set KAFKA_BROKERS, ACTIVITY_KAFKA_TOPIC, KAFKA_GROUP_ID and DATABASE_URL.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/audit"
	auditrepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/audit/repository"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/config"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/db"
	sessionrepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/session/repository"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry/producer"
)

const (
	pruneInterval = time.Hour
	retryDelay    = 5 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stderr).With("component", "worker")
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("worker exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		return errors.New("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(database), logger)
	go pruneRevocations(ctx, sessionrepo.NewPostgresRepository(database), logger)

	logger.Info("consuming activity events", "topic", cfg.ActivityKafkaTopic, "group", cfg.KafkaGroupID)
	for {
		consumer, err := producer.NewKafkaConsumer(brokers, cfg.ActivityKafkaTopic, cfg.KafkaGroupID, logger)
		if err != nil {
			return err
		}
		err = consumer.Run(ctx, auditLogger.Emit)
		_ = consumer.Close()
		if ctx.Err() != nil {
			logger.Info("worker stopped")
			return nil
		}
		logger.Warn("consumer stopped; restarting", "error", err, "retry_in", retryDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(retryDelay):
		}
	}
}

// pruneRevocations deletes denylist rows whose refresh token has expired anyway.
func pruneRevocations(ctx context.Context, repo *sessionrepo.PostgresRepository, logger *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		n, err := repo.DeleteExpired(ctx, time.Now().UTC())
		if err != nil && ctx.Err() == nil {
			logger.Warn("prune revoked refresh tokens", "error", err)
		} else if n > 0 {
			logger.Info("pruned revoked refresh tokens", "count", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
