// Package audit persists login activity events to the audit_logs table.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/audit/domain"
	auditrepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/audit/repository"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry"
)

// ResourceAuth is the resource recorded for every login activity entry.
const ResourceAuth = "auth"

// unknownIP is stored when the event carries no client address.
const unknownIP = "unknown"

// Logger implements telemetry.EventEmitter on top of the audit repository.
type Logger struct {
	repo   auditrepo.Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewLogger returns a Logger that persists to repo. logger may be nil.
func NewLogger(repo auditrepo.Repository, logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{repo: repo, logger: logger, now: time.Now}
}

type metadata struct {
	Username string `json:"username,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Emit writes one audit log entry for event. The action is the event type.
func (l *Logger) Emit(ctx context.Context, event *telemetry.Event) error {
	if l.repo == nil || event == nil {
		return nil
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    event.UserID,
		Action:    event.Type,
		Resource:  ResourceAuth,
		IP:        event.IP,
		CreatedAt: event.CreatedAt,
	}
	if entry.IP == "" {
		entry.IP = unknownIP
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = l.now().UTC()
	}
	if event.Username != "" || event.Detail != "" {
		b, err := json.Marshal(metadata{Username: event.Username, Detail: event.Detail})
		if err != nil {
			return err
		}
		entry.Metadata = string(b)
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		l.logger.Warn("audit: failed to log event", "action", event.Type, "error", err)
		return err
	}
	return nil
}
