// Package telemetry carries login activity events to the activity feed,
// metrics and logs.
package telemetry

import (
	"context"
	"errors"
	"time"
)

// Activity event types.
const (
	EventLoginFailed       = "login_failed"
	EventOTPSent           = "otp_sent"
	EventOTPResent         = "otp_resent"
	EventOTPDispatchFailed = "otp_dispatch_failed"
	EventOTPFailed         = "otp_failed"
	EventLoginSucceeded    = "login_succeeded"
	EventLogout            = "logout"
	EventTokenRefreshed    = "token_refreshed"
)

// EventTypes lists every activity event type.
var EventTypes = []string{
	EventLoginFailed,
	EventOTPSent,
	EventOTPResent,
	EventOTPDispatchFailed,
	EventOTPFailed,
	EventLoginSucceeded,
	EventLogout,
	EventTokenRefreshed,
}

// Event is one login activity record. It never carries passwords, passcodes or tokens.
type Event struct {
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventEmitter emits activity events. Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// Multi fans an event out to every emitter and joins their errors.
type Multi []EventEmitter

// Emit calls every non-nil emitter even when an earlier one fails.
func (m Multi) Emit(ctx context.Context, event *Event) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
