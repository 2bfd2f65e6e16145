// Package devotp keeps the last passcode sent to each user in memory, used only
// when dev OTP mode is enabled (GET /dev/otp). No email leaves the process.
package devotp

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa"
)

// Store holds plain passcodes by username for dev-only retrieval. Not used in production.
type Store interface {
	// Get returns the last passcode sent to username if present and not expired.
	Get(ctx context.Context, username string) (passcode string, ok bool)
}

type entry struct {
	passcode  string
	expiresAt time.Time
}

// Outbox is an mfa.Sender that delivers into memory instead of a mail relay.
type Outbox struct {
	mu   sync.RWMutex
	m    map[string]entry
	nowF func() time.Time
}

var _ mfa.Sender = (*Outbox)(nil)

// NewOutbox returns an empty dev outbox.
func NewOutbox() *Outbox {
	return &Outbox{
		m:    make(map[string]entry),
		nowF: time.Now,
	}
}

// SendPasscode records msg.Passcode for msg.Username (falling back to msg.To),
// replacing any earlier one. Messages without ExpiresIn never expire.
func (o *Outbox) SendPasscode(ctx context.Context, msg mfa.Message) error {
	key := outboxKey(msg.Username)
	if key == "" {
		key = outboxKey(msg.To)
	}
	e := entry{passcode: msg.Passcode}
	if msg.ExpiresIn > 0 {
		e.expiresAt = o.nowF().Add(msg.ExpiresIn)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.m[key] = e
	return nil
}

// Get returns the passcode for username if present and not expired.
func (o *Outbox) Get(ctx context.Context, username string) (string, bool) {
	key := outboxKey(username)
	o.mu.RLock()
	e, ok := o.m[key]
	o.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(o.nowF()) {
		o.mu.Lock()
		delete(o.m, key)
		o.mu.Unlock()
		return "", false
	}
	return e.passcode, true
}

func outboxKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
