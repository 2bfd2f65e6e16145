package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/loginsession"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa"
	mfarepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/repository"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
	sessionrepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/session/repository"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/telemetry"
	userdomain "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/domain"
	userrepo "github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/repository"
)

const (
	testUsername = "ama.owusu"
	testPassword = "Correct-Horse-1"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mfa.Message
	err  error
}

func (s *recordingSender) SendPasscode(ctx context.Context, msg mfa.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *recordingSender) lastPasscode(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("no passcode sent")
	}
	return s.sent[len(s.sent)-1].Passcode
}

type eventRecorder struct {
	ch chan *telemetry.Event
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{ch: make(chan *telemetry.Event, 64)}
}

func (r *eventRecorder) Emit(ctx context.Context, e *telemetry.Event) error {
	r.ch <- e
	return nil
}

// waitFor returns the first event of type typ, skipping others.
func (r *eventRecorder) waitFor(t *testing.T, typ string) *telemetry.Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-r.ch:
			if e.Type == typ {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", typ)
			return nil
		}
	}
}

type harness struct {
	svc         *AuthService
	user        *userdomain.User
	users       *userrepo.MemoryRepository
	devices     *mfarepo.MemoryRepository
	attempts    *loginsession.MemoryStore
	revocations *sessionrepo.MemoryRepository
	sender      *recordingSender
	events      *eventRecorder
	tokens      *security.TokenProvider
	clock       *testClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:       userrepo.NewMemoryRepository(),
		devices:     mfarepo.NewMemoryRepository(),
		revocations: sessionrepo.NewMemoryRepository(),
		sender:      &recordingSender{},
		events:      newEventRecorder(),
		clock:       &testClock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)},
	}
	h.attempts = loginsession.NewMemoryStore().WithClock(h.clock.Now)

	hasher := security.NewHasher(4)
	hash, err := hasher.Hash([]byte(testPassword))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h.user = &userdomain.User{
		ID:           "user-ama",
		Username:     testUsername,
		Email:        "ama@example.com",
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    h.clock.Now(),
		UpdatedAt:    h.clock.Now(),
	}
	if err := h.users.Create(context.Background(), h.user); err != nil {
		t.Fatalf("Create user: %v", err)
	}

	tokens, err := security.NewTestHMACTokenProvider()
	if err != nil {
		t.Fatalf("NewTestHMACTokenProvider: %v", err)
	}
	h.tokens = tokens.WithClock(h.clock.Now)

	issuer := mfa.NewIssuer(h.devices, h.sender, 5*time.Minute, nil).WithClock(h.clock.Now)
	verifier := mfa.NewVerifier(h.devices, 5*time.Minute).WithClock(h.clock.Now)
	h.svc = NewAuthService(h.users, hasher, issuer, verifier, h.attempts, h.tokens, h.revocations,
		5*time.Minute, h.events, nil).WithClock(h.clock.Now)
	return h
}

// login runs BeginLogin with the test credentials.
func (h *harness) login(t *testing.T) string {
	t.Helper()
	token, err := h.svc.BeginLogin(context.Background(), testUsername, testPassword)
	if err != nil {
		t.Fatalf("BeginLogin: %v", err)
	}
	return token
}

// wrongPasscode returns a six-digit code that differs from code.
func wrongPasscode(code string) string {
	b := []byte(code)
	if b[0] == '9' {
		b[0] = '0'
	} else {
		b[0]++
	}
	return string(b)
}
