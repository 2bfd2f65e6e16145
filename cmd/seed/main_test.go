package main

import (
	"context"
	"testing"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/repository"
)

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	users := repository.NewMemoryRepository()
	hasher := security.NewHasher(4)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	n, err := seed(ctx, users, hasher, now)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != len(devUsers) {
		t.Errorf("created = %d, want %d", n, len(devUsers))
	}

	n, err = seed(ctx, users, hasher, now)
	if err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if n != 0 {
		t.Errorf("second run created %d users", n)
	}

	u, err := users.GetByUsername(ctx, "dev")
	if err != nil || u == nil {
		t.Fatalf("GetByUsername: %v, %v", u, err)
	}
	if err := hasher.Compare(u.PasswordHash, []byte(devPassword)); err != nil {
		t.Errorf("stored hash does not match dev password: %v", err)
	}
}
