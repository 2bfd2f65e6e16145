package repository

import (
	"context"
	"testing"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/domain"
)

func TestMemoryRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	u := &domain.User{ID: "u1", Username: " Kofi.Mensah ", Email: "kofi@example.com", PasswordHash: "h", IsActive: true}
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByUsername(ctx, "KOFI.MENSAH")
	if err != nil || got == nil || got.ID != "u1" {
		t.Fatalf("GetByUsername: got=%v err=%v", got, err)
	}
	if err := repo.Create(ctx, &domain.User{ID: "u2", Username: "kofi.mensah", Email: "x@example.com", PasswordHash: "h"}); err == nil {
		t.Error("duplicate username accepted")
	}
	repo.SetActive("u1", false)
	got, _ = repo.GetByID(ctx, "u1")
	if got.IsActive {
		t.Error("SetActive(false) not applied")
	}
	if missing, _ := repo.GetByID(ctx, "nope"); missing != nil {
		t.Error("GetByID should return nil for unknown id")
	}
}
