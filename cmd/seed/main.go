// seed inserts development staff accounts for local testing.
// Idempotent: accounts whose username already exists are skipped.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/config"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/db"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/security"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/domain"
	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/user/repository"
)

const devPassword = "password123"

type seedUser struct {
	id       string
	username string
	email    string
	active   bool
}

var devUsers = []seedUser{
	{id: "dev-user-001", username: "dev", email: "dev@example.com", active: true},
	{id: "dev-user-002", username: "clerk", email: "clerk@example.com", active: true},
	{id: "dev-user-003", username: "retired", email: "retired@example.com", active: false},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("seed: refusing to run with APP_ENV=production")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	created, err := seed(ctx, repository.NewPostgresRepository(conn), security.NewHasher(cfg.BcryptCost), time.Now().UTC())
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if created == 0 {
		log.Println("Seed already applied. Skipping.")
		os.Exit(0)
	}
	log.Printf("Seeded %d users (password %q).", created, devPassword)
}

// seed creates each dev user that does not exist yet and returns how many it created.
func seed(ctx context.Context, users repository.Repository, hasher *security.Hasher, now time.Time) (int, error) {
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		return 0, err
	}
	created := 0
	for _, su := range devUsers {
		existing, err := users.GetByUsername(ctx, su.username)
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if err := users.Create(ctx, &domain.User{
			ID:           su.id,
			Username:     su.username,
			Email:        su.email,
			PasswordHash: passwordHash,
			IsActive:     su.active,
			CreatedAt:    now,
			UpdatedAt:    now,
		}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
