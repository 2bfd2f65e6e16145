package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/session/domain"
)

// PostgresRepository stores revocations in revoked_refresh_tokens.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a revocation repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Revoke inserts the jti, ignoring duplicates.
func (r *PostgresRepository) Revoke(ctx context.Context, rt *domain.RevokedRefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO revoked_refresh_tokens (jti, user_id, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO NOTHING`,
		rt.JTI, rt.UserID, rt.ExpiresAt, rt.RevokedAt)
	return err
}

// IsRevoked reports whether jti is denylisted.
func (r *PostgresRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_refresh_tokens WHERE jti = $1)`, jti).Scan(&revoked)
	return revoked, err
}

// DeleteExpired prunes revocations of tokens that can no longer validate anyway.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM revoked_refresh_tokens WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
