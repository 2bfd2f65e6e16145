package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/EmmanuelBronyah/CivilianStaffManagementSystem-sub000/internal/mfa/domain"
)

const deviceColumns = `user_id, secret, counter, issued_at, created_at, updated_at`

// PostgresRepository stores OTP devices in the otp_devices table.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an OTP device repository that uses the given db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Get returns the device for userID, or nil if not found.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (*domain.Device, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+deviceColumns+` FROM otp_devices WHERE user_id = $1`, userID)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

// Issue upserts the device in a single statement; concurrent issues serialize on the row.
func (r *PostgresRepository) Issue(ctx context.Context, userID, secret string, now time.Time) (*domain.Device, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO otp_devices (user_id, secret, counter, issued_at, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $3, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET counter = otp_devices.counter + 1, issued_at = EXCLUDED.issued_at, updated_at = EXCLUDED.updated_at
		RETURNING `+deviceColumns, userID, secret, now)
	return scanDevice(row)
}

// Advance is a compare-and-set on the counter.
func (r *PostgresRepository) Advance(ctx context.Context, userID string, expected uint64, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE otp_devices
		SET counter = counter + 1, issued_at = NULL, updated_at = $3
		WHERE user_id = $1 AND counter = $2`, userID, int64(expected), now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func scanDevice(row *sql.Row) (*domain.Device, error) {
	var (
		d        domain.Device
		counter  int64
		issuedAt sql.NullTime
	)
	if err := row.Scan(&d.UserID, &d.Secret, &counter, &issuedAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Counter = uint64(counter)
	if issuedAt.Valid {
		d.IssuedAt = issuedAt.Time
	}
	return &d, nil
}
