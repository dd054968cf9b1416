package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"challenge-hub/internal/model"
)

const userColumns = `id, first_name, last_name, email, password_hash, role,
	        profile_picture_url, token_version, pending_otp_hash,
	        pending_otp_expires_at, created_at, updated_at`

// Postgres error code for a unique constraint violation.
const uniqueViolation = "23505"

// UserRepository is the Postgres credential store. Every token-version and
// pending-OTP mutation is a single conditional statement so concurrent
// requests cannot interleave a read-modify-write.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &u.ProfilePictureURL, &u.TokenVersion, &u.PendingOTPHash,
		&u.PendingOTPExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		model.NormalizeEmail(email)))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`,
		model.NormalizeEmail(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, first_name, last_name, email, password_hash, role,
		                    profile_picture_url, token_version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash, u.Role,
		u.ProfilePictureURL, u.TokenVersion, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		// Two registrations can pass the existence check at the same time;
		// the unique index on email decides the winner.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return model.ErrUserAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdatePassword replaces the hash and bumps the token version in one
// statement, so a concurrent refresh can never observe the new password with
// the old version.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string) (int64, error) {
	var version int64
	err := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET password_hash = $2, token_version = token_version + 1, updated_at = $3
		 WHERE id = $1
		 RETURNING token_version`,
		userID, passwordHash, time.Now().UTC()).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("update password: %w", err)
	}
	return version, nil
}

// BumpTokenVersion atomically increments the per-user version counter,
// voiding every refresh token minted before the bump.
func (r *UserRepository) BumpTokenVersion(ctx context.Context, userID string) (int64, error) {
	var version int64
	err := r.pool.QueryRow(ctx,
		`UPDATE users SET token_version = token_version + 1, updated_at = $2
		 WHERE id = $1
		 RETURNING token_version`,
		userID, time.Now().UTC()).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("bump token version: %w", err)
	}
	return version, nil
}

// SetPendingOTP stores a new challenge, overwriting any outstanding one.
func (r *UserRepository) SetPendingOTP(ctx context.Context, userID string, otpHash string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET pending_otp_hash = $2, pending_otp_expires_at = $3, updated_at = $4
		 WHERE id = $1`,
		userID, otpHash, expiresAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set pending otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// ClearPendingOTP clears the challenge only if it still holds the hash the
// caller read. The row count tells the caller whether it won the race: two
// concurrent consumers of the same code see exactly one true.
func (r *UserRepository) ClearPendingOTP(ctx context.Context, userID string, expectedHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET pending_otp_hash = NULL, pending_otp_expires_at = NULL, updated_at = $3
		 WHERE id = $1 AND pending_otp_hash = $2`,
		userID, expectedHash, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("clear pending otp: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.PublicUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, first_name, last_name, email, role, profile_picture_url
		 FROM users ORDER BY lower(email)`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.PublicUser, 0)
	for rows.Next() {
		var u model.PublicUser
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Role, &u.ProfilePictureURL); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
