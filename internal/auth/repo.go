package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/makerhall/makerhall/internal/shared"
)

// Credentials carries the password-login fields for an account.
type Credentials struct {
	UserID       int64
	Email        string
	PasswordHash string
	IsActive     bool
}

// Repository persists login-related records.
type Repository interface {
	FindCredentials(ctx context.Context, email string) (Credentials, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindCredentials loads the password-login fields by email.
func (r *PGRepository) FindCredentials(ctx context.Context, email string) (Credentials, error) {
	var creds Credentials
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, is_active FROM users WHERE lower(email) = lower($1)`, email).
		Scan(&creds.UserID, &creds.Email, &creds.PasswordHash, &creds.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credentials{}, shared.ErrNotFound
		}
		return Credentials{}, &shared.DatabaseError{Op: "auth.find_credentials", Err: err}
	}
	return creds, nil
}

// CreateSession records session metadata for auditing and pruning.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, expires_at, ip, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, now())
		 ON CONFLICT (id) DO UPDATE SET user_id = $2, expires_at = $3`,
		id, userID, expiresAt, ip, ua)
	if err != nil {
		return &shared.DatabaseError{Op: "auth.create_session", Err: err}
	}
	return nil
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return &shared.DatabaseError{Op: "auth.delete_session", Err: err}
	}
	return nil
}
