package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brokerapp/server/internal/model"
)

// SessionRepo defines the interface for session repository operations
type SessionRepo interface {
	Create(ctx context.Context, s model.Session) error
	// Resolve returns the session and its owner when the session exists and
	// has not expired at now.
	Resolve(ctx context.Context, id string, now time.Time) (model.User, model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new SessionRepo instance
func NewSessionRepo(db *sql.DB) SessionRepo {
	return &sessionRepo{db: db}
}

// Create inserts a new session
func (r *sessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, s.ID, s.UserID, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert session: %w", ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("insert session: user %d: %w", s.UserID, ErrNotFound)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// Resolve joins the session to its user
func (r *sessionRepo) Resolve(ctx context.Context, id string, now time.Time) (model.User, model.Session, error) {
	var u model.User
	var s model.Session
	err := r.db.QueryRowContext(ctx, `
		SELECT s.id, s.user_id, s.expires_at, s.created_at,
		       u.id, u.email, u.name, u.company, u.role, u.is_active, u.created_at, u.updated_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $1 AND s.expires_at >= $2
	`, id, now).Scan(
		&s.ID,
		&s.UserID,
		&s.ExpiresAt,
		&s.CreatedAt,
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Company,
		&u.Role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, model.Session{}, ErrNotFound
		}
		return model.User{}, model.Session{}, fmt.Errorf("resolve session: %w", err)
	}
	return u, s, nil
}

// Delete removes the session. Deleting an unknown id is not an error.
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session that expired before now and returns how many were removed.
func (r *sessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}
