package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/brokerapp/server/internal/model"
)

// OtpRepo defines the interface for OTP record repository operations
type OtpRepo interface {
	Create(ctx context.Context, rec model.OtpRecord) (int64, error)
	// ConsumeValid marks one unused, unexpired record matching email and code
	// as used. It reports false when no such record exists.
	ConsumeValid(ctx context.Context, email, code string, now time.Time) (bool, error)
}

type otpRepo struct {
	db *sql.DB
}

// NewOtpRepo creates a new OtpRepo instance
func NewOtpRepo(db *sql.DB) OtpRepo {
	return &otpRepo{db: db}
}

// Create inserts a new OTP record. Earlier records for the same email are left untouched.
func (r *otpRepo) Create(ctx context.Context, rec model.OtpRecord) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO otps (email, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		RETURNING id
	`, rec.Email, rec.Code, rec.ExpiresAt, rec.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert otp: %w", err)
	}
	return id, nil
}

// ConsumeValid runs as a single conditional update. Concurrent callers with the
// same email and code cannot both win: the inner select skips rows locked by a
// competing transaction and the outer predicate re-checks used.
func (r *otpRepo) ConsumeValid(ctx context.Context, email, code string, now time.Time) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		UPDATE otps SET used = TRUE
		WHERE id = (
			SELECT id FROM otps
			WHERE email = $1 AND code = $2 AND used = FALSE AND expires_at >= $3
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		) AND used = FALSE
		RETURNING id
	`, email, code, now).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("consume otp: %w", err)
	}
	return true, nil
}
