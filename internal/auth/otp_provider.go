package auth

import (
	"context"

	"github.com/brokerapp/server/internal/model"
)

// OtpProvider defines the interface for OTP operations
type OtpProvider interface {
	Issue(ctx context.Context, email string) (string, error)
	Verify(ctx context.Context, email, code string) (bool, error)
}

// SessionProvider defines the interface for session and token operations
type SessionProvider interface {
	CreateSession(ctx context.Context, userID int64) (string, error)
	IssueToken(sessionID string) (string, error)
	VerifyToken(token string) (string, bool)
	ResolveSession(ctx context.Context, sessionID string) (model.User, model.Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
}

var (
	_ OtpProvider     = (*OtpManager)(nil)
	_ SessionProvider = (*SessionManager)(nil)
)
