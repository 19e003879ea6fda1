package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/brokerapp/server/internal/clock"
	"github.com/brokerapp/server/internal/model"
	"github.com/brokerapp/server/internal/repo"
)

const sessionIDBytes = 32

// ErrNoSession is returned by ResolveSession when the id is unknown or the
// session has expired in the store.
var ErrNoSession = errors.New("session not found or expired")

// SessionManager creates server-side sessions and converts them to and from
// signed tokens.
type SessionManager struct {
	sessionRepo repo.SessionRepo
	tokens      *TokenService
	ttl         time.Duration
	clock       clock.Clocker
}

// NewSessionManager creates a new session manager
func NewSessionManager(sessionRepo repo.SessionRepo, tokens *TokenService, ttl time.Duration, clk clock.Clocker) *SessionManager {
	return &SessionManager{sessionRepo: sessionRepo, tokens: tokens, ttl: ttl, clock: clk}
}

// GenerateSessionID returns a random Base64URL id (32 bytes)
func GenerateSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// CreateSession persists a new session for userID and returns its id.
func (m *SessionManager) CreateSession(ctx context.Context, userID int64) (string, error) {
	id, err := GenerateSessionID()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	now := m.clock.Now()
	s := model.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if err := m.sessionRepo.Create(ctx, s); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return id, nil
}

// IssueToken signs a token for sessionID.
func (m *SessionManager) IssueToken(sessionID string) (string, error) {
	return m.tokens.Sign(sessionID)
}

// VerifyToken returns the session id claimed by token. The claim still has
// to be resolved against the store.
func (m *SessionManager) VerifyToken(token string) (string, bool) {
	id, err := m.tokens.Verify(token)
	if err != nil {
		return "", false
	}
	return id, true
}

// ResolveSession loads the session and its owner, returning ErrNoSession when
// the session does not exist or has expired.
func (m *SessionManager) ResolveSession(ctx context.Context, sessionID string) (model.User, model.Session, error) {
	u, s, err := m.sessionRepo.Resolve(ctx, sessionID, m.clock.Now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.User{}, model.Session{}, ErrNoSession
		}
		return model.User{}, model.Session{}, fmt.Errorf("resolve session: %w", err)
	}
	return u, s, nil
}

// RevokeSession deletes the stored session. Unknown ids are ignored.
func (m *SessionManager) RevokeSession(ctx context.Context, sessionID string) error {
	if err := m.sessionRepo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// PurgeExpired removes sessions that expired before now.
func (m *SessionManager) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := m.sessionRepo.DeleteExpired(ctx, m.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return n, nil
}
