package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/brokerapp/server/internal/model"
)

// Memory is an in-process credential store. It mirrors the Postgres
// constraints: unique email, unique session id, conditional OTP consumption,
// and sessions that only resolve while their user exists.
type Memory struct {
	mu       sync.Mutex
	nextUser int64
	nextOtp  int64
	users    map[int64]model.User
	byEmail  map[string]int64
	otps     []model.OtpRecord
	sessions map[string]model.Session
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]model.User),
		byEmail:  make(map[string]int64),
		sessions: make(map[string]model.Session),
	}
}

// Users returns a UserRepo view of m.
func (m *Memory) Users() UserRepo { return memUsers{m} }

// Otps returns an OtpRepo view of m.
func (m *Memory) Otps() OtpRepo { return memOtps{m} }

// Sessions returns a SessionRepo view of m.
func (m *Memory) Sessions() SessionRepo { return memSessions{m} }

// OtpRecords returns a copy of every stored OTP record in insertion order.
func (m *Memory) OtpRecords() []model.OtpRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.OtpRecord, len(m.otps))
	copy(out, m.otps)
	return out
}

// SessionCount returns the number of stored sessions, expired or not.
func (m *Memory) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type memUsers struct{ m *Memory }

func (r memUsers) GetByID(_ context.Context, id int64) (model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

func (r memUsers) GetOrCreateByEmail(_ context.Context, email string, now time.Time) (model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if id, ok := r.m.byEmail[email]; ok {
		return r.m.users[id], nil
	}
	r.m.nextUser++
	u := model.User{
		ID:        r.m.nextUser,
		Email:     email,
		Role:      model.DefaultRole,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.m.users[u.ID] = u
	r.m.byEmail[email] = u.ID
	return u, nil
}

func (r memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	id, ok := r.m.byEmail[email]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return r.m.users[id], nil
}

type memOtps struct{ m *Memory }

func (r memOtps) Create(_ context.Context, rec model.OtpRecord) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextOtp++
	rec.ID = r.m.nextOtp
	rec.Used = false
	r.m.otps = append(r.m.otps, rec)
	return rec.ID, nil
}

func (r memOtps) ConsumeValid(_ context.Context, email, code string, now time.Time) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	// Newest first, matching the Postgres ordering.
	for i := len(r.m.otps) - 1; i >= 0; i-- {
		rec := &r.m.otps[i]
		if rec.Email == email && rec.Code == code && rec.Consumable(now) {
			rec.Used = true
			return true, nil
		}
	}
	return false, nil
}

type memSessions struct{ m *Memory }

func (r memSessions) Create(_ context.Context, s model.Session) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.sessions[s.ID]; ok {
		return fmt.Errorf("insert session: %w", ErrConflict)
	}
	if _, ok := r.m.users[s.UserID]; !ok {
		return fmt.Errorf("insert session: user %d: %w", s.UserID, ErrNotFound)
	}
	r.m.sessions[s.ID] = s
	return nil
}

func (r memSessions) Resolve(_ context.Context, id string, now time.Time) (model.User, model.Session, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.sessions[id]
	if !ok || !s.Valid(now) {
		return model.User{}, model.Session{}, ErrNotFound
	}
	u, ok := r.m.users[s.UserID]
	if !ok {
		return model.User{}, model.Session{}, ErrNotFound
	}
	return u, s, nil
}

func (r memSessions) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.sessions, id)
	return nil
}

func (r memSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, s := range r.m.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.m.sessions, id)
			n++
		}
	}
	return n, nil
}
