package model

import (
	"time"
)

// DefaultRole is assigned to users provisioned on their first code request.
const DefaultRole = "user"

// User represents a user in the system
type User struct {
	ID        int64
	Email     string
	Name      *string
	Company   *string
	Role      string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserView is the redacted user returned to callers. It never carries
// internal flags or timestamps.
type UserView struct {
	ID      int64   `json:"id"`
	Email   string  `json:"email"`
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Role    string  `json:"role"`
}

// View returns the redacted representation of u.
func (u User) View() UserView {
	return UserView{
		ID:      u.ID,
		Email:   u.Email,
		Name:    u.Name,
		Company: u.Company,
		Role:    u.Role,
	}
}

// OtpRecord is one issued login code. History is retained: records are
// marked used but never deleted.
type OtpRecord struct {
	ID        int64
	Email     string
	Code      string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// Consumable reports whether the record may still be redeemed at now.
func (o OtpRecord) Consumable(now time.Time) bool {
	return !o.Used && !now.After(o.ExpiresAt)
}

// Session is a server-side authentication grant
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Valid reports whether the session has not expired at now.
func (s Session) Valid(now time.Time) bool {
	return !now.After(s.ExpiresAt)
}
