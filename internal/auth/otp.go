package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/brokerapp/server/internal/clock"
	"github.com/brokerapp/server/internal/model"
	"github.com/brokerapp/server/internal/repo"
)

const (
	codeMin   = 100000
	codeRange = 900000
)

// OtpManager issues and redeems one-time login codes.
type OtpManager struct {
	otpRepo repo.OtpRepo
	ttl     time.Duration
	clock   clock.Clocker
}

// NewOtpManager creates a new OTP manager
func NewOtpManager(otpRepo repo.OtpRepo, ttl time.Duration, clk clock.Clocker) *OtpManager {
	return &OtpManager{otpRepo: otpRepo, ttl: ttl, clock: clk}
}

// GenerateCode returns a uniformly random six-digit code in [100000, 999999].
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}

// Issue persists a fresh code for email. Codes issued earlier stay valid.
func (m *OtpManager) Issue(ctx context.Context, email string) (string, error) {
	code, err := GenerateCode()
	if err != nil {
		return "", err
	}
	now := m.clock.Now()
	rec := model.OtpRecord{
		Email:     email,
		Code:      code,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}
	if _, err := m.otpRepo.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify redeems a matching code. A false result does not say why the code
// was rejected.
func (m *OtpManager) Verify(ctx context.Context, email, code string) (bool, error) {
	ok, err := m.otpRepo.ConsumeValid(ctx, email, code, m.clock.Now())
	if err != nil {
		return false, fmt.Errorf("verify otp: %w", err)
	}
	return ok, nil
}
