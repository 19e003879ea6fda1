package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-at-least-32-characters-long"

// clearEnv blanks variables a developer shell might export. Viper treats
// empty values as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"JWT_SECRET", "AUTH_JWT_SECRET", "DATABASE_URL", "DATABASE_DRIVER",
		"MAIL_DRIVER", "RESEND_API_KEY", "MAIL_RESEND_API_KEY", "APP_ENV", "PORT", "HTTP_PORT",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/broker?sslmode=disable")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, testSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.SessionTTL)
	assert.False(t, cfg.Auth.RevokeOnLogout)
	assert.Equal(t, "console", cfg.Mail.Driver)
	assert.Equal(t, 10*time.Second, cfg.Mail.Timeout)
	assert.False(t, cfg.Production())
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUTH_JWT_SECRET", testSecret)
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("AUTH_REVOKE_ON_LOGOUT", "true")
	t.Setenv("MAIL_DRIVER", "resend")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("MAIL_TIMEOUT", "3s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.True(t, cfg.Auth.RevokeOnLogout)
	assert.Equal(t, "re_test", cfg.Mail.Resend.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Mail.Timeout)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
database:
  driver: memory
auth:
  jwt_secret: ` + testSecret + `
  otp_ttl: 5m
mail:
  driver: smtp
  smtp:
    host: smtp.example.com
    port: 2525
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, "smtp", cfg.Mail.Driver)
	assert.Equal(t, "smtp.example.com", cfg.Mail.SMTP.Host)
	assert.Equal(t, 2525, cfg.Mail.SMTP.Port)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing secret",
			env:  map[string]string{"DATABASE_DRIVER": "memory"},
		},
		{
			name: "short secret",
			env:  map[string]string{"DATABASE_DRIVER": "memory", "JWT_SECRET": "short"},
		},
		{
			name: "postgres without url",
			env:  map[string]string{"JWT_SECRET": testSecret},
		},
		{
			name: "unknown mail driver",
			env:  map[string]string{"JWT_SECRET": testSecret, "DATABASE_DRIVER": "memory", "MAIL_DRIVER": "pigeon"},
		},
		{
			name: "resend without key",
			env:  map[string]string{"JWT_SECRET": testSecret, "DATABASE_DRIVER": "memory", "MAIL_DRIVER": "resend"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
