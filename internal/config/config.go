package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const minSecretLength = 32

// Config holds the application configuration
type Config struct {
	Env      string
	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Mail     MailConfig
	Log      LogConfig
}

// HTTPConfig configures the listener and HTTP-only concerns.
type HTTPConfig struct {
	Port             string
	StaticDir        string
	RequestCodeLimit int
	VerifyCodeLimit  int
	RateWindow       time.Duration
}

// DatabaseConfig selects and configures the credential store.
type DatabaseConfig struct {
	Driver string
	URL    string
}

// AuthConfig holds the signing secret and lifetimes.
type AuthConfig struct {
	JWTSecret      string
	OTPTTL         time.Duration
	SessionTTL     time.Duration
	RevokeOnLogout bool
	SweepSchedule  string
}

// MailConfig configures the email sender.
type MailConfig struct {
	Driver  string
	From    string
	Timeout time.Duration
	Retries int
	SMTP    SMTPConfig
	Resend  ResendConfig
}

// SMTPConfig configures the smtp mail driver.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

// ResendConfig configures the resend mail driver.
type ResendConfig struct {
	APIKey   string
	Endpoint string
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string
	Format string
}

// Production reports whether the app runs in production mode.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from environment variables and, when path is
// non-empty, from the given config file. Environment variables win.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short names kept for compatibility with plain .env files.
	_ = v.BindEnv("http.port", "HTTP_PORT", "PORT")
	_ = v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("mail.resend.api_key", "MAIL_RESEND_API_KEY", "RESEND_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		Env: v.GetString("app.env"),
		HTTP: HTTPConfig{
			Port:             v.GetString("http.port"),
			StaticDir:        v.GetString("http.static_dir"),
			RequestCodeLimit: v.GetInt("http.request_code_limit"),
			VerifyCodeLimit:  v.GetInt("http.verify_code_limit"),
			RateWindow:       v.GetDuration("http.rate_window"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			URL:    strings.TrimSpace(v.GetString("database.url")),
		},
		Auth: AuthConfig{
			JWTSecret:      v.GetString("auth.jwt_secret"),
			OTPTTL:         v.GetDuration("auth.otp_ttl"),
			SessionTTL:     v.GetDuration("auth.session_ttl"),
			RevokeOnLogout: v.GetBool("auth.revoke_on_logout"),
			SweepSchedule:  v.GetString("auth.sweep_schedule"),
		},
		Mail: MailConfig{
			Driver:  strings.ToLower(v.GetString("mail.driver")),
			From:    v.GetString("mail.from"),
			Timeout: v.GetDuration("mail.timeout"),
			Retries: v.GetInt("mail.retries"),
			SMTP: SMTPConfig{
				Host:     v.GetString("mail.smtp.host"),
				Port:     v.GetInt("mail.smtp.port"),
				Username: v.GetString("mail.smtp.username"),
				Password: v.GetString("mail.smtp.password"),
			},
			Resend: ResendConfig{
				APIKey:   v.GetString("mail.resend.api_key"),
				Endpoint: v.GetString("mail.resend.endpoint"),
			},
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.static_dir", "")
	v.SetDefault("http.request_code_limit", 10)
	v.SetDefault("http.verify_code_limit", 20)
	v.SetDefault("http.rate_window", 10*time.Minute)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.otp_ttl", 10*time.Minute)
	v.SetDefault("auth.session_ttl", 7*24*time.Hour)
	v.SetDefault("auth.revoke_on_logout", false)
	v.SetDefault("auth.sweep_schedule", "@hourly")
	v.SetDefault("mail.driver", "console")
	v.SetDefault("mail.from", "Broker App <onboarding@resend.dev>")
	v.SetDefault("mail.timeout", 10*time.Second)
	v.SetDefault("mail.retries", 2)
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("mail.resend.api_key", "")
	v.SetDefault("mail.resend.endpoint", "https://api.resend.com/emails")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET (or JWT_SECRET) is required")
	}
	if len(c.Auth.JWTSecret) < minSecretLength {
		return fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	if c.Auth.OTPTTL <= 0 || c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.otp_ttl and auth.session_ttl must be positive")
	}

	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Mail.Driver {
	case "smtp":
		if c.Mail.SMTP.Host == "" || c.Mail.SMTP.Port == 0 {
			return fmt.Errorf("mail.smtp.host and mail.smtp.port are required for the smtp driver")
		}
	case "resend":
		if c.Mail.Resend.APIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required for the resend driver")
		}
	case "console":
	default:
		return fmt.Errorf("unknown mail driver %q", c.Mail.Driver)
	}
	if c.Mail.Timeout <= 0 {
		return fmt.Errorf("mail.timeout must be positive")
	}

	return nil
}
