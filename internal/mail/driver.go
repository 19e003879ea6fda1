package mail

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/brokerapp/server/internal/config"
)

// New builds the configured sender wrapped with retries. console receives
// output of the console driver.
func New(cfg config.MailConfig, console io.Writer, logger *zap.Logger) (Sender, error) {
	var base Sender
	switch cfg.Driver {
	case "smtp":
		s, err := NewSMTP(SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.From,
		})
		if err != nil {
			return nil, err
		}
		base = s
	case "resend":
		base = NewResend(cfg.Resend.APIKey, cfg.Resend.Endpoint, cfg.From, nil)
	case "console":
		base = NewWriter(console, cfg.From)
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.Driver)
	}
	logger.Info("mail sender ready", zap.String("driver", cfg.Driver))
	return NewRetrying(base, cfg.Retries, logger), nil
}
