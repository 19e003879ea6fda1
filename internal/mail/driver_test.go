package mail

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brokerapp/server/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MailConfig
		want    any
		wantErr bool
	}{
		{"console", config.MailConfig{Driver: "console", From: "dev@x.io"}, &Writer{}, false},
		{"resend", config.MailConfig{Driver: "resend", Resend: config.ResendConfig{APIKey: "k"}}, &Resend{}, false},
		{"smtp", config.MailConfig{Driver: "smtp", SMTP: config.SMTPConfig{Host: "h", Port: 25}}, &SMTP{}, false},
		{"smtp without host", config.MailConfig{Driver: "smtp"}, nil, true},
		{"unknown", config.MailConfig{Driver: "pigeon"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg, io.Discard, zap.NewNop())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			r, ok := s.(*Retrying)
			require.True(t, ok)
			assert.IsType(t, tt.want, r.next)
		})
	}
}
