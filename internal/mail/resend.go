package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultResendEndpoint is the Resend send-email API.
const DefaultResendEndpoint = "https://api.resend.com/emails"

// Resend sends email through the Resend HTTP API.
type Resend struct {
	apiKey   string
	endpoint string
	from     string
	client   *http.Client
}

// NewResend creates a Resend sender. An empty endpoint uses DefaultResendEndpoint
// and a nil client uses http.DefaultClient.
func NewResend(apiKey, endpoint, from string, client *http.Client) *Resend {
	if endpoint == "" {
		endpoint = DefaultResendEndpoint
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Resend{apiKey: apiKey, endpoint: endpoint, from: from, client: client}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send posts msg to the API. 4xx responses other than 429 are wrapped in
// ErrRejected.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	from, err := resolveFrom(msg, r.from)
	if err != nil {
		return err
	}

	body, err := json.Marshal(resendPayload{
		From:    from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal Resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create Resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("Resend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return fmt.Errorf("Resend returned status %d: %s: %w", resp.StatusCode, respBody, ErrRejected)
		}
		return fmt.Errorf("Resend returned status %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
