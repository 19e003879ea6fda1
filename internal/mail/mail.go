// Package mail delivers transactional email. Senders are provider specific;
// Message is not.
package mail

import (
	"context"
	"errors"
)

var (
	// ErrNoRecipients is returned when a message has no To address.
	ErrNoRecipients = errors.New("no recipients provided")
	// ErrNoSender is returned when neither the message nor the sender has a From.
	ErrNoSender = errors.New("no sender provided")
	// ErrRejected marks a provider response that will not succeed on retry.
	ErrRejected = errors.New("message rejected by provider")
)

// Message represents an email payload.
type Message struct {
	// From is optional; senders fall back to their configured address.
	From     string
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender abstracts an email provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func resolveFrom(msg Message, fallback string) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipients
	}
	if msg.From != "" {
		return msg.From, nil
	}
	if fallback == "" {
		return "", ErrNoSender
	}
	return fallback, nil
}

// permanent reports whether retrying err is pointless.
func permanent(err error) bool {
	return errors.Is(err, ErrNoRecipients) ||
		errors.Is(err, ErrNoSender) ||
		errors.Is(err, ErrRejected) ||
		errors.Is(err, context.Canceled)
}
