package mail

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Writer prints messages to an io.Writer instead of delivering them. It is
// the development driver.
type Writer struct {
	mu   sync.Mutex
	w    io.Writer
	from string
}

// NewWriter returns a Writer sender printing to w.
func NewWriter(w io.Writer, from string) *Writer {
	return &Writer{w: w, from: from}
}

func (s *Writer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	from, err := resolveFrom(msg, s.from)
	if err != nil {
		return err
	}
	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintf(s.w, "From: %s\nTo: %s\nSubject: %s\n\n%s\n---\n",
		from, strings.Join(msg.To, ", "), msg.Subject, body)
	return err
}
