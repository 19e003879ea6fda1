package mail

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const retryBase = 200 * time.Millisecond

// Retrying wraps a Sender and retries transient failures with exponential
// backoff. The caller's context bounds the total time spent.
type Retrying struct {
	next    Sender
	retries uint64
	base    time.Duration
	logger  *zap.Logger
}

// NewRetrying wraps next with up to retries additional attempts.
func NewRetrying(next Sender, retries int, logger *zap.Logger) *Retrying {
	if retries < 0 {
		retries = 0
	}
	return &Retrying{next: next, retries: uint64(retries), base: retryBase, logger: logger}
}

func (r *Retrying) Send(ctx context.Context, msg Message) error {
	b := retry.WithMaxRetries(r.retries, retry.NewExponential(r.base))

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := r.next.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if permanent(err) {
			return err
		}
		r.logger.Warn("mail send failed", zap.Int("attempt", attempt), zap.Error(err))
		return retry.RetryableError(err)
	})
}
