package job

import (
	"context"

	"go.uber.org/zap"
)

// SessionPurger deletes sessions whose lifetime has ended.
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type SessionSweepJob struct {
	sessions SessionPurger
	logger   *zap.Logger
}

func NewSessionSweepJob(sessions SessionPurger, logger *zap.Logger) *SessionSweepJob {
	return &SessionSweepJob{sessions: sessions, logger: logger}
}

func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

func (j *SessionSweepJob) Run(ctx context.Context) error {
	if j.sessions == nil {
		return nil
	}
	n, err := j.sessions.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.logger.Info("expired sessions removed", zap.Int64("count", n))
	}
	return nil
}
