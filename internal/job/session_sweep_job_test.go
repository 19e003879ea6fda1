package job

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/brokerapp/server/internal/auth"
	"github.com/brokerapp/server/internal/clock"
	"github.com/brokerapp/server/internal/repo"
	"github.com/brokerapp/server/internal/schedule"
)

var _ schedule.Job = (*SessionSweepJob)(nil)

func TestSessionSweepJob(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	store := repo.NewMemory()

	user, err := store.Users().GetOrCreateByEmail(ctx, "sweep@example.com", clk.Now())
	require.NoError(t, err)

	tokens, err := auth.NewTokenService(strings.Repeat("x", 32), time.Hour, clk)
	require.NoError(t, err)
	sessions := auth.NewSessionManager(store.Sessions(), tokens, time.Hour, clk)

	_, err = sessions.CreateSession(ctx, user.ID)
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)
	_, err = sessions.CreateSession(ctx, user.ID)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.InfoLevel)
	job := NewSessionSweepJob(sessions, zap.New(core))
	assert.Equal(t, "session_sweep", job.Name())

	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 2, store.SessionCount())
	assert.Zero(t, logs.Len())

	clk.Advance(45 * time.Minute)
	require.NoError(t, job.Run(ctx))
	assert.Equal(t, 1, store.SessionCount())

	entries := logs.FilterMessage("expired sessions removed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["count"])
}

func TestSessionSweepJob_NilPurger(t *testing.T) {
	assert.NoError(t, NewSessionSweepJob(nil, zap.NewNop()).Run(context.Background()))
}

