package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type blockingJob struct {
	calls   int
	err     error
	release chan struct{}
	entered chan struct{}
	mu      sync.Mutex
}

func (j *blockingJob) Name() string { return "blocking" }

func (j *blockingJob) Run(context.Context) error {
	j.mu.Lock()
	j.calls++
	j.mu.Unlock()
	if j.entered != nil {
		close(j.entered)
		<-j.release
	}
	return j.err
}

func TestAddJob(t *testing.T) {
	s := NewCronScheduler(zap.NewNop())
	job := &blockingJob{}

	require.NoError(t, s.AddJob(job, "@hourly"))
	require.NoError(t, s.AddJob(job, "*/5 * * * *"))
	assert.Error(t, s.AddJob(job, "not a spec"))
	assert.Error(t, s.AddJob(job, "0 0 * * * *"), "seconds field is not accepted")

	s.Start(context.Background())
	s.Stop()
}

func TestWrap_SkipsOverlappingRun(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := NewCronScheduler(zap.New(core))
	job := &blockingJob{entered: make(chan struct{}), release: make(chan struct{})}
	run := s.wrap(job, "@every 1m")

	done := make(chan struct{})
	go func() {
		run()
		close(done)
	}()
	<-job.entered

	run()
	assert.Equal(t, 1, logs.FilterMessage("job skipped: still running").Len())

	close(job.release)
	<-done
	assert.Equal(t, 1, job.calls)
}

func TestWrap_LogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewCronScheduler(zap.New(core))
	job := &blockingJob{err: errors.New("db down")}

	s.wrap(job, "@hourly")()

	entries := logs.FilterMessage("job finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "blocking", entries[0].ContextMap()["job"])
}
