package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestAddCronJob(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.AddCronJob("digest", "Newsletter digest", "0 9 * * 1", func(context.Context) error { return nil }))

	info, ok := s.GetJob("digest")
	require.True(t, ok)
	assert.Equal(t, "Newsletter digest", info.Name)
	assert.Equal(t, "0 9 * * 1", info.Schedule)
	assert.Equal(t, JobStatusScheduled, info.Status)

	err := s.AddCronJob("digest", "again", "0 9 * * 1", func(context.Context) error { return nil })
	assert.Error(t, err, "duplicate job IDs are rejected")

	err = s.AddCronJob("broken", "broken", "not a cron", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunJobNow(t *testing.T) {
	s := newTestScheduler(t)

	var runs atomic.Int32
	require.NoError(t, s.AddIntervalJob("purge", "Cache purge", time.Hour, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}))
	s.Start()

	require.NoError(t, s.RunJobNow("purge"))
	require.Eventually(t, func() bool {
		info, _ := s.GetJob("purge")
		return info.Status == JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	info, _ := s.GetJob("purge")
	assert.Equal(t, 1, info.RunCount)
	assert.Equal(t, int32(1), runs.Load())
	assert.False(t, info.LastRun.IsZero())

	assert.Error(t, s.RunJobNow("missing"))
}

func TestFailingJob(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.AddIntervalJob("fail", "Failing", time.Hour, func(context.Context) error {
		return errors.New("boom")
	}))
	s.Start()
	require.NoError(t, s.RunJobNow("fail"))

	require.Eventually(t, func() bool {
		info, _ := s.GetJob("fail")
		return info.Status == JobStatusFailed
	}, 5*time.Second, 10*time.Millisecond)

	info, _ := s.GetJob("fail")
	assert.Equal(t, 1, info.ErrorCount)
	assert.Equal(t, "boom", info.LastError)
}

func TestJobsSorted(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddIntervalJob("b", "B", time.Hour, noop))
	require.NoError(t, s.AddIntervalJob("a", "A", time.Hour, noop))

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].ID)
	assert.Equal(t, "every 1h0m0s", jobs[0].Schedule)
}
