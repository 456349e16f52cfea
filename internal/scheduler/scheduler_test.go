package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/pitch-edge/internal/picks"
)

type stubRunner struct {
	runs int
}

func (r *stubRunner) Run(ctx context.Context) (*picks.RunSummary, error) {
	r.runs++
	return &picks.RunSummary{}, nil
}

func newTestScheduler() *Scheduler {
	base := logrus.New()
	base.SetOutput(io.Discard)
	return NewScheduler(base)
}

func TestSchedulePipelineRejectsBadSpec(t *testing.T) {
	s := newTestScheduler()
	err := s.SchedulePipeline("not a cron spec", &stubRunner{})
	assert.Error(t, err)
	assert.Empty(t, s.jobIDs)
}

func TestStartRequiresJobs(t *testing.T) {
	s := newTestScheduler()
	err := s.Start()
	assert.Error(t, err)
	assert.False(t, s.IsRunning())
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.SchedulePipeline("0 */6 * * *", &stubRunner{}))

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	assert.Error(t, s.Start(), "double start should fail")

	next := s.GetNextRun()
	assert.False(t, next.IsZero())
	assert.True(t, next.After(time.Now().Add(-time.Minute)))

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.NoError(t, s.Stop(), "stop is idempotent")
}

func TestCannotScheduleWhileRunning(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.SchedulePipeline("0 */6 * * *", &stubRunner{}))
	require.NoError(t, s.Start())
	defer s.Stop()

	err := s.SchedulePipeline("0 * * * *", &stubRunner{})
	assert.Error(t, err)

	err = s.ScheduleResultsSync("0 4 * * *", "football-data", func(ctx context.Context, start, end time.Time) error {
		return nil
	})
	assert.Error(t, err)
}

func TestScheduleResultsSync(t *testing.T) {
	s := newTestScheduler()
	err := s.ScheduleResultsSync("0 4 * * *", "football-data", func(ctx context.Context, start, end time.Time) error {
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Len(t, s.Entries(), 1)
}
