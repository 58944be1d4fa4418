package formatter_test

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/internal/testutil"
	"github.com/stackvity/stack-formatter/pkg/formatter"
)

func previewJobs(t *testing.T, n int) []*formatter.Job {
	t.Helper()
	opts := testutil.MustFormatOptions(t, func(c *formatter.FormatOptionsConfig) { c.Preview = true })
	jobs := make([]*formatter.Job, 0, n)
	for i := 0; i < n; i++ {
		job, err := formatter.NewJob(i, fmt.Sprintf("x = %d\n", i), formatter.FileOrigin{Path: fmt.Sprintf("f%02d.py", i)}, opts)
		require.NoError(t, err)
		jobs = append(jobs, job)
	}
	return jobs
}

func isDone(run *formatter.Run) func() bool {
	return func() bool {
		select {
		case <-run.Done():
			return true
		default:
			return false
		}
	}
}

func TestNewOrchestrator_Validation(t *testing.T) {
	engine := formatter.EngineFunc(func(_ context.Context, s string, _ *formatter.FormatOptions, _ io.Writer) (string, error) { return s, nil })
	sched := &testutil.ManualScheduler{}
	testCases := []struct {
		name string
		opts formatter.Options
	}{
		{"no engine", formatter.Options{Logger: testutil.DiscardLogger(), Scheduler: sched}},
		{"no logger", formatter.Options{Engine: engine, Scheduler: sched}},
		{"no scheduler", formatter.Options{Engine: engine, Logger: testutil.DiscardLogger()}},
		{"negative workers", formatter.Options{Engine: engine, Logger: testutil.DiscardLogger(), Scheduler: sched, MaxWorkers: -1}},
		{"negative poll interval", formatter.Options{Engine: engine, Logger: testutil.DiscardLogger(), Scheduler: sched, PollInterval: -time.Second}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := formatter.NewOrchestrator(tc.opts)
			assert.ErrorIs(t, err, formatter.ErrConfigValidation)
		})
	}
}

func TestOrchestrator_Start_NoJobs(t *testing.T) {
	sched := &testutil.ManualScheduler{}
	orch, err := formatter.NewOrchestrator(formatter.Options{
		Engine:    formatter.EngineFunc(func(context.Context, string, *formatter.FormatOptions, io.Writer) (string, error) { return "", nil }),
		Logger:    testutil.DiscardLogger(),
		Scheduler: sched,
	})
	require.NoError(t, err)

	run, err := orch.Start(context.Background(), nil)
	assert.ErrorIs(t, err, formatter.ErrNothingToDo)
	assert.True(t, formatter.IsNothingToDo(err))
	assert.Nil(t, run)
	assert.Zero(t, sched.Pending())
}

// 5 jobs over 2 workers: the first poll sees both workers busy and 3 jobs
// still queued; all 5 results arrive once both stop.
func TestOrchestrator_BoundedWorkers(t *testing.T) {
	started := make(chan struct{}, 5)
	gate := make(chan struct{})
	engine := formatter.EngineFunc(func(_ context.Context, source string, _ *formatter.FormatOptions, _ io.Writer) (string, error) {
		started <- struct{}{}
		<-gate
		return source, nil
	})
	sched := &testutil.ManualScheduler{}
	reporter := &testutil.RecordingReporter{}
	orch, err := formatter.NewOrchestrator(formatter.Options{
		Engine:       engine,
		Logger:       testutil.DiscardLogger(),
		Scheduler:    sched,
		Reporter:     reporter,
		MaxWorkers:   2,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	run, err := orch.Start(context.Background(), previewJobs(t, 5))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("workers did not start")
		}
	}

	assert.Equal(t, 2, run.Workers())
	require.True(t, sched.RunNext(), "first poll")
	assert.Equal(t, 3, run.QueuedJobs())
	assert.Equal(t, 2, run.Queue().PendingSentinels())
	assert.Equal(t, 1, sched.Pending(), "poll rescheduled while workers are alive")
	assert.False(t, isDone(run)())

	close(gate)
	require.NoError(t, sched.RunUntil(isDone(run), 5*time.Second))

	report := run.Report()
	assert.Len(t, report.Jobs, 5)
	assert.Equal(t, 2, report.Summary.Workers)
	assert.Equal(t, 5, report.Summary.TotalJobs)
	assert.Zero(t, run.QueuedJobs())
	assert.True(t, run.Queue().IsEmpty())
	assert.Equal(t, 10*time.Millisecond, sched.Delays()[0])

	statuses, _, _, _ := reporter.Snapshot()
	assert.Equal(t, formatter.MessageFormatting, statuses[0])
	assert.Equal(t, formatter.MessageNoIssues, statuses[len(statuses)-1])
}

func TestOrchestrator_FewerJobsThanWorkers(t *testing.T) {
	sched := &testutil.ManualScheduler{}
	orch, err := formatter.NewOrchestrator(formatter.Options{
		Engine:     formatter.EngineFunc(func(_ context.Context, s string, _ *formatter.FormatOptions, _ io.Writer) (string, error) { return s, nil }),
		Logger:     testutil.DiscardLogger(),
		Scheduler:  sched,
		MaxWorkers: 8,
	})
	require.NoError(t, err)

	run, err := orch.Start(context.Background(), previewJobs(t, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, run.Workers())
	require.NoError(t, sched.RunUntil(isDone(run), 5*time.Second))
	assert.Len(t, run.Report().Jobs, 3)
}

func TestOrchestrator_HooksSeeEveryJob(t *testing.T) {
	hooks := &testutil.MockHooks{}
	hooks.On("OnJobQueued", mock.Anything).Return(nil).Times(4)
	hooks.On("OnJobStatusUpdate", mock.Anything, formatter.StatusProcessing, "", time.Duration(0)).Return(nil).Times(4)
	hooks.On("OnJobStatusUpdate", mock.Anything, formatter.StatusUnchanged, "", mock.Anything).Return(nil).Times(4)
	hooks.On("OnRunComplete", mock.Anything).Return(nil).Once()

	sched := &testutil.ManualScheduler{}
	orch, err := formatter.NewOrchestrator(formatter.Options{
		Engine:     formatter.EngineFunc(func(_ context.Context, s string, _ *formatter.FormatOptions, _ io.Writer) (string, error) { return s, nil }),
		Logger:     testutil.DiscardLogger(),
		Scheduler:  sched,
		EventHooks: hooks,
		MaxWorkers: 2,
	})
	require.NoError(t, err)
	run, err := orch.Start(context.Background(), previewJobs(t, 4))
	require.NoError(t, err)
	require.NoError(t, sched.RunUntil(isDone(run), 5*time.Second))
	hooks.AssertExpectations(t)
}
