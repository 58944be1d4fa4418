// --- START OF FINAL REVISED FILE internal/cli/hooks/hooks_test.go ---
package hooks

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// --- Mock Implementations ---

type MockTUIProgram struct {
	mock.Mock
}

// Send mocks the Send method.
func (m *MockTUIProgram) Send(msg interface{}) { // minimal comment
	m.Called(msg)
}

type MockProgressBar struct {
	mock.Mock
}

// Add mocks the Add method.
func (m *MockProgressBar) Add(num int) error { // minimal comment
	args := m.Called(num)
	return args.Error(0)
}

// Describe mocks the Describe method.
func (m *MockProgressBar) Describe(description string) error { // minimal comment
	args := m.Called(description)
	return args.Error(0)
}

// Close mocks the Close method.
func (m *MockProgressBar) Close() error { // minimal comment
	args := m.Called()
	return args.Error(0)
}

func jsonLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})), buf
}

// --- Test Suite ---

func TestCLIHooks_OnJobQueued(t *testing.T) {
	const key = "file:/src/main.py"

	t.Run("TUI Enabled", func(t *testing.T) {
		mockTUI := new(MockTUIProgram)
		mockTUI.On("Send", JobQueuedMsg{Key: key}).Once()
		logger, logBuf := jsonLogger(slog.LevelDebug)

		require.NoError(t, NewCLIHooks(logger, true, false, mockTUI, nil).OnJobQueued(key))
		mockTUI.AssertExpectations(t)
		assert.Empty(t, logBuf.String())
	})

	t.Run("Verbose Enabled", func(t *testing.T) {
		mockTUI := new(MockTUIProgram)
		logger, logBuf := jsonLogger(slog.LevelDebug)

		require.NoError(t, NewCLIHooks(logger, false, true, mockTUI, nil).OnJobQueued(key))
		mockTUI.AssertNotCalled(t, "Send", mock.Anything)
		assert.Contains(t, logBuf.String(), `"msg":"Job queued"`)
		assert.Contains(t, logBuf.String(), `"origin":"`+key+`"`)
		assert.Contains(t, logBuf.String(), `"component":"hooks"`)
	})

	t.Run("Quiet", func(t *testing.T) {
		logger, logBuf := jsonLogger(slog.LevelDebug)
		require.NoError(t, NewCLIHooks(logger, false, false, nil, nil).OnJobQueued(key))
		assert.Empty(t, logBuf.String())
	})
}

func TestCLIHooks_OnJobStatusUpdate(t *testing.T) {
	const key = "file:/src/file.py"
	testDuration := 50 * time.Millisecond

	t.Run("TUI Enabled", func(t *testing.T) {
		mockTUI := new(MockTUIProgram)
		mockTUI.On("Send", mock.MatchedBy(func(msg JobStatusUpdateMsg) bool {
			return msg.Key == key && msg.Status == formatter.StatusChanged && msg.Duration == testDuration
		})).Once()
		logger, logBuf := jsonLogger(slog.LevelDebug)

		hooks := NewCLIHooks(logger, true, false, mockTUI, nil)
		require.NoError(t, hooks.OnJobStatusUpdate(key, formatter.StatusChanged, "", testDuration))
		mockTUI.AssertExpectations(t)
		assert.Empty(t, logBuf.String())
	})

	t.Run("Verbose Enabled", func(t *testing.T) {
		logger, logBuf := jsonLogger(slog.LevelDebug)
		hooks := NewCLIHooks(logger, false, true, nil, nil)

		testCases := []struct {
			status        formatter.Status
			message       string
			expectedLevel string
			expectedMsg   string
			checkKey      string
		}{
			{formatter.StatusProcessing, "starting", "DEBUG", "Job status updated", "message"},
			{formatter.StatusChanged, "ok", "INFO", "Job status updated", "message"},
			{formatter.StatusUnchanged, "clean", "INFO", "Job status updated", "message"},
			{formatter.StatusFailed, "engine crashed", "ERROR", "Job failed", "error"},
		}
		for _, tc := range testCases {
			logBuf.Reset()
			require.NoError(t, hooks.OnJobStatusUpdate(key, tc.status, tc.message, testDuration))
			out := logBuf.String()
			assert.Contains(t, out, `"level":"`+tc.expectedLevel+`"`)
			assert.Contains(t, out, `"msg":"`+tc.expectedMsg+`"`)
			assert.Contains(t, out, `"status":"`+string(tc.status)+`"`)
			assert.Contains(t, out, `"`+tc.checkKey+`":"`+tc.message+`"`)
			assert.Contains(t, out, `"duration":`)
		}
	})

	t.Run("Progress Bar Enabled", func(t *testing.T) {
		mockProgress := new(MockProgressBar)
		mockProgress.On("Add", 1).Return(nil).Times(3)
		logger, logBuf := jsonLogger(slog.LevelError)
		hooks := NewCLIHooks(logger, false, false, nil, mockProgress)

		require.NoError(t, hooks.OnJobStatusUpdate(key, formatter.StatusProcessing, "", 0))
		require.NoError(t, hooks.OnJobStatusUpdate(key, formatter.StatusChanged, "", testDuration))
		require.NoError(t, hooks.OnJobStatusUpdate(key, formatter.StatusUnchanged, "", testDuration))
		assert.Empty(t, logBuf.String())

		require.NoError(t, hooks.OnJobStatusUpdate(key, formatter.StatusFailed, "boom", testDuration))
		assert.Contains(t, logBuf.String(), `"msg":"Job failed"`)
		assert.Contains(t, logBuf.String(), `"error":"boom"`)
		mockProgress.AssertExpectations(t)
	})

	t.Run("Standard Log Mode", func(t *testing.T) {
		logger, logBuf := jsonLogger(slog.LevelInfo)
		hooks := NewCLIHooks(logger, false, false, nil, nil)

		require.NoError(t, hooks.OnJobStatusUpdate(key, formatter.StatusChanged, "", testDuration))
		assert.Empty(t, logBuf.String())
		require.NoError(t, hooks.OnJobStatusUpdate(key, formatter.StatusFailed, "boom", testDuration))
		assert.Contains(t, logBuf.String(), `"level":"ERROR"`)
	})
}

func TestCLIHooks_OnRunComplete(t *testing.T) {
	report := formatter.Report{Summary: formatter.ReportSummary{TotalJobs: 2, StatusMessage: formatter.MessageIssuesFixed}}

	t.Run("TUI Enabled", func(t *testing.T) {
		mockTUI := new(MockTUIProgram)
		mockTUI.On("Send", RunCompleteMsg{Report: report}).Once()
		logger, _ := jsonLogger(slog.LevelDebug)
		require.NoError(t, NewCLIHooks(logger, true, false, mockTUI, nil).OnRunComplete(report))
		mockTUI.AssertExpectations(t)
	})

	t.Run("Progress Bar Closed", func(t *testing.T) {
		mockProgress := new(MockProgressBar)
		mockProgress.On("Describe", formatter.MessageIssuesFixed).Return(nil).Once()
		mockProgress.On("Close").Return(nil).Once()
		logger, _ := jsonLogger(slog.LevelDebug)
		require.NoError(t, NewCLIHooks(logger, false, false, nil, mockProgress).OnRunComplete(report))
		mockProgress.AssertExpectations(t)
	})

	t.Run("Verbose Summary", func(t *testing.T) {
		logger, logBuf := jsonLogger(slog.LevelDebug)
		require.NoError(t, NewCLIHooks(logger, false, true, nil, nil).OnRunComplete(report))
		assert.Contains(t, logBuf.String(), `"msg":"Run complete"`)
		assert.Contains(t, logBuf.String(), `"jobs":2`)
		assert.Contains(t, logBuf.String(), `"status":"`+formatter.MessageIssuesFixed+`"`)
	})

	t.Run("Quiet", func(t *testing.T) {
		logger, logBuf := jsonLogger(slog.LevelDebug)
		require.NoError(t, NewCLIHooks(logger, false, false, nil, nil).OnRunComplete(report))
		assert.Empty(t, logBuf.String())
	})
}

func TestStatusLevel(t *testing.T) {
	level, msg := statusLevel(formatter.StatusFailed)
	assert.Equal(t, slog.LevelError, level)
	assert.Equal(t, "Job failed", msg)

	level, _ = statusLevel(formatter.StatusCached)
	assert.Equal(t, slog.LevelInfo, level)

	level, _ = statusLevel(formatter.StatusQueued)
	assert.Equal(t, slog.LevelDebug, level)
}

// --- END OF FINAL REVISED FILE internal/cli/hooks/hooks_test.go ---
