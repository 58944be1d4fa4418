package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/internal/cli/hooks"
	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// TestView_Initializing verifies the view output before initialization.
func TestView_Initializing(t *testing.T) { // minimal comment
	m := NewModel("1.0.0")
	assert.Equal(t, "Initializing...", m.View())
}

// TestView_Quitting verifies the view output when quitting.
func TestView_Quitting(t *testing.T) { // minimal comment
	m := newTestModel(80, 25)
	m.quitting = true
	assert.Equal(t, "Exiting...\n", m.View())
}

func TestView_Running(t *testing.T) {
	m := newTestModel(120, 20)
	m.Update(hooks.JobQueuedMsg{Key: "file:/src/a.py"})
	m.Update(hooks.JobStatusUpdateMsg{Key: "file:/src/a.py", Status: formatter.StatusChanged})
	m.Update(UpdateListMsg{})

	view := m.View()
	assert.Contains(t, view, "Stack Formatter v1.0.0")
	assert.Contains(t, view, formatter.MessageFormatting)
	assert.Contains(t, view, "/src/a.py")
	assert.Contains(t, view, "Changed: 1")
	assert.Contains(t, view, "Jobs: 1")
	assert.Contains(t, view, "q: quit")
}

func TestView_Complete(t *testing.T) {
	m := newTestModel(120, 20)
	m.Update(hooks.RunCompleteMsg{Report: formatter.Report{Summary: formatter.ReportSummary{
		TotalJobs:     2,
		FailedCount:   1,
		StatusMessage: formatter.MessageNoIssues,
	}}})

	view := m.View()
	assert.Contains(t, view, phaseComplete)
	assert.Contains(t, view, formatter.MessageNoIssues)
	assert.Contains(t, view, "Failed: 1")
	assert.NotContains(t, view, formatter.MessageFormatting)
}

func TestLineProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewLineProgress(&buf, 2)

	require.NoError(t, p.Add(1))
	assert.Contains(t, buf.String(), "1/2")
	require.NoError(t, p.Add(5))
	assert.Contains(t, buf.String(), "2/2", "progress is capped at total")

	require.NoError(t, p.Describe(formatter.MessageIssuesFixed))
	require.NoError(t, p.Close())
	out := buf.String()
	assert.True(t, strings.HasSuffix(out, formatter.MessageIssuesFixed+"\n"))
	assert.Equal(t, 4, strings.Count(out, "\r"))
}
