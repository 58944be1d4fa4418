package watch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

func TestMetrics_Hooks(t *testing.T) {
	m := NewMetrics()
	var hooks formatter.Hooks = m

	require.NoError(t, hooks.OnJobQueued("file:/a.py"))
	require.NoError(t, hooks.OnJobQueued("file:/b.py"))
	require.NoError(t, hooks.OnJobStatusUpdate("file:/a.py", formatter.StatusProcessing, "", 0))
	require.NoError(t, hooks.OnJobStatusUpdate("file:/a.py", formatter.StatusChanged, "", 10*time.Millisecond))
	require.NoError(t, hooks.OnJobStatusUpdate("file:/b.py", formatter.StatusFailed, "boom", 0))
	require.NoError(t, hooks.OnRunComplete(formatter.Report{Summary: formatter.ReportSummary{
		TotalJobs: 2, ChangedCount: 1, FailedCount: 1, HasChanges: true, NotFixedCount: 3,
	}}))
	require.NoError(t, hooks.OnRunComplete(formatter.NothingToDoReport()))

	assert.Equal(t, float64(2), promtestutil.ToFloat64(m.jobsQueued))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.jobsFinished.WithLabelValues("changed")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.jobsFinished.WithLabelValues("failed")))
	assert.Equal(t, float64(0), promtestutil.ToFloat64(m.jobsFinished.WithLabelValues("processing")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.runs.WithLabelValues("failed")))
	assert.Equal(t, float64(1), promtestutil.ToFloat64(m.runs.WithLabelValues("empty")))
	assert.Equal(t, float64(3), promtestutil.ToFloat64(m.notFixed))
}

func TestMetricsServer(t *testing.T) {
	m := NewMetrics()
	_ = m.OnJobQueued("file:/a.py")

	srv, err := NewMetricsServer("127.0.0.1:0", m, slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	base := "http://" + srv.Addr()
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, "stackformatter_jobs_queued_total 1")

	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "OK\n", string(data))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestNewMetricsServer_BadAddress(t *testing.T) {
	_, err := NewMetricsServer("256.0.0.1:bad", NewMetrics(), slog.NewTextHandler(io.Discard, nil))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to listen"))
}
