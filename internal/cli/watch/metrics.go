package watch

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

const metricsNamespace = "stackformatter"

// Metrics records pipeline and watch activity in its own prometheus registry.
// It implements formatter.Hooks and is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	jobsQueued        prometheus.Counter
	jobsFinished      *prometheus.CounterVec
	jobDuration       prometheus.Histogram
	runs              *prometheus.CounterVec
	notFixed          prometheus.Counter
	batches           prometheus.Counter
	batchFiles        prometheus.Histogram
	selfWritesIgnored prometheus.Counter
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_queued_total",
			Help:      "Jobs handed to the worker pool.",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_finished_total",
			Help:      "Jobs that reached a final status, by status.",
		}, []string{"status"}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "job_duration_seconds",
			Help:      "Engine time per job.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Completed runs, by outcome.",
		}, []string{"outcome"}),
		notFixed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "not_fixed_total",
			Help:      "Unresolved issues reported by the engine.",
		}),
		batches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "watch_batches_total",
			Help:      "Debounced batches triggered by file events.",
		}),
		batchFiles: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "watch_batch_files",
			Help:      "Files per watch batch.",
			Buckets:   prometheus.LinearBuckets(1, 2, 6),
		}),
		selfWritesIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "watch_self_writes_ignored_total",
			Help:      "File events dropped because the formatter wrote the file.",
		}),
	}
	m.registry.MustRegister(
		m.jobsQueued, m.jobsFinished, m.jobDuration, m.runs,
		m.notFixed, m.batches, m.batchFiles, m.selfWritesIgnored,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// OnJobQueued implements formatter.Hooks.
func (m *Metrics) OnJobQueued(key string) error {
	m.jobsQueued.Inc()
	return nil
}

// OnJobStatusUpdate implements formatter.Hooks. Only final statuses are counted.
func (m *Metrics) OnJobStatusUpdate(key string, status formatter.Status, message string, duration time.Duration) error {
	if !status.IsFinal() {
		return nil
	}
	m.jobsFinished.WithLabelValues(string(status)).Inc()
	if duration > 0 {
		m.jobDuration.Observe(duration.Seconds())
	}
	return nil
}

// OnRunComplete implements formatter.Hooks.
func (m *Metrics) OnRunComplete(report formatter.Report) error {
	outcome := "clean"
	switch {
	case report.Summary.TotalJobs == 0:
		outcome = "empty"
	case report.Summary.FailedCount > 0:
		outcome = "failed"
	case report.Summary.HasChanges:
		outcome = "changed"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.notFixed.Add(float64(report.Summary.NotFixedCount))
	return nil
}

func (m *Metrics) observeBatch(files int) {
	m.batches.Inc()
	m.batchFiles.Observe(float64(files))
}

func (m *Metrics) observeSelfWrite() {
	m.selfWritesIgnored.Inc()
}
