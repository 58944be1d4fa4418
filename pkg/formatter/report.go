// --- START OF FINAL REVISED FILE pkg/formatter/report.go ---
package formatter

import "time"

// Reporter receives the user-facing output of a run. Calls happen on the
// scheduler goroutine.
type Reporter interface {
	// StatusMessage shows an ephemeral message; "" clears it.
	StatusMessage(msg string)
	// ShowPanel replaces the persistent diagnostics panel text and reveals it when reveal is true.
	ShowPanel(text string, reveal bool)
	// NewScratchView opens a new view holding text, used for preview diffs.
	NewScratchView(text string)
	// ReportError surfaces an I/O fault for one origin.
	ReportError(info ErrorInfo)
}

// NoOpReporter discards everything.
type NoOpReporter struct{}

// StatusMessage implements Reporter.
func (r *NoOpReporter) StatusMessage(msg string) {}

// ShowPanel implements Reporter.
func (r *NoOpReporter) ShowPanel(text string, reveal bool) {}

// NewScratchView implements Reporter.
func (r *NoOpReporter) NewScratchView(text string) {}

// ReportError implements Reporter.
func (r *NoOpReporter) ReportError(info ErrorInfo) {}

// Report summarizes the result of a single run.
type Report struct {
	Summary ReportSummary `json:"summary" yaml:"summary" toml:"summary"`
	Jobs    []JobInfo     `json:"jobs" yaml:"jobs" toml:"jobs"`
	Skipped []SkippedInfo `json:"skipped" yaml:"skipped" toml:"skipped"`
	Errors  []ErrorInfo   `json:"errors" yaml:"errors" toml:"errors"`
	// Diff is the concatenated preview diff, empty outside preview mode.
	Diff string `json:"diff,omitempty" yaml:"diff,omitempty" toml:"diff,omitempty"`
	// Panel is the diagnostics panel text.
	Panel string `json:"panel" yaml:"panel" toml:"panel"`
	// Diagnostics maps an origin label to its unresolved-issue block.
	Diagnostics map[string]string `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" toml:"diagnostics,omitempty"`
}

// ReportSummary contains aggregated statistics for a run.
type ReportSummary struct {
	Preview         bool      `json:"preview" yaml:"preview" toml:"preview"`
	HasChanges      bool      `json:"hasChanges" yaml:"hasChanges" toml:"hasChanges"`
	StatusMessage   string    `json:"statusMessage" yaml:"statusMessage" toml:"statusMessage"`
	TotalJobs       int       `json:"totalJobs" yaml:"totalJobs" toml:"totalJobs"`
	ChangedCount    int       `json:"changedCount" yaml:"changedCount" toml:"changedCount"`
	UnchangedCount  int       `json:"unchangedCount" yaml:"unchangedCount" toml:"unchangedCount"`
	FailedCount     int       `json:"failedCount" yaml:"failedCount" toml:"failedCount"`
	SkippedCount    int       `json:"skippedCount" yaml:"skippedCount" toml:"skippedCount"`
	NotFixedCount   int       `json:"notFixedCount" yaml:"notFixedCount" toml:"notFixedCount"`
	Workers         int       `json:"workers" yaml:"workers" toml:"workers"`
	DurationSeconds float64   `json:"durationSeconds" yaml:"durationSeconds" toml:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp" toml:"timestamp"`
	SchemaVersion   string    `json:"schemaVersion" yaml:"schemaVersion" toml:"schemaVersion"`
}

// JobInfo details the outcome of one job.
type JobInfo struct {
	Seq        int     `json:"seq" yaml:"seq" toml:"seq"`
	Origin     string  `json:"origin" yaml:"origin" toml:"origin"`
	Status     Status  `json:"status" yaml:"status" toml:"status"`
	NotFixed   []Issue `json:"notFixed,omitempty" yaml:"notFixed,omitempty" toml:"notFixed,omitempty"`
	Error      string  `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
	DurationMs int64   `json:"durationMs" yaml:"durationMs" toml:"durationMs"`
	WorkerID   int     `json:"workerID" yaml:"workerID" toml:"workerID"`
}

// Issue is one unresolved (rule, line) pair reported by the engine.
type Issue struct {
	Code string `json:"code" yaml:"code" toml:"code"`
	Line int    `json:"line" yaml:"line" toml:"line"`
}

// SkippedInfo details a file that was intentionally not turned into a job.
type SkippedInfo struct {
	Path    string `json:"path" yaml:"path" toml:"path"`
	Reason  string `json:"reason" yaml:"reason" toml:"reason"`
	Details string `json:"details,omitempty" yaml:"details,omitempty" toml:"details,omitempty"`
}

// ErrorInfo details an error tied to one origin.
type ErrorInfo struct {
	Path    string `json:"path" yaml:"path" toml:"path"`
	Error   string `json:"error" yaml:"error" toml:"error"`
	IsFatal bool   `json:"isFatal" yaml:"isFatal" toml:"isFatal"`
}

// --- END OF FINAL REVISED FILE pkg/formatter/report.go ---
