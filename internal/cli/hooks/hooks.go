// --- START OF FINAL REVISED FILE internal/cli/hooks/hooks.go ---
package hooks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// --- TUI Message Structs ---

// JobQueuedMsg signals that a job entered the queue.
type JobQueuedMsg struct{ Key string }

// JobStatusUpdateMsg signals a change in a job's processing status.
type JobStatusUpdateMsg struct {
	Key      string
	Status   formatter.Status
	Message  string
	Duration time.Duration
}

// RunCompleteMsg signals the completion of the entire formatting run.
type RunCompleteMsg struct{ Report formatter.Report }

// --- Hook Implementation ---

// CLIHooks implements formatter.Hooks. Events go to exactly one surface: the
// TUI when enabled, else the verbose log, else the progress bar. Failures are
// logged outside the TUI either way. Methods are called from worker goroutines.
type CLIHooks struct {
	logger         *slog.Logger
	tuiEnabled     bool
	verboseEnabled bool
	tuiProgram     TUIProgram
	progressBar    ProgressBar
	mu             sync.Mutex // guards progressBar
}

// TUIProgram defines the interface needed to interact with the Bubble Tea program.
type TUIProgram interface {
	Send(msg interface{})
}

// ProgressBar defines the interface needed to interact with the progress bar.
type ProgressBar interface {
	Add(num int) error
	Describe(description string) error
	Close() error
}

type noopProgram struct{}

func (noopProgram) Send(msg interface{}) {}

// --- Constructor ---

// NewCLIHooks creates a new CLIHooks instance. Pass nil for tuiProg or
// progBar when not applicable.
func NewCLIHooks(logger *slog.Logger, tuiEnabled, verboseEnabled bool, tuiProg TUIProgram, progBar ProgressBar) *CLIHooks {
	if tuiProg == nil {
		tuiProg = noopProgram{}
	}
	return &CLIHooks{
		logger:         logger.With(slog.String("component", "hooks")),
		tuiEnabled:     tuiEnabled,
		verboseEnabled: verboseEnabled,
		tuiProgram:     tuiProg,
		progressBar:    progBar,
	}
}

var _ formatter.Hooks = (*CLIHooks)(nil)

// --- Interface Method Implementations ---

// OnJobQueued implements formatter.Hooks.
func (h *CLIHooks) OnJobQueued(key string) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(JobQueuedMsg{Key: key})
	} else if h.verboseEnabled {
		h.logger.Debug("Job queued", slog.String("origin", key))
	}
	return nil
}

// OnJobStatusUpdate implements formatter.Hooks.
func (h *CLIHooks) OnJobStatusUpdate(key string, status formatter.Status, message string, duration time.Duration) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(JobStatusUpdateMsg{Key: key, Status: status, Message: message, Duration: duration})
		return nil
	}

	if h.verboseEnabled {
		level, msg := statusLevel(status)
		attrs := []any{slog.String("origin", key), slog.String("status", string(status))}
		if duration > 0 {
			attrs = append(attrs, slog.Duration("duration", duration))
		}
		if message != "" {
			logKey := "message"
			if status == formatter.StatusFailed {
				logKey = "error"
			}
			attrs = append(attrs, slog.String(logKey, message))
		}
		h.logger.Log(context.Background(), level, msg, attrs...)
		return nil
	}

	if h.progressBar != nil && status.IsFinal() {
		h.mu.Lock()
		_ = h.progressBar.Add(1)
		h.mu.Unlock()
	}
	// failures are logged in every non-TUI mode
	if status == formatter.StatusFailed {
		h.logger.Error("Job failed", slog.String("origin", key), slog.String("error", message))
	}
	return nil
}

// OnRunComplete implements formatter.Hooks.
func (h *CLIHooks) OnRunComplete(report formatter.Report) error {
	if h.tuiEnabled {
		h.tuiProgram.Send(RunCompleteMsg{Report: report})
		return nil
	}
	if h.progressBar != nil {
		h.mu.Lock()
		_ = h.progressBar.Describe(report.Summary.StatusMessage)
		_ = h.progressBar.Close()
		h.mu.Unlock()
	}
	if h.verboseEnabled {
		sum := report.Summary
		h.logger.Info("Run complete",
			slog.String("status", sum.StatusMessage),
			slog.Int("jobs", sum.TotalJobs),
			slog.Int("changed", sum.ChangedCount),
			slog.Int("failed", sum.FailedCount),
			slog.Int("notFixed", sum.NotFixedCount),
			slog.Bool("preview", sum.Preview),
		)
	}
	return nil
}

// statusLevel maps a job status to the verbose log level and message.
func statusLevel(status formatter.Status) (slog.Level, string) {
	switch status {
	case formatter.StatusFailed:
		return slog.LevelError, "Job failed"
	case formatter.StatusChanged, formatter.StatusUnchanged, formatter.StatusCached, formatter.StatusSkipped:
		return slog.LevelInfo, "Job status updated"
	}
	return slog.LevelDebug, "Job status updated"
}

// --- END OF FINAL REVISED FILE internal/cli/hooks/hooks.go ---
