// --- START OF FINAL REVISED FILE pkg/formatter/formatter.go ---
package formatter

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Format runs jobs to completion and returns the aggregated report.
//
// When opts.Scheduler is nil, Format creates an EventLoop and drives it on
// the calling goroutine until the report is delivered. When a Scheduler is
// injected, it must be running on another goroutine; Format then only waits.
//
// Only configuration faults are returned as errors. Zero jobs produce a
// "nothing to format" report.
func Format(ctx context.Context, opts Options, jobs []*Job) (Report, error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return Report{}, err
	}
	logger := slog.New(resolved.Logger).With(slog.String("component", "formatter"))

	if len(jobs) == 0 {
		logger.Info("No jobs to run")
		report := NothingToDoReport()
		resolved.Reporter.StatusMessage(MessageNothingToDo)
		_ = resolved.EventHooks.OnRunComplete(report)
		return report, nil
	}

	if resolved.Scheduler != nil {
		orch, err := NewOrchestrator(resolved)
		if err != nil {
			return Report{}, err
		}
		run, err := orch.Start(ctx, jobs)
		if err != nil {
			return Report{}, err
		}
		return run.Wait(ctx)
	}

	loop := NewEventLoop()
	resolved.Scheduler = loop
	orch, err := NewOrchestrator(resolved)
	if err != nil {
		return Report{}, err
	}

	var (
		run      *Run
		startErr error
	)
	loop.Post(func() {
		run, startErr = orch.Start(ctx, jobs)
		if startErr != nil {
			loop.Stop()
			return
		}
		go func() {
			<-run.Done()
			loop.Stop()
		}()
	})
	if err := loop.Run(ctx); err != nil {
		logger.Warn("Event loop interrupted before the run completed", slog.Any("error", err))
		return Report{}, err
	}
	if startErr != nil {
		return Report{}, startErr
	}
	return run.Report(), nil
}

// NothingToDoReport is the report for an invocation without jobs.
func NothingToDoReport() Report {
	return Report{
		Summary: ReportSummary{
			StatusMessage: MessageNothingToDo,
			Timestamp:     time.Now(),
			SchemaVersion: ReportSchemaVersion,
		},
		Panel: PanelNoErrors,
	}
}

// MergeLoadResult folds files that never became jobs into a report.
func MergeLoadResult(report *Report, loaded LoadResult) {
	report.Skipped = append(report.Skipped, loaded.Skipped...)
	report.Summary.SkippedCount += len(loaded.Skipped)
	report.Errors = append(report.Errors, loaded.Errors...)
	report.Summary.FailedCount += len(loaded.Errors)
}

// IsNothingToDo reports whether err came from an empty batch.
func IsNothingToDo(err error) bool {
	return errors.Is(err, ErrNothingToDo)
}

// --- END OF FINAL REVISED FILE pkg/formatter/formatter.go ---
