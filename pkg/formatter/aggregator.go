// --- START OF FINAL REVISED FILE pkg/formatter/aggregator.go ---
package formatter

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// seqText keeps a piece of output together with the job sequence it came from.
type seqText struct {
	seq   int
	label string
	text  string
}

// ResultAggregator folds job results into one report. All methods run on the
// scheduler goroutine; no locking is needed.
type ResultAggregator struct {
	opts     Options
	applier  *ChangeApplier
	logger   *slog.Logger
	start    time.Time
	workers  int
	total    int
	finished bool

	hasChanges bool
	preview    bool
	diffs      []seqText
	notFixed   map[string]seqText
	jobs       []JobInfo
	errors     []ErrorInfo
	summary    ReportSummary
	final      Report
}

// NewResultAggregator creates an aggregator for a run of total jobs.
func NewResultAggregator(opts Options, applier *ChangeApplier, total, workers int) *ResultAggregator {
	return &ResultAggregator{
		opts:     opts,
		applier:  applier,
		logger:   slog.New(opts.Logger).With(slog.String("component", "aggregator")),
		start:    time.Now(),
		workers:  workers,
		total:    total,
		notFixed: make(map[string]seqText),
	}
}

// Add folds one result. Changed results are applied immediately outside preview mode.
func (a *ResultAggregator) Add(r JobResult) {
	if a.finished {
		a.logger.Error("Result added after run finished, ignoring", slog.String("origin", r.Origin.Key()))
		return
	}
	key := r.Origin.Key()
	label := r.Origin.Label()
	info := JobInfo{
		Seq:        r.Seq,
		Origin:     label,
		Status:     StatusUnchanged,
		DurationMs: r.Duration.Milliseconds(),
		WorkerID:   r.WorkerID,
	}
	if r.Preview {
		a.preview = true
	}

	// a faulted job has no meaningful diagnostics-derived output
	if issues := FindNotFixed(r.Diagnostics); r.Fault == nil && len(issues) > 0 {
		info.NotFixed = issues
		a.summary.NotFixedCount += len(issues)
		a.notFixed[key] = seqText{seq: r.Seq, label: label, text: FormatNotFixed(label, issues)}
	}

	switch {
	case r.Fault != nil:
		info.Status = StatusFailed
		info.Error = r.Fault.Error()
		a.errors = append(a.errors, ErrorInfo{Path: label, Error: r.Fault.Error()})
		a.summary.FailedCount++

	case r.Changed && r.Preview:
		info.Status = StatusChanged
		a.diffs = append(a.diffs, seqText{seq: r.Seq, label: label, text: r.Diff})
		a.hasChanges = true
		a.summary.ChangedCount++

	case r.Changed:
		applied, err := a.applier.Apply(r)
		if err != nil {
			info.Status = StatusFailed
			info.Error = err.Error()
			errInfo := ErrorInfo{Path: label, Error: err.Error()}
			a.errors = append(a.errors, errInfo)
			a.opts.Reporter.ReportError(errInfo)
			a.summary.FailedCount++
			a.logger.Error("Failed to apply change", slog.String("origin", key), slog.Any("error", err))
			break
		}
		if applied {
			info.Status = StatusChanged
			a.hasChanges = true
			a.summary.ChangedCount++
		} else {
			a.summary.UnchangedCount++
		}
		a.rememberClean(r, r.NewText)

	default:
		a.summary.UnchangedCount++
		if r.NewText != "" && r.NewText == r.OriginalText {
			a.rememberClean(r, r.OriginalText)
		}
	}

	a.jobs = append(a.jobs, info)
}

// rememberClean records a file whose on-disk content now equals engine output.
func (a *ResultAggregator) rememberClean(r JobResult, text string) {
	fo, ok := r.Origin.(FileOrigin)
	if !ok || r.Options == nil {
		return
	}
	if err := a.opts.CacheManager.Update(fo.Path, ContentHash(text), r.Options.Fingerprint()); err != nil {
		a.logger.Warn("Failed to update cache entry", slog.String("path", fo.Path), slog.Any("error", err))
	}
}

// HasChanges is the OR over every folded result.
func (a *ResultAggregator) HasChanges() bool { return a.hasChanges }

// Finish delivers the report exactly once: scratch view, panel, status message,
// delayed status clear and OnRunComplete. Later calls return the same report.
func (a *ResultAggregator) Finish(scheduler Scheduler) Report {
	if a.finished {
		return a.final
	}
	a.finished = true

	diff := a.mergedDiff()
	if diff != "" {
		a.opts.Reporter.NewScratchView(diff)
	}

	panel, reveal := a.panel()
	a.opts.Reporter.ShowPanel(panel, reveal)

	msg := MessageNoIssues
	switch {
	case a.hasChanges && a.preview:
		msg = MessageIssuesFound
	case a.hasChanges:
		msg = MessageIssuesFixed
	}
	a.opts.Reporter.StatusMessage(msg)
	if a.opts.StatusClearDelay > 0 && scheduler != nil {
		reporter := a.opts.Reporter
		scheduler.SetTimeout(func() { reporter.StatusMessage("") }, a.opts.StatusClearDelay)
	}

	report := a.report(msg)
	report.Diff = diff
	report.Panel = panel
	a.final = report

	a.logger.Info("Run complete",
		slog.Int("jobs", report.Summary.TotalJobs),
		slog.Int("changed", report.Summary.ChangedCount),
		slog.Int("failed", report.Summary.FailedCount),
		slog.Bool("hasChanges", a.hasChanges),
		slog.Duration("duration", time.Since(a.start)),
	)
	_ = a.opts.EventHooks.OnRunComplete(report)
	return report
}

func (a *ResultAggregator) report(msg string) Report {
	summary := a.summary
	summary.Preview = a.preview
	summary.HasChanges = a.hasChanges
	summary.StatusMessage = msg
	summary.TotalJobs = a.total
	summary.Workers = a.workers
	summary.DurationSeconds = time.Since(a.start).Seconds()
	summary.Timestamp = time.Now()
	summary.SchemaVersion = ReportSchemaVersion

	jobs := slices.Clone(a.jobs)
	slices.SortFunc(jobs, func(x, y JobInfo) int { return cmp.Compare(x.Seq, y.Seq) })

	diagnostics := make(map[string]string, len(a.notFixed))
	for _, block := range a.notFixed {
		diagnostics[block.label] = block.text
	}
	return Report{
		Summary:     summary,
		Jobs:        jobs,
		Errors:      slices.Clone(a.errors),
		Diagnostics: diagnostics,
	}
}

// mergedDiff joins preview diffs in job order.
func (a *ResultAggregator) mergedDiff() string {
	if len(a.diffs) == 0 {
		return ""
	}
	diffs := slices.Clone(a.diffs)
	slices.SortFunc(diffs, func(x, y seqText) int { return cmp.Compare(x.seq, y.seq) })
	parts := make([]string, 0, len(diffs))
	for _, d := range diffs {
		parts = append(parts, d.text)
	}
	return strings.Join(parts, "\n")
}

// panel returns the diagnostics panel text and whether it should be revealed.
func (a *ResultAggregator) panel() (string, bool) {
	if len(a.notFixed) == 0 || !a.opts.ShowOutputPanel {
		return PanelNoErrors, false
	}
	blocks := make([]seqText, 0, len(a.notFixed))
	for _, b := range a.notFixed {
		blocks = append(blocks, b)
	}
	slices.SortFunc(blocks, func(x, y seqText) int { return cmp.Compare(x.seq, y.seq) })
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.text)
	}
	return PanelNotFixedHeading + strings.Join(parts, "\n"), true
}

// --- END OF FINAL REVISED FILE pkg/formatter/aggregator.go ---
