// --- START OF FINAL REVISED FILE pkg/formatter/worker.go ---
package formatter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

// Worker drains a JobQueue until it reads a sentinel.
// Results are owned by the worker and readable only after it is done.
type Worker struct {
	id           int
	queue        *JobQueue
	engine       FormattingEngine
	minDiffLines int
	hooks        Hooks
	logger       *slog.Logger
	ctx          context.Context

	results []JobResult
	done    chan struct{}
}

func newWorker(ctx context.Context, id int, queue *JobQueue, opts Options, logger *slog.Logger) *Worker {
	return &Worker{
		id:           id,
		queue:        queue,
		engine:       opts.Engine,
		minDiffLines: opts.MinDiffLines,
		hooks:        opts.EventHooks,
		logger:       logger.With(slog.Int("workerID", id)),
		ctx:          ctx,
		done:         make(chan struct{}),
	}
}

// ID returns the worker number within its run.
func (w *Worker) ID() int { return w.id }

// Alive reports whether the worker goroutine is still running. It never blocks.
func (w *Worker) Alive() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Done is closed when the worker has exited.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Results returns the worker's results, or nil while it is still alive.
func (w *Worker) Results() []JobResult {
	if w.Alive() {
		return nil
	}
	return w.results
}

func (w *Worker) start() {
	go w.loop()
}

func (w *Worker) loop() {
	defer close(w.done)
	w.logger.Debug("Worker started")
	for {
		item := w.queue.Get()
		if item.Sentinel {
			w.logger.Debug("Worker received sentinel, exiting", slog.Int("processed", len(w.results)))
			return
		}
		w.results = append(w.results, w.execute(item.Job))
	}
}

// execute runs one job. It never panics and never returns an error: faults
// become part of the result.
func (w *Worker) execute(job *Job) JobResult {
	start := time.Now()
	key := job.Origin.Key()
	_ = w.hooks.OnJobStatusUpdate(key, StatusProcessing, "", 0)

	result := JobResult{
		JobID:        job.ID,
		Seq:          job.Seq,
		Origin:       job.Origin,
		Preview:      job.Preview,
		Options:      job.Options,
		OriginalText: job.Source,
		WorkerID:     w.id,
	}

	formatted, err := w.format(job)
	if err != nil {
		result.Fault = fmt.Errorf("%w: %s: %w", ErrFormattingFault, job.Origin.Label(), err)
		_, _ = fmt.Fprintf(job.Diagnostics, "formatting failed: %v\n", err)
		w.logger.Warn("Formatting fault", slog.String("origin", key), slog.Any("error", err))
	} else {
		result.NewText = formatted
		if job.Preview {
			result.Diff = CreateDiff(job.Source, formatted, job.Origin.Label(), w.minDiffLines)
		}
	}
	result.Changed = isApplicableChange(result, w.minDiffLines)
	result.Diagnostics = job.Diagnostics.String()
	result.Duration = time.Since(start)

	status := StatusUnchanged
	msg := ""
	switch {
	case result.Fault != nil:
		status = StatusFailed
		msg = result.Fault.Error()
	case result.Changed:
		status = StatusChanged
	}
	_ = w.hooks.OnJobStatusUpdate(key, status, msg, result.Duration)
	return result
}

// format calls the engine with job.Diagnostics bound as its output for the
// duration of the call only. Panics are converted to errors.
func (w *Worker) format(job *Job) (formatted string, err error) {
	sink := bindDiagnostics(job.Diagnostics)
	defer sink.release()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Engine panicked", slog.String("origin", job.Origin.Key()), slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
			formatted = ""
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return w.engine.Format(w.ctx, job.Source, job.Options, sink)
}

// scopedWriter forwards to a diagnostic sink until released; later writes,
// e.g. from goroutines the engine leaked, are discarded.
type scopedWriter struct {
	mu     sync.Mutex
	target io.Writer
}

func bindDiagnostics(target io.Writer) *scopedWriter {
	return &scopedWriter{target: target}
}

func (s *scopedWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.target == nil {
		return len(p), nil
	}
	return s.target.Write(p)
}

func (s *scopedWriter) release() {
	s.mu.Lock()
	s.target = nil
	s.mu.Unlock()
}

// isApplicableChange reports whether a result should count as a change:
// non-empty engine output that differs from the source and, in preview mode,
// a diff of at least minDiffLines lines.
func isApplicableChange(r JobResult, minDiffLines int) bool {
	if r.Fault != nil || r.NewText == "" || r.NewText == r.OriginalText {
		return false
	}
	if r.Preview {
		return r.Diff != "" && DiffLineCount(r.Diff) >= minDiffLines
	}
	return true
}

// --- END OF FINAL REVISED FILE pkg/formatter/worker.go ---
