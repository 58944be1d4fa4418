// --- START OF FINAL REVISED FILE pkg/formatter/orchestrator.go ---
package formatter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Orchestrator starts a bounded set of workers for a batch of jobs and detects
// completion by polling on its Scheduler. It never blocks the scheduler goroutine.
type Orchestrator struct {
	opts   Options
	logger *slog.Logger
}

// NewOrchestrator validates opts. A Scheduler is required.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	if resolved.Scheduler == nil {
		return nil, fmt.Errorf("%w: Scheduler implementation cannot be nil", ErrConfigValidation)
	}
	return &Orchestrator{
		opts:   resolved,
		logger: slog.New(resolved.Logger).With(slog.String("component", "orchestrator")),
	}, nil
}

// Run is one in-flight invocation.
type Run struct {
	queue   *JobQueue
	workers []*Worker
	done    chan struct{}
	once    sync.Once
	report  Report
	polls   int
}

// Workers returns the number of workers started.
func (r *Run) Workers() int { return len(r.workers) }

// QueuedJobs returns the number of jobs not yet picked up by a worker.
func (r *Run) QueuedJobs() int { return r.queue.PendingJobs() }

// Queue exposes the run's queue for inspection.
func (r *Run) Queue() *JobQueue { return r.queue }

// Done is closed once the final report has been delivered.
func (r *Run) Done() <-chan struct{} { return r.done }

// Report returns the final report. It is only meaningful after Done is closed.
func (r *Run) Report() Report {
	<-r.done
	return r.report
}

// Wait blocks until the run completes or ctx is done. It must not be called on
// the scheduler goroutine.
func (r *Run) Wait(ctx context.Context) (Report, error) {
	select {
	case <-r.done:
		return r.report, nil
	case <-ctx.Done():
		return Report{}, ctx.Err()
	}
}

func (r *Run) complete(report Report) {
	r.once.Do(func() {
		r.report = report
		close(r.done)
	})
}

// Start launches min(MaxWorkers, len(jobs)) workers, enqueues every job and
// one sentinel per worker, and schedules the first poll. With no jobs it
// returns ErrNothingToDo and starts nothing.
func (o *Orchestrator) Start(ctx context.Context, jobs []*Job) (*Run, error) {
	if len(jobs) == 0 {
		return nil, ErrNothingToDo
	}
	for i, job := range jobs {
		if job == nil || job.Origin == nil || job.Options == nil || job.Diagnostics == nil {
			return nil, fmt.Errorf("%w: job %d is incomplete", ErrConfigValidation, i)
		}
	}

	workerCount := min(o.opts.MaxWorkers, len(jobs))
	run := &Run{
		queue: NewJobQueue(),
		done:  make(chan struct{}),
	}

	applier := NewChangeApplier(o.opts.FileSink, o.opts.EncodingHandler, o.opts.AvoidNewLineInSelection, o.opts.Logger)
	applier.onApplied = o.opts.OnApplied
	aggregator := NewResultAggregator(o.opts, applier, len(jobs), workerCount)

	o.logger.Debug("Starting workers", slog.Int("workers", workerCount), slog.Int("jobs", len(jobs)))
	for i := 0; i < workerCount; i++ {
		w := newWorker(ctx, i, run.queue, o.opts, o.logger)
		run.workers = append(run.workers, w)
		w.start()
	}
	for _, job := range jobs {
		run.queue.Put(job)
		_ = o.opts.EventHooks.OnJobQueued(job.Origin.Key())
	}
	for i := 0; i < workerCount; i++ {
		run.queue.PutSentinel()
	}

	o.opts.Reporter.StatusMessage(MessageFormatting)
	pending := run.workers
	o.opts.Scheduler.SetTimeout(func() { o.poll(run, pending, aggregator) }, o.opts.PollInterval)
	return run, nil
}

// poll folds the results of finished workers into agg and reschedules itself
// with the workers still alive. The last poll finishes the aggregation.
func (o *Orchestrator) poll(run *Run, pending []*Worker, agg *ResultAggregator) {
	run.polls++
	alive := make([]*Worker, 0, len(pending))
	for _, w := range pending {
		if w.Alive() {
			alive = append(alive, w)
			continue
		}
		for _, result := range w.Results() {
			agg.Add(result)
		}
	}

	if len(alive) > 0 {
		o.logger.Debug("Workers still running", slog.Int("alive", len(alive)), slog.Int("queued", run.queue.PendingJobs()), slog.Int("poll", run.polls))
		o.opts.Scheduler.SetTimeout(func() { o.poll(run, alive, agg) }, o.opts.PollInterval)
		return
	}

	run.complete(agg.Finish(o.opts.Scheduler))
}

// --- END OF FINAL REVISED FILE pkg/formatter/orchestrator.go ---
