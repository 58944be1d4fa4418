// --- START OF FINAL REVISED FILE pkg/formatter/queue.go ---
package formatter

import "sync"

// QueueItem is either a job or the end-of-work sentinel.
type QueueItem struct {
	Job      *Job
	Sentinel bool
}

// JobQueue is a thread-safe FIFO of jobs and sentinels.
// Put never blocks beyond the lock; Get blocks until an item is available.
type JobQueue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	items     []QueueItem
	jobs      int
	sentinels int
}

// NewJobQueue creates an empty queue.
func NewJobQueue() *JobQueue {
	q := &JobQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Put appends a job.
func (q *JobQueue) Put(job *Job) {
	q.put(QueueItem{Job: job})
}

// PutSentinel appends one end-of-work marker. Exactly one worker stops per sentinel.
func (q *JobQueue) PutSentinel() {
	q.put(QueueItem{Sentinel: true})
}

func (q *JobQueue) put(item QueueItem) {
	q.mu.Lock()
	q.items = append(q.items, item)
	if item.Sentinel {
		q.sentinels++
	} else {
		q.jobs++
	}
	q.mu.Unlock()
	q.cond.Signal()
}

// Get removes and returns the oldest item, blocking while the queue is empty.
func (q *JobQueue) Get() QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	item := q.items[0]
	q.items[0] = QueueItem{}
	q.items = q.items[1:]
	if item.Sentinel {
		q.sentinels--
	} else {
		q.jobs--
	}
	return item
}

// IsEmpty is advisory; termination is driven by sentinels, not emptiness.
func (q *JobQueue) IsEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of queued items, sentinels included.
func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// PendingJobs returns the number of queued real jobs.
func (q *JobQueue) PendingJobs() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.jobs
}

// PendingSentinels returns the number of queued sentinels.
func (q *JobQueue) PendingSentinels() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sentinels
}

// --- END OF FINAL REVISED FILE pkg/formatter/queue.go ---
