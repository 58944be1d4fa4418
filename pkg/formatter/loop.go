// --- START OF FINAL REVISED FILE pkg/formatter/loop.go ---
package formatter

import (
	"context"
	"sync"
	"time"
)

// Scheduler runs callbacks later on the caller's "main" thread.
// SetTimeout MUST NOT block and MUST NOT run fn synchronously.
type Scheduler interface {
	SetTimeout(fn func(), delay time.Duration)
}

// EventLoop is a single-goroutine Scheduler. Every callback runs on the
// goroutine that called Run, one at a time, in the order they became due.
type EventLoop struct {
	tasks    chan func()
	quit     chan struct{}
	stopOnce sync.Once
}

// NewEventLoop creates a stopped loop; call Run to start processing.
func NewEventLoop() *EventLoop {
	return &EventLoop{
		tasks: make(chan func(), 64),
		quit:  make(chan struct{}),
	}
}

// SetTimeout implements Scheduler. Callbacks scheduled after Stop are dropped.
func (l *EventLoop) SetTimeout(fn func(), delay time.Duration) {
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() { l.post(fn) })
}

// Post queues fn to run on the loop as soon as possible.
func (l *EventLoop) Post(fn func()) {
	go l.post(fn)
}

func (l *EventLoop) post(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.quit:
	}
}

// Run executes callbacks until Stop is called or ctx is done.
func (l *EventLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Stop makes Run return. It is safe to call more than once and from a callback.
func (l *EventLoop) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// --- END OF FINAL REVISED FILE pkg/formatter/loop.go ---
