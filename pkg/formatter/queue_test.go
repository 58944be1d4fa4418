package formatter_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/stack-formatter/internal/testutil"
	"github.com/stackvity/stack-formatter/pkg/formatter"
)

func queueJob(t *testing.T, seq int) *formatter.Job {
	t.Helper()
	job, err := formatter.NewJob(seq, "x = 1\n", formatter.FileOrigin{Path: "f.py"}, testutil.MustFormatOptions(t, nil))
	require.NoError(t, err)
	return job
}

func TestJobQueue_FIFO(t *testing.T) {
	q := formatter.NewJobQueue()
	assert.True(t, q.IsEmpty())

	first, second := queueJob(t, 0), queueJob(t, 1)
	q.Put(first)
	q.Put(second)
	q.PutSentinel()
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 2, q.PendingJobs())
	assert.Equal(t, 1, q.PendingSentinels())

	assert.Same(t, first, q.Get().Job)
	assert.Same(t, second, q.Get().Job)
	item := q.Get()
	assert.True(t, item.Sentinel)
	assert.Nil(t, item.Job)
	assert.True(t, q.IsEmpty())
	assert.Equal(t, 0, q.PendingSentinels())
}

func TestJobQueue_GetBlocksUntilPut(t *testing.T) {
	q := formatter.NewJobQueue()
	got := make(chan formatter.QueueItem, 1)
	go func() { got <- q.Get() }()

	select {
	case <-got:
		t.Fatal("Get returned on an empty queue")
	case <-time.After(20 * time.Millisecond):
	}
	q.PutSentinel()
	select {
	case item := <-got:
		assert.True(t, item.Sentinel)
	case <-time.After(time.Second):
		t.Fatal("Get did not wake up after PutSentinel")
	}
}

// Every worker stops on exactly one sentinel and every job is taken exactly once.
func TestJobQueue_SentinelsStopEachConsumerOnce(t *testing.T) {
	const workers, jobs = 4, 40
	q := formatter.NewJobQueue()
	for i := 0; i < jobs; i++ {
		q.Put(queueJob(t, i))
	}
	for i := 0; i < workers; i++ {
		q.PutSentinel()
	}

	var taken, stopped atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if q.Get().Sentinel {
					stopped.Add(1)
					return
				}
				taken.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, jobs, taken.Load())
	assert.EqualValues(t, workers, stopped.Load())
	assert.True(t, q.IsEmpty())
}
