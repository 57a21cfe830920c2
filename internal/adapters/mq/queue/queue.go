// Package queue carries games waiting for decision attribution.
//
// The queue is an in-memory bounded channel. Enqueue never blocks; Put
// waits for room, which lets batch loads apply backpressure to themselves.
package queue

import (
	"context"
	"sync"

	"github.com/okian/pitchrecord/internal/domain/model"
	"github.com/okian/pitchrecord/pkg/metrics"
)

const defaultQueueCapacity = 4096

// GameJob is one game's plays ready for attribution.
type GameJob struct {
	Key     model.GameKey
	Era     int
	Regular bool // counts toward the standings
	Plays   []model.PlateAppearance

	// OnDone, if set, runs after the job's outcome has been handled.
	OnDone func()
}

// EraPlays returns the job's plays with the job era filled in wherever a play
// carries none. Plays are copied only when one needs filling.
func (j GameJob) EraPlays() []model.PlateAppearance {
	if j.Era == 0 {
		return j.Plays
	}
	var out []model.PlateAppearance
	for i, p := range j.Plays {
		if p.Era != 0 {
			continue
		}
		if out == nil {
			out = make([]model.PlateAppearance, len(j.Plays))
			copy(out, j.Plays)
		}
		out[i].Era = j.Era
	}
	if out == nil {
		return j.Plays
	}
	return out
}

// Queue provides non-blocking and blocking enqueue with channel-based dequeue.
type Queue interface {
	// Enqueue adds a job without waiting. Returns false if the queue is full or closed.
	Enqueue(ctx context.Context, j GameJob) bool
	// Put adds a job, waiting for room until ctx is done or the queue closes.
	Put(ctx context.Context, j GameJob) error
	// Dequeue returns a channel that receives jobs. It closes with the queue.
	Dequeue(ctx context.Context) <-chan GameJob
	// Len returns the number of waiting jobs.
	Len(ctx context.Context) int
	// Close stops accepting jobs; queued jobs are still delivered.
	Close() error
	// IsClosed reports whether Close was called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan GameJob
	capacity int

	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan GameJob, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	q.observe()
	return q
}

func (q *InMemoryQueue) observe() {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Enqueue adds a job without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j GameJob) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Put adds a job, blocking while the queue is full.
func (q *InMemoryQueue) Put(ctx context.Context, j GameJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	case <-q.done:
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan GameJob {
	out := make(chan GameJob)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	q.observe()
	return len(q.jobs)
}

// Close stops the queue. Blocked Put calls return ErrClosed.
func (q *InMemoryQueue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
