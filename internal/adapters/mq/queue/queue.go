// Package queue carries brief generation jobs from the API to the worker.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/brokerflow/internal/domain/brief"
	"github.com/okian/brokerflow/pkg/metrics"
)

const defaultQueueCapacity = 64

// Job is the payload flowing through the queue.
type Job = brief.Job

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It fails with ErrFull or ErrClosed instead of
	// blocking.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel of jobs, closed when the queue closes.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of waiting jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs and closes the dequeue channel.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	metrics.UpdateBriefQueueLength(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordBriefQueueError("closed")
		return ErrClosed
	}

	select {
	case q.jobs <- j:
		metrics.UpdateBriefQueueLength(len(q.jobs))
		return nil
	case <-ctx.Done():
		metrics.RecordBriefQueueError("context_cancelled")
		return fmt.Errorf("enqueue brief job: %w", ctx.Err())
	default:
		metrics.RecordBriefQueueError("queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for j := range q.jobs {
			select {
			case out <- j:
				metrics.UpdateBriefQueueLength(len(q.jobs))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(context.Context) int {
	n := len(q.jobs)
	metrics.UpdateBriefQueueLength(n)
	return n
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
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
