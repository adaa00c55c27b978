// Package queue carries load jobs from producers to the worker pool.
//
// InMemoryQueue is a bounded channel for a single process. RedisQueue keeps
// jobs in a Redis list so several loader processes can share one backlog.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/okian/breakingball/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
	defaultBufferSize    = 10000
	defaultRedisKey      = "breakingball:jobs"
	defaultPollTimeout   = time.Second
)

// Job asks for one game to be loaded.
type Job struct {
	// ID correlates the log lines of one load attempt.
	ID          string    `json:"id"`
	GameID      string    `json:"game_id"`
	SkipIfFinal bool      `json:"skip_if_final"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
	// Origin names the RedisQueue that pushed the job; results are sent
	// back to it.
	Origin string `json:"origin,omitempty"`
}

// NewJob returns a job for gameID stamped with a fresh id.
func NewJob(gameID string, skipIfFinal bool) Job {
	return Job{
		ID:          uuid.NewString(),
		GameID:      gameID,
		SkipIfFinal: skipIfFinal,
		EnqueuedAt:  time.Now().UTC(),
	}
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job to the queue.
	// Returns false if the queue is full and the job was not enqueued.
	Enqueue(ctx context.Context, j Job) bool

	// Dequeue returns a channel that will receive jobs as they become available.
	// The channel will be closed when the queue is closed or ctx is done.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new jobs can be enqueued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

type settings struct {
	capacity    int
	bufferSize  int
	key         string
	pollTimeout time.Duration
	log         logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		capacity:    defaultQueueCapacity,
		bufferSize:  defaultBufferSize,
		key:         defaultRedisKey,
		pollTimeout: defaultPollTimeout,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.bufferSize < s.capacity {
		s.bufferSize = s.capacity
	}
	return s
}

func observeSize(size, capacity int) {
	metrics.UpdateQueueSize(size)
	if capacity > 0 {
		metrics.UpdateQueueUtilization(float64(size) / float64(capacity))
	}
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	s := newSettings(opts)
	q := &InMemoryQueue{
		jobs:     make(chan Job, s.bufferSize),
		capacity: s.capacity,
	}

	metrics.UpdateQueueCapacity(q.capacity)
	observeSize(0, q.capacity)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}
	if len(q.jobs) >= q.capacity {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return false
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		observeSize(len(q.jobs), q.capacity)
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

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				select {
				case out <- j:
					metrics.RecordQueueDequeue()
					observeSize(len(q.jobs), q.capacity)
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued jobs.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.jobs)
	observeSize(size, q.capacity)
	return size
}

// Close gracefully shuts down the queue. Jobs already queued are still
// delivered to consumers.
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
