package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/okian/breakingball/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// resultTTL bounds how long an unread result list is kept.
const resultTTL = 24 * time.Hour

// RedisQueue implements Queue on a Redis list. Producers LPUSH and
// consumers BRPOP, so jobs leave in the order they arrived.
//
// Any process sharing the key may run a job. Jobs are stamped with the
// pushing queue's origin, and the consumer reports the outcome to a result
// list of that origin, read back with Results.
type RedisQueue struct {
	client      *redis.Client
	key         string
	origin      string
	capacity    int
	pollTimeout time.Duration
	log         logger.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewRedisQueue returns a queue stored under the configured key. The client
// stays owned by the caller.
func NewRedisQueue(client *redis.Client, opts ...Option) *RedisQueue {
	s := newSettings(opts)
	q := &RedisQueue{
		client:      client,
		key:         s.key,
		origin:      uuid.NewString(),
		capacity:    s.capacity,
		pollTimeout: s.pollTimeout,
		log:         s.log.Named("redis-queue"),
		done:        make(chan struct{}),
	}
	metrics.UpdateQueueCapacity(q.capacity)
	return q
}

// DialRedis connects to addr and verifies it answers.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

// Push adds a job to the list. It fails with ErrStopped after Close and
// with ErrFull when the list already holds capacity jobs.
func (q *RedisQueue) Push(ctx context.Context, j Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrStopped
	}

	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return fmt.Errorf("llen %s: %w", q.key, err)
	}
	if int(n) >= q.capacity {
		return ErrFull
	}

	if j.Origin == "" {
		j.Origin = q.origin
	}
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	size, err := q.client.LPush(ctx, q.key, data).Result()
	if err != nil {
		return fmt.Errorf("lpush %s: %w", q.key, err)
	}
	observeSize(int(size), q.capacity)
	return nil
}

// Enqueue adds a job to the list.
func (q *RedisQueue) Enqueue(ctx context.Context, j Job) bool {
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	err := q.Push(ctx, j)
	switch {
	case err == nil:
		metrics.RecordQueueEnqueue()
		return true
	case errors.Is(err, ErrStopped):
		metrics.RecordErrorByComponent("queue", "closed")
	case errors.Is(err, ErrFull):
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
	default:
		metrics.RecordErrorByComponent("queue", "redis")
		q.log.Warn(ctx, "enqueue failed", logger.GameID(j.GameID), logger.Error(err))
	}
	metrics.RecordQueueEnqueueError()
	return false
}

// Dequeue pops jobs until ctx is done or the queue is closed.
func (q *RedisQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.done:
				return
			default:
			}

			res, err := q.client.BRPop(ctx, q.pollTimeout, q.key).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				q.log.Warn(ctx, "pop failed", logger.Error(err))
				metrics.RecordErrorByComponent("queue", "redis")
				select {
				case <-time.After(q.pollTimeout):
				case <-ctx.Done():
					return
				case <-q.done:
					return
				}
				continue
			}

			// res is [key, value].
			var j Job
			if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
				q.log.Warn(ctx, "dropping undecodable job", logger.Error(err))
				metrics.RecordErrorByComponent("queue", "decode")
				continue
			}

			select {
			case out <- j:
				metrics.RecordQueueDequeue()
			case <-ctx.Done():
				q.requeue(j)
				return
			case <-q.done:
				q.requeue(j)
				return
			}
		}
	}()
	return out
}

// requeue puts a popped but undelivered job back at the consumer end.
func (q *RedisQueue) requeue(j Job) {
	data, err := json.Marshal(j)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), q.pollTimeout)
	defer cancel()
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		q.log.Warn(ctx, "requeue failed", logger.GameID(j.GameID), logger.Error(err))
	}
}

// Result is the outcome of a job as reported by the process that ran it.
type Result struct {
	JobID  string `json:"job_id"`
	GameID string `json:"game_id"`
	Err    string `json:"error,omitempty"`
}

// Failure returns the reported error, or nil when the job succeeded.
func (r Result) Failure() error {
	if r.Err == "" {
		return nil
	}
	return errors.New(r.Err)
}

// Origin returns the id stamped on jobs this queue pushes.
func (q *RedisQueue) Origin() string { return q.origin }

func (q *RedisQueue) resultsKey(origin string) string {
	return q.key + ":results:" + origin
}

// Report sends the outcome of j to the queue that pushed it. Jobs without
// an origin are ignored.
func (q *RedisQueue) Report(ctx context.Context, j Job, jobErr error) error {
	if j.Origin == "" {
		return nil
	}
	r := Result{JobID: j.ID, GameID: j.GameID}
	if jobErr != nil {
		r.Err = jobErr.Error()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	key := q.resultsKey(j.Origin)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.Expire(ctx, key, resultTTL)
		return nil
	})
	if err != nil {
		metrics.RecordErrorByComponent("queue", "redis")
		return fmt.Errorf("report %s: %w", j.ID, err)
	}
	return nil
}

// Results pops every result reported for jobs this queue pushed, oldest
// first.
func (q *RedisQueue) Results(ctx context.Context) ([]Result, error) {
	key := q.resultsKey(q.origin)
	var out []Result
	for {
		data, err := q.client.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("rpop %s: %w", key, err)
		}
		var r Result
		if err := json.Unmarshal([]byte(data), &r); err != nil {
			q.log.Warn(ctx, "dropping undecodable result", logger.Error(err))
			continue
		}
		out = append(out, r)
	}
}

// Len returns the length of the list, or 0 when Redis cannot be reached.
func (q *RedisQueue) Len(ctx context.Context) int {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		q.log.Warn(ctx, "llen failed", logger.Error(err))
		return 0
	}
	observeSize(int(n), q.capacity)
	return int(n)
}

// Close stops consumers. Jobs left in the list stay there for the next
// process.
func (q *RedisQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *RedisQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
