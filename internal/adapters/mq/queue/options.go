package queue

import (
	"time"

	"github.com/okian/breakingball/pkg/logger"
)

// Option applies a configuration option to a queue.
type Option func(*settings)

// WithCapacity sets the maximum number of queued jobs.
func WithCapacity(capacity int) Option {
	return func(s *settings) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}

// WithBufferSize sets the buffer size of the in-memory channel. It never
// drops below the capacity.
func WithBufferSize(size int) Option {
	return func(s *settings) {
		if size > 0 {
			s.bufferSize = size
		}
	}
}

// WithKey sets the Redis list holding the jobs.
func WithKey(key string) Option {
	return func(s *settings) {
		if key != "" {
			s.key = key
		}
	}
}

// WithPollTimeout bounds each blocking pop against Redis.
func WithPollTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.pollTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}
