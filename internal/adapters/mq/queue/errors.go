package queue

import "errors"

// Sentinel errors returned by Push.
var (
	ErrStopped = errors.New("queue stopped")
	ErrFull    = errors.New("queue full")
)
