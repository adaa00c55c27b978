package service

import "errors"

// Sentinel errors returned by the service.
var (
	// ErrPersistence means the records of a game could not be written, even
	// after falling back to merges.
	ErrPersistence = errors.New("persistence failed")
	// ErrNotStarted is returned by operations that need a started service.
	ErrNotStarted = errors.New("service not started")
	// ErrQueueFull is returned when a job could not be queued.
	ErrQueueFull = errors.New("queue full")
	// ErrInvalidRange is returned when a date range ends before it starts.
	ErrInvalidRange = errors.New("end date before start date")
	// ErrInvalidSchedule is returned for a watch spec cron cannot parse.
	ErrInvalidSchedule = errors.New("invalid watch schedule")
)
