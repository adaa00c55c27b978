package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	// ErrConflict is returned by Commit when a record's key already exists.
	ErrConflict       = errors.New("record key conflict")
	ErrSessionClosed  = errors.New("session closed")
	ErrUnknownDialect = errors.New("unknown database dialect")
	ErrUnknownTable   = errors.New("unknown table")
	ErrUnknownColumn  = errors.New("unknown column")
)
