package worker

import "errors"

// ErrPanic wraps a panic recovered from a loader.
var ErrPanic = errors.New("loader panicked")
