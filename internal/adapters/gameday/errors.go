package gameday

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for feed retrieval errors.
var (
	// ErrDocumentUnavailable marks a document that could not be retrieved or
	// parsed. Callers treat it as absent.
	ErrDocumentUnavailable = errors.New("document unavailable")
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// Is reports every status error as an unavailable document.
func (e *StatusError) Is(target error) bool {
	return target == ErrDocumentUnavailable
}

// retryable reports whether a later attempt may succeed.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}
