package gameid

import "errors"

// Sentinel kinds for identifier errors.
var (
	ErrMalformedIdentifier = errors.New("malformed game identifier")
)
