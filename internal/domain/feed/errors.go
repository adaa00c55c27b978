package feed

import "errors"

var (
	ErrEmptyDocument   = errors.New("empty document")
	ErrInvalidDocument = errors.New("invalid document")
)
