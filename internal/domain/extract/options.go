package extract

import (
	"time"

	"github.com/okian/breakingball/pkg/logger"
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for warnings.
func WithLogger(l logger.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithLocation sets the zone timestamps and game times are expressed in.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.loc = loc
		}
	}
}
