// Package extract turns parsed GameDay documents into typed records.
//
// An Extractor is bound to one game. Every method tolerates missing
// elements and attributes: absent or malformed values are left nil on the
// record, and conditions worth an operator's attention are logged and kept
// as warnings on the Extractor. No method returns an error.
package extract

import (
	"context"
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // target zone must resolve on hosts without zoneinfo

	"github.com/okian/breakingball/internal/domain/gameid"
	"github.com/okian/breakingball/pkg/logger"
)

// DefaultTimezone is the zone feed timestamps are converted to.
const DefaultTimezone = "America/New_York"

// Role selects the home or away side of a game.
type Role string

const (
	Home Role = "home"
	Away Role = "away"
)

// Roles lists both sides, home first.
var Roles = []Role{Home, Away}

// Warning kinds.
const (
	WarnTimestamp    = "timestamp"
	WarnGameTime     = "game_time"
	WarnMissingBlock = "missing_block"
	WarnMissingKey   = "missing_key"
	WarnSyntheticID  = "synthetic_id"
)

// Warning is a recoverable anomaly found while extracting.
type Warning struct {
	Kind   string
	Detail string
}

func (w Warning) String() string { return w.Kind + ": " + w.Detail }

// Extractor builds the records of one game.
type Extractor struct {
	gameID string
	date   time.Time
	season int
	url    string

	loc *time.Location
	log logger.Logger

	mu       sync.Mutex
	warnings []Warning
}

// New returns an Extractor for the game id. url is stored on the game
// record as its source locator.
func New(id, url string, opts ...Option) (*Extractor, error) {
	date, err := gameid.DecodeDate(id)
	if err != nil {
		return nil, err
	}

	e := &Extractor{
		gameID: id,
		date:   date,
		season: date.Year(),
		url:    url,
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.loc == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", DefaultTimezone, err)
		}
		e.loc = loc
	}
	e.log = e.log.With(logger.GameID(id))
	return e, nil
}

// GameID returns the game the extractor is bound to.
func (e *Extractor) GameID() string { return e.gameID }

// Season returns the year decoded from the game id.
func (e *Extractor) Season() int { return e.season }

// Warnings returns the anomalies recorded so far.
func (e *Extractor) Warnings() []Warning {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Warning, len(e.warnings))
	copy(out, e.warnings)
	return out
}

func (e *Extractor) warn(ctx context.Context, kind, detail string, fields ...logger.Field) {
	e.mu.Lock()
	e.warnings = append(e.warnings, Warning{Kind: kind, Detail: detail})
	e.mu.Unlock()
	e.log.Warn(ctx, detail, append(fields, logger.String("kind", kind))...)
}
