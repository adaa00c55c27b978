package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/breakingball/internal/adapters/gameday"
	"github.com/okian/breakingball/internal/adapters/repository"
	"github.com/okian/breakingball/internal/domain/extract"
	"github.com/okian/breakingball/internal/domain/model"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/okian/breakingball/pkg/metrics"
)

// State is how far a load got.
type State string

// Load states.
const (
	StateInit      State = "init"
	StateFetched   State = "fetched"
	StateParsed    State = "parsed"
	StatePersisted State = "persisted"
	StateSkipped   State = "skipped"
)

// Feeds retrieves the documents of one game.
type Feeds interface {
	FetchGame(ctx context.Context, id string) (*gameday.Documents, error)
}

// Sessions opens repository sessions.
type Sessions interface {
	Open(ctx context.Context) (*repository.Session, error)
}

// Outcome reports what a load did.
type Outcome struct {
	GameID string
	State  State
	// Records is the number of records written.
	Records int
	// Merged is set when the batch conflicted with stored rows and was
	// written as merges.
	Merged   bool
	Missing  []string
	Warnings []extract.Warning
}

// Loader fetches, extracts and persists one game at a time.
type Loader struct {
	feeds Feeds
	store Sessions
	loc   *time.Location
	log   logger.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLocation sets the zone feed timestamps are converted to.
func WithLoaderLocation(loc *time.Location) LoaderOption {
	return func(l *Loader) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithLoaderLogger sets the loader's logger.
func WithLoaderLogger(log logger.Logger) LoaderOption {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader returns a loader reading from feeds and writing through store.
func NewLoader(feeds Feeds, store Sessions, opts ...LoaderOption) *Loader {
	l := &Loader{feeds: feeds, store: store, log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	l.log = l.log.Named("loader")
	return l
}

// Load brings the stored rows of game id up to date with its feeds.
//
// With skipIfFinal a game already stored as Final is left alone. A game
// whose linescore or boxscore is unavailable writes nothing. Records are
// first inserted in one transaction; if any key already exists the batch is
// written again as merges. Only a malformed id, a cancelled context or a
// failed write return an error.
func (l *Loader) Load(ctx context.Context, id string, skipIfFinal bool) (out *Outcome, err error) {
	start := time.Now()
	out = &Outcome{GameID: id, State: StateInit}
	log := l.log.With(logger.GameID(id))
	defer func() {
		metrics.RecordLoadLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordGameLoaded("failed")
			return
		}
		metrics.RecordGameLoaded(string(out.State))
	}()

	sess, err := l.store.Open(ctx)
	if err != nil {
		return out, fmt.Errorf("%w: open session: %w", ErrPersistence, err)
	}
	defer sess.Close()

	if skipIfFinal {
		final, err := sess.Exists(ctx, model.TableGames,
			model.Column{Name: "game_id", Value: id},
			model.Column{Name: "status", Value: model.StatusFinal})
		if err != nil {
			return out, fmt.Errorf("%w: %w", ErrPersistence, err)
		}
		if final {
			log.Info(ctx, "game is final, skipping")
			out.State = StateSkipped
			return out, nil
		}
	}

	docs, err := l.feeds.FetchGame(ctx, id)
	if err != nil {
		return out, err
	}
	out.State = StateFetched
	out.Missing = docs.Missing
	if !docs.Complete() {
		log.Warn(ctx, "summary documents unavailable, nothing written", logger.Any("missing", docs.Missing))
		return out, nil
	}

	e, err := extract.New(id, docs.URL, extract.WithLogger(l.log), extract.WithLocation(l.loc))
	if err != nil {
		return out, err
	}
	teams, rest := extractAll(ctx, e, docs)
	out.State = StateParsed
	out.Warnings = e.Warnings()
	for _, w := range out.Warnings {
		metrics.RecordExtractWarning(w.Kind)
	}

	merged, err := persist(ctx, sess, teams, rest)
	if err != nil {
		return out, err
	}
	if merged {
		log.Info(ctx, "stored rows updated by merge", logger.Int("records", len(teams)+len(rest)))
	}
	out.State = StatePersisted
	out.Records = len(teams) + len(rest)
	out.Merged = merged
	log.Debug(ctx, "game loaded",
		logger.Int("records", out.Records),
		logger.Int("warnings", len(out.Warnings)),
		logger.Duration("took", time.Since(start)),
	)
	return out, nil
}

// extractAll runs every extractor. Teams are returned apart; they are
// always written as merges.
func extractAll(ctx context.Context, e *extract.Extractor, docs *gameday.Documents) (teams, rest []model.Record) {
	ls, box, inn := docs.Linescore, docs.Boxscore, docs.Innings

	if g := e.Game(ctx, ls); g != nil {
		rest = append(rest, g)
	}
	for _, role := range extract.Roles {
		if t := e.Team(ctx, ls, box, role); t != nil {
			teams = append(teams, t)
		}
	}
	for _, role := range extract.Roles {
		if ts := e.TeamStats(ctx, ls, box, role); ts != nil {
			rest = append(rest, ts)
		}
	}
	for _, p := range e.Pitchers(ctx, box) {
		rest = append(rest, p)
	}
	for _, b := range e.Batters(ctx, box) {
		rest = append(rest, b)
	}
	for _, ab := range e.AtBats(ctx, inn) {
		rest = append(rest, ab)
	}
	for _, p := range e.Pitches(ctx, inn) {
		rest = append(rest, p)
	}
	for _, r := range e.Runners(ctx, inn) {
		rest = append(rest, r)
	}
	return teams, rest
}

// persist writes the batch. It reports whether the merge fallback ran.
func persist(ctx context.Context, sess *repository.Session, teams, rest []model.Record) (bool, error) {
	if err := sess.Merge(teams...); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := sess.AddAll(rest...); err != nil {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	err := sess.Commit(ctx)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return false, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.RecordConflictFallback()
	if err := sess.Rollback(); err != nil {
		return true, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := sess.Merge(teams...); err != nil {
		return true, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := sess.Merge(rest...); err != nil {
		return true, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := sess.Commit(ctx); err != nil {
		return true, fmt.Errorf("%w: after merge fallback: %w", ErrPersistence, err)
	}
	return true, nil
}
