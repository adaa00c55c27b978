package extract

import (
	"context"
	"strings"

	"github.com/okian/breakingball/internal/domain/coerce"
	"github.com/okian/breakingball/internal/domain/feed"
	"github.com/okian/breakingball/internal/domain/model"
	"github.com/okian/breakingball/pkg/logger"
)

// gamesBackZero is the standings text for a club leading its race.
const gamesBackZero = "-"

// Game builds the game record from the linescore root element.
func (e *Extractor) Game(ctx context.Context, ls *feed.Node) *model.Game {
	g := &model.Game{
		GameID:   e.gameID,
		GameDate: e.date,
		Season:   e.season,
		URL:      e.url,
	}
	if ls == nil {
		return g
	}

	// Doubleheader nightcaps often carry "Gm 2" instead of a clock time.
	if t, ok := e.clock(ls.Get("time"), ls.Get("ampm")); ok {
		g.GameDatetime = &t
	} else {
		e.warn(ctx, WarnGameTime, "could not parse game time",
			logger.String("time", ls.Get("time")), logger.String("ampm", ls.Get("ampm")))
	}

	g.Venue = text(ls, "venue")
	g.GameType = text(ls, "game_type")
	g.Inning = coerce.Int(ls.Get("inning"))
	g.Outs = coerce.Int(ls.Get("outs"))
	g.TopInning = coerce.Flag(ls.Get("top_inning"), "Y")
	g.Status = text(ls, "status")
	g.HomeTeamID = coerce.Int(ls.Get("home_team_id"))
	g.AwayTeamID = coerce.Int(ls.Get("away_team_id"))
	g.HomeRuns = coerce.Int(ls.Get("home_team_runs"))
	g.AwayRuns = coerce.Int(ls.Get("away_team_runs"))
	g.HomeHits = coerce.Int(ls.Get("home_team_hits"))
	g.AwayHits = coerce.Int(ls.Get("away_team_hits"))
	g.HomeErrors = coerce.Int(ls.Get("home_team_errors"))
	g.AwayErrors = coerce.Int(ls.Get("away_team_errors"))
	return g
}

// Team builds the season record of one side. It returns nil when the
// boxscore has no usable team id.
func (e *Extractor) Team(ctx context.Context, ls, box *feed.Node, role Role) *model.Team {
	if box == nil {
		e.warn(ctx, WarnMissingBlock, "no boxscore available", logger.String("role", string(role)))
		return nil
	}
	id := coerce.Int(box.Get(string(role) + "_id"))
	if id == nil {
		e.warn(ctx, WarnMissingKey, "team without id", logger.String("role", string(role)))
		return nil
	}

	return &model.Team{
		TeamID:    *id,
		Season:    e.season,
		Name:      text(box, string(role)+"_fname"),
		ShortName: text(box, string(role)+"_sname"),
		League:    League(ls.Get("league"), role),
		Division:  text(ls, string(role)+"_division"),
	}
}

// League picks the side's league from the linescore code, which lists the
// home league first (e.g. "AN"). It returns nil for a short or blank code.
func League(code string, role Role) *string {
	i := 0
	if role == Away {
		i = 1
	}
	if len(code) < 2 {
		return nil
	}
	l := strings.TrimSpace(code[i : i+1])
	if l == "" {
		return nil
	}
	return &l
}

// TeamStats builds one side's line for the game. It returns nil when the
// side's batting block or team id is missing; a missing pitching block only
// drops the ERA.
func (e *Extractor) TeamStats(ctx context.Context, ls, box *feed.Node, role Role) *model.TeamStats {
	if box == nil {
		e.warn(ctx, WarnMissingBlock, "no boxscore available", logger.String("role", string(role)))
		return nil
	}
	id := coerce.Int(box.Get(string(role) + "_id"))
	if id == nil {
		e.warn(ctx, WarnMissingKey, "team stats without team id", logger.String("role", string(role)))
		return nil
	}
	batting := box.FindWhere("batting", "team_flag", string(role))
	if batting == nil {
		e.warn(ctx, WarnMissingBlock, "no batting block", logger.String("role", string(role)))
		return nil
	}

	wins := intOr(box.Get(string(role)+"_wins"), 0)
	losses := intOr(box.Get(string(role)+"_loss"), 0)

	s := &model.TeamStats{
		GameID:     e.gameID,
		TeamID:     *id,
		AtHome:     role == Home,
		Wins:       wins,
		Losses:     losses,
		Winrate:    model.Winrate(wins, losses),
		Avg:        coerce.Float(batting.Get("avg")),
		AtBats:     coerce.Int(batting.Get("ab")),
		Runs:       coerce.Int(batting.Get("r")),
		Hits:       coerce.Int(batting.Get("h")),
		Doubles:    coerce.Int(batting.Get("d")),
		Triples:    coerce.Int(batting.Get("t")),
		HomeRuns:   coerce.Int(batting.Get("hr")),
		RBIs:       coerce.Int(batting.Get("rbi")),
		Walks:      coerce.Int(batting.Get("bb")),
		Putouts:    coerce.Int(batting.Get("po")),
		DA:         coerce.Int(batting.Get("da")),
		Strikeouts: coerce.Int(batting.Get("so")),
		LeftOnBase: coerce.Int(batting.Get("lob")),
	}
	s.GamesBack, s.GamesBackWildcard = GamesBack(ls, role)

	if pitching := box.FindWhere("pitching", "team_flag", string(role)); pitching != nil {
		s.ERA = coerce.Float(pitching.Get("era"))
	} else {
		e.warn(ctx, WarnMissingBlock, "no pitching block", logger.String("role", string(role)))
	}
	return s
}

// GamesBack reads the side's standings gaps from the linescore. A leader is
// listed as "-" which reads as zero; when the primary gap is "-" and the
// wildcard gap is absent, the wildcard gap is zero as well.
func GamesBack(ls *feed.Node, role Role) (primary, wildcard *float64) {
	gb, _ := ls.Attr(string(role) + "_games_back")
	wc, wcOK := ls.Attr(string(role) + "_games_back_wildcard")

	if gb == gamesBackZero {
		primary = coerce.Ptr(0.0)
	} else {
		primary = coerce.Float(gb)
	}

	switch {
	case wc == gamesBackZero:
		wildcard = coerce.Ptr(0.0)
	case !wcOK && gb == gamesBackZero:
		wildcard = coerce.Ptr(0.0)
	default:
		wildcard = coerce.Float(wc)
	}
	return primary, wildcard
}

func text(n *feed.Node, key string) *string {
	return coerce.Text(n.Attr(key))
}

func intOr(raw string, def int) int {
	if v := coerce.Int(raw); v != nil {
		return *v
	}
	return def
}
