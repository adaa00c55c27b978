package extract

import (
	"context"

	"github.com/okian/breakingball/internal/domain/coerce"
	"github.com/okian/breakingball/internal/domain/feed"
	"github.com/okian/breakingball/internal/domain/model"
	"github.com/okian/breakingball/pkg/logger"
)

// teamOf resolves a player's club from the team_flag of the enclosing
// batting or pitching block.
func teamOf(box, player *feed.Node) *int {
	flag := player.Parent.Get("team_flag")
	if flag == "" {
		return nil
	}
	return coerce.Int(box.Get(flag + "_id"))
}

// Batters builds one record per batter line in the boxscore.
func (e *Extractor) Batters(ctx context.Context, box *feed.Node) []*model.Batter {
	nodes := box.FindAll("batter")
	out := make([]*model.Batter, 0, len(nodes))
	for _, b := range nodes {
		id := coerce.Int(b.Get("id"))
		team := teamOf(box, b)
		if id == nil || team == nil {
			e.warn(ctx, WarnMissingKey, "batter without id or team",
				logger.String("batter", b.Get("id")), logger.String("team_flag", b.Parent.Get("team_flag")))
			continue
		}

		out = append(out, &model.Batter{
			GameID:           e.gameID,
			TeamID:           *team,
			BatterID:         *id,
			Name:             text(b, "name"),
			FullName:         text(b, "name_display_first_last"),
			Avg:              coerce.Float(b.Get("avg")),
			BattingOrder:     coerce.Int(b.Get("bo")),
			AtBats:           coerce.Int(b.Get("ab")),
			Strikeouts:       coerce.Int(b.Get("so")),
			Flyouts:          coerce.Int(b.Get("ao")),
			Hits:             coerce.Int(b.Get("h")),
			Doubles:          coerce.Int(b.Get("d")),
			Triples:          coerce.Int(b.Get("t")),
			HomeRuns:         coerce.Int(b.Get("hr")),
			Walks:            coerce.Int(b.Get("bb")),
			HitByPitch:       coerce.Int(b.Get("hbp")),
			SacBunts:         coerce.Int(b.Get("sac")),
			SacFlys:          coerce.Int(b.Get("sf")),
			RBI:              coerce.Int(b.Get("rbi")),
			Assists:          coerce.Int(b.Get("a")),
			Runs:             coerce.Int(b.Get("r")),
			LeftOnBase:       coerce.Int(b.Get("lob")),
			CaughtSteal:      coerce.Int(b.Get("cs")),
			StolenBases:      coerce.Int(b.Get("sb")),
			SeasonWalks:      coerce.Int(b.Get("s_bb")),
			SeasonHits:       coerce.Int(b.Get("s_h")),
			SeasonHomeRuns:   coerce.Int(b.Get("s_hr")),
			SeasonRuns:       coerce.Int(b.Get("s_r")),
			SeasonRBI:        coerce.Int(b.Get("s_rbi")),
			SeasonStrikeouts: coerce.Int(b.Get("s_so")),
			Position:         text(b, "pos"),
			Putouts:          coerce.Int(b.Get("po")),
			Errors:           coerce.Int(b.Get("e")),
			Fielding:         coerce.Float(b.Get("fldg")),
		})
	}
	return out
}

// Pitchers builds one record per pitcher line in the boxscore.
func (e *Extractor) Pitchers(ctx context.Context, box *feed.Node) []*model.Pitcher {
	nodes := box.FindAll("pitcher")
	out := make([]*model.Pitcher, 0, len(nodes))
	for _, p := range nodes {
		id := coerce.Int(p.Get("id"))
		if id == nil {
			e.warn(ctx, WarnMissingKey, "pitcher without id", logger.String("name", p.Get("name")))
			continue
		}

		out = append(out, &model.Pitcher{
			PitcherID:            *id,
			GameID:               e.gameID,
			TeamID:               teamOf(box, p),
			Name:                 text(p, "name"),
			FullName:             text(p, "name_display_first_last"),
			Position:             text(p, "pos"),
			Outs:                 coerce.Int(p.Get("out")),
			BattersFaced:         coerce.Int(p.Get("bf")),
			HomeRuns:             coerce.Int(p.Get("hr")),
			Walks:                coerce.Int(p.Get("bb")),
			Strikeouts:           coerce.Int(p.Get("so")),
			EarnedRuns:           coerce.Int(p.Get("er")),
			Runs:                 coerce.Int(p.Get("r")),
			Hits:                 coerce.Int(p.Get("h")),
			Wins:                 coerce.Int(p.Get("w")),
			Losses:               coerce.Int(p.Get("l")),
			Saves:                coerce.Int(p.Get("sv")),
			ERA:                  coerce.Float(p.Get("era")),
			PitchesThrown:        coerce.Int(p.Get("np")),
			Strikes:              coerce.Int(p.Get("s")),
			BlownSaves:           coerce.Int(p.Get("bs")),
			Holds:                coerce.Int(p.Get("hld")),
			SeasonInningsPitched: coerce.Float(p.Get("s_ip")),
			SeasonHits:           coerce.Int(p.Get("s_h")),
			SeasonRuns:           coerce.Int(p.Get("s_r")),
			SeasonEarnedRuns:     coerce.Int(p.Get("s_er")),
			SeasonWalks:          coerce.Int(p.Get("s_bb")),
			SeasonStrikeouts:     coerce.Int(p.Get("s_so")),
			GameScore:            coerce.Int(p.Get("game_score")),
			Win:                  text(p, "win"),
			Loss:                 text(p, "loss"),
			Save:                 text(p, "save"),
			BlownSave:            text(p, "blown_save"),
		})
	}
	return out
}
