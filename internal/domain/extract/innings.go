package extract

import (
	"context"
	"time"

	"github.com/okian/breakingball/internal/domain/coerce"
	"github.com/okian/breakingball/internal/domain/feed"
	"github.com/okian/breakingball/internal/domain/model"
	"github.com/okian/breakingball/pkg/logger"
)

// AtBats builds one record per atbat element. The half comes from the
// enclosing top or bottom element and the inning number from its parent.
func (e *Extractor) AtBats(ctx context.Context, innings *feed.Node) []*model.AtBat {
	nodes := innings.FindAll("atbat")
	out := make([]*model.AtBat, 0, len(nodes))
	for _, ab := range nodes {
		num := coerce.Int(ab.Get("num"))
		if num == nil {
			e.warn(ctx, WarnMissingKey, "at-bat without number", logger.String("num", ab.Get("num")))
			continue
		}

		rec := &model.AtBat{
			GameID:      e.gameID,
			AtBatNumber: *num,
			InningHalf:  ab.Parent.Name,
			Balls:       coerce.Int(ab.Get("b")),
			Strikes:     coerce.Int(ab.Get("s")),
			Outs:        coerce.Int(ab.Get("o")),
			BatterID:    coerce.Int(ab.Get("batter")),
			PitcherID:   coerce.Int(ab.Get("pitcher")),
			Stands:      text(ab, "stand"),
			PThrows:     text(ab, "p_throws"),
			Description: text(ab, "des"),
			EventNum:    coerce.Int(ab.Get("event_num")),
			Event:       text(ab, "event"),
			Score:       coerce.Flag(ab.Get("score"), coerce.DefaultTrueToken),
			HomeRuns:    coerce.Int(ab.Get("home_team_runs")),
			AwayRuns:    coerce.Int(ab.Get("away_team_runs")),
		}
		if ab.Parent.Parent != nil {
			rec.Inning = coerce.Int(ab.Parent.Parent.Get("num"))
		}
		rec.StartTime = e.stamp(ctx, ab, "start_tfs_zulu", logger.Int("at_bat", *num))

		out = append(out, rec)
	}
	return out
}

// Pitches builds one record per pitch element. A pitch without a numeric id
// is keyed by its position among all pitches of the game, so the key is only
// stable while the feed keeps its order. One warning counts those pitches.
func (e *Extractor) Pitches(ctx context.Context, innings *feed.Node) []*model.Pitch {
	nodes := innings.FindAll("pitch")
	out := make([]*model.Pitch, 0, len(nodes))
	synthetic := 0
	for ordinal, p := range nodes {
		ab := coerce.Int(p.Parent.Get("num"))
		if ab == nil {
			e.warn(ctx, WarnMissingKey, "pitch outside a numbered at-bat", logger.String("pitch", p.Get("id")))
			continue
		}

		rec := &model.Pitch{
			GameID:         e.gameID,
			AtBatNumber:    *ab,
			Description:    text(p, "des"),
			Type:           text(p, "type"),
			X:              coerce.Float(p.Get("x")),
			Y:              coerce.Float(p.Get("y")),
			EventNum:       coerce.Int(p.Get("event_num")),
			SvID:           text(p, "sv_id"),
			PlayGUID:       text(p, "play_guid"),
			StartSpeed:     coerce.Float(p.Get("start_speed")),
			EndSpeed:       coerce.Float(p.Get("end_speed")),
			SzTop:          coerce.Float(p.Get("sz_top")),
			SzBottom:       coerce.Float(p.Get("sz_bot")),
			PfxX:           coerce.Float(p.Get("pfx_x")),
			PfxZ:           coerce.Float(p.Get("pfx_z")),
			X0:             coerce.Float(p.Get("x0")),
			Y0:             coerce.Float(p.Get("y0")),
			Z0:             coerce.Float(p.Get("z0")),
			VX0:            coerce.Float(p.Get("vx0")),
			VY0:            coerce.Float(p.Get("vy0")),
			VZ0:            coerce.Float(p.Get("vz0")),
			AX:             coerce.Float(p.Get("ax")),
			AY:             coerce.Float(p.Get("ay")),
			AZ:             coerce.Float(p.Get("az")),
			BreakY:         coerce.Float(p.Get("break_y")),
			BreakAngle:     coerce.Float(p.Get("break_angle")),
			BreakLength:    coerce.Float(p.Get("break_length")),
			PitchType:      text(p, "pitch_type"),
			TypeConfidence: coerce.Float(p.Get("type_confidence")),
			Zone:           coerce.Int(p.Get("zone")),
			Nasty:          coerce.Int(p.Get("nasty")),
			SpinDir:        coerce.Float(p.Get("spin_dir")),
			SpinRate:       coerce.Float(p.Get("spin_rate")),
		}
		if id := coerce.Int(p.Get("id")); id != nil {
			rec.PitchID = *id
		} else {
			rec.PitchID = ordinal
			rec.Synthetic = true
			synthetic++
		}
		rec.Timestamp = e.stamp(ctx, p, "tfs_zulu", logger.Int("pitch", rec.PitchID))

		out = append(out, rec)
	}
	if synthetic > 0 {
		e.warn(ctx, WarnSyntheticID, "pitches keyed by document order", logger.Int("pitches", synthetic))
	}
	return out
}

// Runners builds one record per runner and at-bat. A runner can appear more
// than once in an at-bat (a steal, then a hit); the last element wins.
func (e *Extractor) Runners(ctx context.Context, innings *feed.Node) []*model.Runner {
	type runnerKey struct{ ab, id int }

	nodes := innings.FindAll("runner")
	out := make([]*model.Runner, 0, len(nodes))
	seen := make(map[runnerKey]int, len(nodes))
	for _, r := range nodes {
		ab := coerce.Int(r.Parent.Get("num"))
		id := coerce.Int(r.Get("id"))
		if ab == nil || id == nil {
			e.warn(ctx, WarnMissingKey, "runner without at-bat or id",
				logger.String("runner", r.Get("id")), logger.String("at_bat", r.Parent.Get("num")))
			continue
		}

		rec := &model.Runner{
			GameID:      e.gameID,
			AtBatNumber: *ab,
			RunnerID:    *id,
			Start:       text(r, "start"),
			End:         text(r, "end"),
			Event:       text(r, "event"),
			EventNum:    coerce.Int(r.Get("event_num")),
			Score:       coerce.Flag(r.Get("score"), coerce.DefaultTrueToken),
			RBI:         coerce.Flag(r.Get("rbi"), coerce.DefaultTrueToken),
			Earned:      coerce.Flag(r.Get("earned"), coerce.DefaultTrueToken),
		}

		k := runnerKey{*ab, *id}
		if i, dup := seen[k]; dup {
			e.log.Debug(ctx, "collapsing repeated runner", logger.Int("at_bat", *ab), logger.Int("runner", *id))
			out[i] = rec
			continue
		}
		seen[k] = len(out)
		out = append(out, rec)
	}
	return out
}

// stamp reads a zulu attribute. An absent attribute is silently omitted
// (older seasons carry none); an unparsable one is omitted with a warning.
func (e *Extractor) stamp(ctx context.Context, n *feed.Node, key string, where logger.Field) *time.Time {
	raw, ok := n.Attr(key)
	if !ok || raw == "" {
		return nil
	}
	t, ok := e.zulu(raw)
	if !ok {
		e.warn(ctx, WarnTimestamp, "could not parse timestamp", where, logger.String(key, raw))
		return nil
	}
	return &t
}
