package model_test

import (
	"testing"
	"time"

	"github.com/okian/breakingball/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func names(cols []model.Column) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.Name)
	}
	return out
}

func value(cols []model.Column, name string) (any, bool) {
	for _, c := range cols {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

func TestColumns(t *testing.T) {
	convey.Convey("Given a game with only required fields", t, func() {
		g := &model.Game{
			GameID:   "gid_2015_04_27_phimlb_slnmlb_1",
			GameDate: time.Date(2015, 4, 27, 0, 0, 0, 0, time.UTC),
			Season:   2015,
			URL:      "http://example/gid_2015_04_27_phimlb_slnmlb_1/",
		}

		convey.Convey("Then absent fields produce no columns", func() {
			cols := g.Columns()
			convey.So(names(cols), convey.ShouldResemble, []string{"game_date", "season", "top_inning", "url"})
			_, ok := value(cols, "venue")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then the key is the game id", func() {
			convey.So(g.Key(), convey.ShouldResemble, []model.Column{{Name: "game_id", Value: "gid_2015_04_27_phimlb_slnmlb_1"}})
			convey.So(g.Table(), convey.ShouldEqual, model.TableGames)
		})
	})

	convey.Convey("Given a batter with present pointer fields", t, func() {
		hits, avg, pos := 2, 0.365, "3B"
		b := &model.Batter{GameID: "g", TeamID: 138, BatterID: 572761, Hits: &hits, Avg: &avg, Position: &pos}

		convey.Convey("Then values are dereferenced", func() {
			cols := b.Columns()
			v, ok := value(cols, "hits")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, 2)
			v, _ = value(cols, "avg")
			convey.So(v, convey.ShouldEqual, 0.365)
			v, _ = value(cols, "position")
			convey.So(v, convey.ShouldEqual, "3B")
			convey.So(len(cols), convey.ShouldEqual, 3)
		})

		convey.Convey("Then Values puts the key first", func() {
			all := model.Values(b)
			convey.So(names(all)[:3], convey.ShouldResemble, []string{"game_id", "team_id", "batter_id"})
			convey.So(len(all), convey.ShouldEqual, 6)
		})
	})

	convey.Convey("Given a runner", t, func() {
		r := &model.Runner{GameID: "g", AtBatNumber: 4, RunnerID: 1, Score: true}

		convey.Convey("Then boolean flags are always written", func() {
			convey.So(names(r.Columns()), convey.ShouldResemble, []string{"score", "rbi", "earned"})
		})
	})

	convey.Convey("Given a pitcher decision", t, func() {
		win := "true"
		p := &model.Pitcher{PitcherID: 1, GameID: "g", Win: &win}

		convey.Convey("Then the raw text is kept", func() {
			v, ok := value(p.Columns(), "win")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(v, convey.ShouldEqual, "true")
			_, ok = value(p.Columns(), "loss")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestWinrate(t *testing.T) {
	convey.Convey("Given win and loss counts", t, func() {
		convey.So(model.Winrate(0, 0), convey.ShouldEqual, 0)
		convey.So(model.Winrate(3, 2), convey.ShouldAlmostEqual, 0.6)
		convey.So(model.Winrate(5, 0), convey.ShouldEqual, 1)
	})
}
