package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/breakingball/internal/adapters/repository"
	"github.com/okian/breakingball/internal/domain/coerce"
	"github.com/okian/breakingball/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const gameID = "gid_2015_04_27_phimlb_slnmlb_1"

func openMemory(t *testing.T) *repository.Store {
	t.Helper()
	store, err := repository.Connect(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return store
}

func game(status string) *model.Game {
	return &model.Game{
		GameID:   gameID,
		GameDate: time.Date(2015, 4, 27, 0, 0, 0, 0, time.UTC),
		Season:   2015,
		Status:   coerce.Ptr(status),
		HomeRuns: coerce.Ptr(4),
		URL:      "http://gd2.mlb.com/components/game/mlb/year_2015/month_04/day_27/" + gameID + "/",
	}
}

func commit(ctx context.Context, store *repository.Store, merge bool, recs ...model.Record) error {
	sess, err := store.Open(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	if merge {
		err = sess.Merge(recs...)
	} else {
		err = sess.AddAll(recs...)
	}
	if err != nil {
		return err
	}
	return sess.Commit(ctx)
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given an empty in-memory database", t, func() {
		ctx := context.Background()
		store := openMemory(t)

		Convey("When a game and a runner are added", func() {
			runner := &model.Runner{GameID: gameID, AtBatNumber: 5, RunnerID: 519184, End: coerce.Ptr(""), Score: true}
			err := commit(ctx, store, false, game("In Progress"), runner)

			Convey("Then both rows are stored", func() {
				So(err, ShouldBeNil)
				n, err := store.Count(ctx, model.TableGames)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				var end string
				var score bool
				row := store.DB().QueryRowContext(ctx, `SELECT "end", "score" FROM "runners" WHERE "runner_id" = ?`, 519184)
				So(row.Scan(&end, &score), ShouldBeNil)
				So(end, ShouldEqual, "")
				So(score, ShouldBeTrue)
			})

			Convey("And the same game is added again", func() {
				err := commit(ctx, store, false, game("Final"))

				Convey("Then the commit conflicts and writes nothing", func() {
					So(errors.Is(err, repository.ErrConflict), ShouldBeTrue)
					var status string
					So(store.DB().QueryRowContext(ctx, `SELECT "status" FROM "games"`).Scan(&status), ShouldBeNil)
					So(status, ShouldEqual, "In Progress")
				})
			})

			Convey("And the same game is merged with fewer columns", func() {
				g := game("Final")
				g.HomeRuns = nil
				err := commit(ctx, store, true, g)

				Convey("Then present columns change and absent ones survive", func() {
					So(err, ShouldBeNil)
					var status string
					var runs int
					So(store.DB().QueryRowContext(ctx, `SELECT "status", "home_team_runs" FROM "games"`).Scan(&status, &runs), ShouldBeNil)
					So(status, ShouldEqual, model.StatusFinal)
					So(runs, ShouldEqual, 4)
				})

				Convey("Then the final status can be looked up", func() {
					sess, err := store.Open(ctx)
					So(err, ShouldBeNil)
					defer sess.Close()
					ok, err := sess.Exists(ctx, model.TableGames,
						model.Column{Name: "game_id", Value: gameID},
						model.Column{Name: "status", Value: model.StatusFinal})
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
				})
			})
		})

		Convey("When a batch holds a duplicate key", func() {
			t1 := &model.Team{TeamID: 138, Season: 2015, Name: coerce.Ptr("Cardinals")}
			t2 := &model.Team{TeamID: 138, Season: 2015, Name: coerce.Ptr("St. Louis Cardinals")}
			first := commit(ctx, store, false, t1, t2)
			second := commit(ctx, store, true, t1, t2)

			Convey("Then inserts conflict and merges keep the last value", func() {
				So(errors.Is(first, repository.ErrConflict), ShouldBeTrue)
				So(second, ShouldBeNil)
				counts, err := store.Counts(ctx)
				So(err, ShouldBeNil)
				So(counts[model.TableTeams], ShouldEqual, 1)
				var name string
				So(store.DB().QueryRowContext(ctx, `SELECT "name" FROM "teams"`).Scan(&name), ShouldBeNil)
				So(name, ShouldEqual, "St. Louis Cardinals")
			})
		})

		Convey("When the schema is reset", func() {
			So(commit(ctx, store, false, game("Final")), ShouldBeNil)
			So(store.Reset(ctx), ShouldBeNil)

			Convey("Then every table is empty", func() {
				counts, err := store.Counts(ctx)
				So(err, ShouldBeNil)
				for _, table := range model.Tables {
					So(counts[table], ShouldEqual, 0)
				}
			})
		})

		Convey("When counting an unknown table", func() {
			_, err := store.Count(ctx, "players")

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrUnknownTable), ShouldBeTrue)
			})
		})
	})
}

func TestConnect(t *testing.T) {
	Convey("Given an unsupported driver", t, func() {
		_, err := repository.Connect(context.Background(), "mysql", "root@/db")

		Convey("Then it is rejected", func() {
			So(errors.Is(err, repository.ErrUnknownDialect), ShouldBeTrue)
		})
	})
}
