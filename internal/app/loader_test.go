package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/okian/breakingball/internal/adapters/gameday"
	"github.com/okian/breakingball/internal/adapters/repository"
	service "github.com/okian/breakingball/internal/app"
	"github.com/okian/breakingball/internal/domain/gameid"
	"github.com/okian/breakingball/internal/domain/model"
	"github.com/okian/breakingball/internal/testfeeds"
	. "github.com/smartystreets/goconvey/convey"
)

var sampleDay = time.Date(2015, 4, 27, 0, 0, 0, 0, time.UTC)

// fixture is a GameDay host and an empty database.
type fixture struct {
	tree   *testfeeds.Tree
	srv    *httptest.Server
	client *gameday.Client
	store  *repository.Store
}

func newFixture(t *testing.T, wrap ...func(http.Handler) http.Handler) *fixture {
	t.Helper()
	tree := testfeeds.NewTree()
	var h http.Handler = tree
	for _, w := range wrap {
		h = w(h)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store, err := repository.Connect(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	client := gameday.New(
		gameday.WithBaseURL(tree.BaseURL(srv.URL)),
		gameday.WithRateLimit(0, 1),
		gameday.WithBackoff(time.Millisecond, 5*time.Millisecond),
		gameday.WithRetries(2),
		gameday.WithTimeout(2*time.Second),
	)
	return &fixture{tree: tree, srv: srv, client: client, store: store}
}

func (f *fixture) count(table string) int {
	n, err := f.store.Count(context.Background(), table)
	if err != nil {
		panic(err)
	}
	return n
}

func (f *fixture) status(id string) string {
	var status string
	row := f.store.DB().QueryRowContext(context.Background(), `SELECT "status" FROM "games" WHERE "game_id" = ?`, id)
	if err := row.Scan(&status); err != nil {
		return ""
	}
	return status
}

// dump returns every row of every table, each row rendered as text and the
// rows of a table sorted.
func (f *fixture) dump() map[string][]string {
	out := make(map[string][]string, len(model.Tables))
	for _, table := range model.Tables {
		rows, err := f.store.DB().QueryContext(context.Background(), `SELECT * FROM "`+table+`"`)
		if err != nil {
			panic(err)
		}
		cols, err := rows.Columns()
		if err != nil {
			panic(err)
		}
		var lines []string
		for rows.Next() {
			vals := make([]any, len(cols))
			ptrs := make([]any, len(cols))
			for i := range vals {
				ptrs[i] = &vals[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				panic(err)
			}
			line := ""
			for i, v := range vals {
				if b, ok := v.([]byte); ok {
					v = string(b)
				}
				line += fmt.Sprintf("%s=%v;", cols[i], v)
			}
			lines = append(lines, line)
		}
		if err := rows.Err(); err != nil {
			panic(err)
		}
		_ = rows.Close()
		sort.Strings(lines)
		out[table] = lines
	}
	return out
}

func TestLoaderLoad(t *testing.T) {
	Convey("Given the sample game on the host and an empty database", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		f.tree.AddGame(testfeeds.Sample())
		loader := service.NewLoader(f.client, f.store)

		Convey("When the game is loaded", func() {
			out, err := loader.Load(ctx, testfeeds.SampleGameID, true)

			Convey("Then every table is written by plain inserts", func() {
				So(err, ShouldBeNil)
				So(out.State, ShouldEqual, service.StatePersisted)
				So(out.Merged, ShouldBeFalse)
				So(out.Missing, ShouldBeEmpty)
				So(f.count(model.TableGames), ShouldEqual, 1)
				So(f.count(model.TableTeams), ShouldEqual, 2)
				So(f.count(model.TableTeamStats), ShouldEqual, 2)
				So(f.count(model.TableBatters), ShouldEqual, testfeeds.SampleBatters)
				So(f.count(model.TablePitchers), ShouldEqual, testfeeds.SamplePitchers)
				So(f.count(model.TableAtBats), ShouldEqual, testfeeds.SampleAtBats)
				So(f.count(model.TablePitches), ShouldEqual, testfeeds.SamplePitches)
				So(f.count(model.TableRunners), ShouldEqual, testfeeds.SampleRunners)
				So(out.Records, ShouldEqual, 1+2+2+testfeeds.SampleBatters+testfeeds.SamplePitchers+
					testfeeds.SampleAtBats+testfeeds.SamplePitches+testfeeds.SampleRunners)
				So(f.status(testfeeds.SampleGameID), ShouldEqual, model.StatusFinal)
			})

			Convey("And loaded again while skipping finals", func() {
				hits := f.tree.TotalHits()
				again, err := loader.Load(ctx, testfeeds.SampleGameID, true)

				Convey("Then nothing is fetched or written", func() {
					So(err, ShouldBeNil)
					So(again.State, ShouldEqual, service.StateSkipped)
					So(again.Records, ShouldEqual, 0)
					So(f.tree.TotalHits(), ShouldEqual, hits)
				})
			})

			Convey("And loaded again with refresh", func() {
				before, err := f.store.Counts(ctx)
				So(err, ShouldBeNil)
				rows := f.dump()
				hits := f.tree.TotalHits()
				again, err := loader.Load(ctx, testfeeds.SampleGameID, false)

				Convey("Then the feeds are fetched and the rows merged in place", func() {
					So(err, ShouldBeNil)
					So(again.State, ShouldEqual, service.StatePersisted)
					So(again.Merged, ShouldBeTrue)
					So(f.tree.TotalHits(), ShouldBeGreaterThan, hits)
					after, err := f.store.Counts(ctx)
					So(err, ShouldBeNil)
					So(after, ShouldResemble, before)
					So(f.status(testfeeds.SampleGameID), ShouldEqual, model.StatusFinal)
				})

				Convey("Then every stored row is unchanged field for field", func() {
					So(err, ShouldBeNil)
					So(f.dump(), ShouldResemble, rows)
					So(len(rows[model.TablePitches]), ShouldEqual, testfeeds.SamplePitches)
				})
			})
		})
	})
}

func TestLoaderConflictFallback(t *testing.T) {
	Convey("Given a game stored while in progress", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		f.tree.AddGame(testfeeds.Retarget(testfeeds.Sample(), testfeeds.SampleGameID, "In Progress"))
		loader := service.NewLoader(f.client, f.store)

		first, err := loader.Load(ctx, testfeeds.SampleGameID, true)
		So(err, ShouldBeNil)
		So(first.State, ShouldEqual, service.StatePersisted)
		So(f.status(testfeeds.SampleGameID), ShouldEqual, "In Progress")

		Convey("When the feed turns final and the game is loaded again", func() {
			f.tree.AddGame(testfeeds.Sample())
			out, err := loader.Load(ctx, testfeeds.SampleGameID, true)

			Convey("Then the conflicting rows are merged with the new values", func() {
				So(err, ShouldBeNil)
				So(out.State, ShouldEqual, service.StatePersisted)
				So(out.Merged, ShouldBeTrue)
				So(f.status(testfeeds.SampleGameID), ShouldEqual, model.StatusFinal)
				So(f.count(model.TableGames), ShouldEqual, 1)
				So(f.count(model.TableAtBats), ShouldEqual, testfeeds.SampleAtBats)
			})

			Convey("And a later load skips it", func() {
				again, err := loader.Load(ctx, testfeeds.SampleGameID, true)
				So(err, ShouldBeNil)
				So(again.State, ShouldEqual, service.StateSkipped)
			})
		})
	})
}

func TestLoaderIncompleteDocuments(t *testing.T) {
	Convey("Given a game whose boxscore is missing", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		f.tree.AddGame(testfeeds.Sample())
		f.tree.Remove(f.tree.GameDir(testfeeds.SampleGameID) + "boxscore.xml")
		loader := service.NewLoader(f.client, f.store)

		Convey("When the game is loaded", func() {
			out, err := loader.Load(ctx, testfeeds.SampleGameID, true)

			Convey("Then the load ends after fetching and writes nothing", func() {
				So(err, ShouldBeNil)
				So(out.State, ShouldEqual, service.StateFetched)
				So(out.Missing, ShouldResemble, []string{gameday.DocBoxscore})
				So(out.Records, ShouldEqual, 0)
				for _, table := range model.Tables {
					So(f.count(table), ShouldEqual, 0)
				}
			})
		})
	})
}

func TestLoaderErrors(t *testing.T) {
	Convey("Given a loader", t, func() {
		ctx := context.Background()
		f := newFixture(t)
		f.tree.AddGame(testfeeds.Sample())
		loader := service.NewLoader(f.client, f.store)

		Convey("When the id is malformed", func() {
			_, err := loader.Load(ctx, "gid_2015_04_xx_phimlb_slnmlb_1", false)

			Convey("Then the load fails with a malformed identifier", func() {
				So(errors.Is(err, gameid.ErrMalformedIdentifier), ShouldBeTrue)
			})
		})

		Convey("When the database is gone", func() {
			So(f.store.Close(), ShouldBeNil)
			out, err := loader.Load(ctx, testfeeds.SampleGameID, false)

			Convey("Then the load fails with a persistence error", func() {
				So(errors.Is(err, service.ErrPersistence), ShouldBeTrue)
				So(out.State, ShouldEqual, service.StateParsed)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := loader.Load(cctx, testfeeds.SampleGameID, false)

			Convey("Then the load fails", func() {
				So(err, ShouldNotBeNil)
				So(f.count(model.TableGames), ShouldEqual, 0)
			})
		})
	})
}
