package gameday_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/breakingball/internal/adapters/gameday"
	"github.com/okian/breakingball/internal/testfeeds"
	. "github.com/smartystreets/goconvey/convey"
)

var sampleDay = time.Date(2015, 4, 27, 0, 0, 0, 0, time.UTC)

func newClient(tree *testfeeds.Tree, srv *httptest.Server, opts ...gameday.Option) *gameday.Client {
	base := []gameday.Option{
		gameday.WithBaseURL(tree.BaseURL(srv.URL)),
		gameday.WithRateLimit(0, 1),
		gameday.WithBackoff(time.Millisecond, 5*time.Millisecond),
		gameday.WithRetries(3),
		gameday.WithTimeout(2 * time.Second),
	}
	return gameday.New(append(base, opts...)...)
}

func TestFetchGameIDs(t *testing.T) {
	Convey("Given a fixture host", t, func() {
		tree := testfeeds.NewTree()
		tree.AddGame(testfeeds.Sample())
		srv := httptest.NewServer(tree)
		defer srv.Close()
		client := newClient(tree, srv)
		ctx := context.Background()

		Convey("When listing the sample day", func() {
			ids, err := client.FetchGameIDs(ctx, sampleDay)

			Convey("Then the sample game is found", func() {
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []string{testfeeds.SampleGameID})
			})
		})

		Convey("When a day holds a generated slate", func() {
			day := time.Date(2016, 6, 1, 0, 0, 0, 0, time.UTC)
			for _, g := range testfeeds.Generate(day, 3, "Final") {
				tree.AddGame(g)
			}
			ids, err := client.FetchGameIDs(ctx, day)

			Convey("Then every game is listed once in order", func() {
				So(err, ShouldBeNil)
				So(ids, ShouldResemble, []string{
					"gid_2016_06_01_arimlb_atlmlb_1",
					"gid_2016_06_01_balmlb_bosmlb_1",
					"gid_2016_06_01_chamlb_chnmlb_1",
				})
			})
		})

		Convey("When the day has no games", func() {
			ids, err := client.FetchGameIDs(ctx, time.Date(2015, 12, 25, 0, 0, 0, 0, time.UTC))

			Convey("Then the result is empty and not an error", func() {
				So(err, ShouldBeNil)
				So(ids, ShouldNotBeNil)
				So(ids, ShouldBeEmpty)
			})
		})

		Convey("When the listing keeps failing", func() {
			dayDir := tree.DayDir(sampleDay)
			tree.Fail(dayDir, http.StatusInternalServerError, 100)
			ids, err := client.FetchGameIDs(ctx, sampleDay)

			Convey("Then it warns and returns nothing", func() {
				So(err, ShouldBeNil)
				So(ids, ShouldBeEmpty)
				So(tree.Hits(dayDir), ShouldEqual, 4)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := client.FetchGameIDs(cctx, sampleDay)

			Convey("Then the cancellation is returned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestFetchGame(t *testing.T) {
	Convey("Given a fixture host with the sample game", t, func() {
		tree := testfeeds.NewTree()
		tree.AddGame(testfeeds.Sample())
		srv := httptest.NewServer(tree)
		defer srv.Close()
		client := newClient(tree, srv)
		ctx := context.Background()
		dir := tree.GameDir(testfeeds.SampleGameID)

		Convey("When fetching the game", func() {
			docs, err := client.FetchGame(ctx, testfeeds.SampleGameID)

			Convey("Then every document is present", func() {
				So(err, ShouldBeNil)
				So(docs.Complete(), ShouldBeTrue)
				So(docs.Missing, ShouldBeEmpty)
				So(docs.URL, ShouldEqual, srv.URL+dir)
				So(docs.Linescore.Name, ShouldEqual, "game")
				So(docs.Boxscore.Name, ShouldEqual, "boxscore")
				So(docs.InningFiles, ShouldEqual, testfeeds.SampleInnings)
				So(len(docs.Innings.FindAll("atbat")), ShouldEqual, testfeeds.SampleAtBats)
			})

			Convey("Then only numbered inning files are fetched", func() {
				So(tree.Hits(dir+"inning/inning_1.xml"), ShouldEqual, 1)
				So(tree.Hits(dir+"inning/inning_hit.xml"), ShouldEqual, 0)
				So(tree.Hits(dir+"inning/inning_Scores.xml"), ShouldEqual, 0)
			})
		})

		Convey("When the linescore fails transiently", func() {
			tree.Fail(dir+"linescore.xml", http.StatusServiceUnavailable, 2)
			docs, err := client.FetchGame(ctx, testfeeds.SampleGameID)

			Convey("Then it is retried until it succeeds", func() {
				So(err, ShouldBeNil)
				So(docs.Linescore, ShouldNotBeNil)
				So(tree.Hits(dir+"linescore.xml"), ShouldEqual, 3)
			})
		})

		Convey("When the boxscore is missing", func() {
			tree.Remove(dir + "boxscore.xml")
			docs, err := client.FetchGame(ctx, testfeeds.SampleGameID)

			Convey("Then it is absent and not retried", func() {
				So(err, ShouldBeNil)
				So(docs.Boxscore, ShouldBeNil)
				So(docs.Complete(), ShouldBeFalse)
				So(docs.Missing, ShouldResemble, []string{gameday.DocBoxscore})
				So(tree.Hits(dir+"boxscore.xml"), ShouldEqual, 1)
			})
		})

		Convey("When the linescore is not XML", func() {
			tree.Put(dir+"linescore.xml", []byte("<html><body>gateway"))
			docs, err := client.FetchGame(ctx, testfeeds.SampleGameID)

			Convey("Then it is treated as absent", func() {
				So(err, ShouldBeNil)
				So(docs.Linescore, ShouldBeNil)
				So(docs.Missing, ShouldContain, gameday.DocLinescore)
			})
		})

		Convey("When the game has no inning directory", func() {
			for _, f := range []string{"inning_1.xml", "inning_2.xml", "inning_hit.xml", "inning_Scores.xml"} {
				tree.Remove(dir + "inning/" + f)
			}
			docs, err := client.FetchGame(ctx, testfeeds.SampleGameID)

			Convey("Then the summaries are still returned", func() {
				So(err, ShouldBeNil)
				So(docs.Complete(), ShouldBeTrue)
				So(docs.Innings, ShouldBeNil)
				So(docs.Missing, ShouldResemble, []string{gameday.DocInning})
			})
		})

		Convey("When the id is malformed", func() {
			_, err := client.FetchGame(ctx, "gid_20xx")

			Convey("Then it is rejected", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestGet(t *testing.T) {
	Convey("Given a server with fixed answers", t, func() {
		var hits int
		var agent string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			agent = r.UserAgent()
			switch r.URL.Path {
			case "/forbidden":
				w.WriteHeader(http.StatusForbidden)
			case "/busy":
				w.WriteHeader(http.StatusTooManyRequests)
			default:
				_, _ = w.Write([]byte("<ok/>"))
			}
		}))
		defer srv.Close()
		client := gameday.New(
			gameday.WithRateLimit(0, 1),
			gameday.WithBackoff(time.Millisecond, time.Millisecond),
			gameday.WithRetries(2),
			gameday.WithUserAgent("fixture-test"),
		)
		ctx := context.Background()

		Convey("When the document exists", func() {
			body, err := client.Get(ctx, srv.URL+"/doc.xml")

			Convey("Then the body is returned", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldEqual, "<ok/>")
				So(agent, ShouldEqual, "fixture-test")
			})
		})

		Convey("When the host refuses", func() {
			_, err := client.Get(ctx, srv.URL+"/forbidden")

			Convey("Then the document is unavailable after one attempt", func() {
				So(errors.Is(err, gameday.ErrDocumentUnavailable), ShouldBeTrue)
				var se *gameday.StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Code, ShouldEqual, http.StatusForbidden)
				So(hits, ShouldEqual, 1)
			})
		})

		Convey("When the host is throttling", func() {
			_, err := client.Get(ctx, srv.URL+"/busy")

			Convey("Then every retry is spent", func() {
				So(errors.Is(err, gameday.ErrDocumentUnavailable), ShouldBeTrue)
				So(hits, ShouldEqual, 3)
			})
		})

		Convey("When the host is unreachable", func() {
			dead := httptest.NewServer(http.NotFoundHandler())
			url := dead.URL
			dead.Close()
			_, err := client.Get(ctx, url+"/x.xml")

			Convey("Then the document is unavailable", func() {
				So(errors.Is(err, gameday.ErrDocumentUnavailable), ShouldBeTrue)
			})
		})
	})
}
