package gameday

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const inningIndex = `<html><body><ul>
<li><a href="../"> Parent Directory</a></li>
<li><a href="inning_1.xml"> inning_1.xml</a></li>
<li><a href="inning_10.xml"> inning_10.xml</a></li>
<li><a href=" inning_2.xml "> inning_2.xml</a></li>
<li><a href="inning_2.xml"> inning_2.xml</a></li>
<li><a href="inning_Scores.xml"> inning_Scores.xml</a></li>
<li><a href="inning_hit.xml"> inning_hit.xml</a></li>
<li><a name="anchor">no link</a></li>
</ul></body></html>`

func TestHrefs(t *testing.T) {
	Convey("Given an index page", t, func() {
		got := hrefs([]byte(inningIndex))

		Convey("Then every anchor target is returned trimmed", func() {
			So(got, ShouldResemble, []string{
				"../", "inning_1.xml", "inning_10.xml", "inning_2.xml", "inning_2.xml",
				"inning_Scores.xml", "inning_hit.xml",
			})
		})
	})

	Convey("Given a page without anchors", t, func() {
		Convey("Then nothing is returned", func() {
			So(hrefs([]byte("<p>empty</p>")), ShouldBeEmpty)
			So(hrefs(nil), ShouldBeEmpty)
		})
	})
}

func TestInningURLs(t *testing.T) {
	Convey("Given an inning directory out of numeric order", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(inningIndex))
		}))
		defer srv.Close()
		c := New(WithRateLimit(0, 1))

		urls, err := c.inningURLs(context.Background(), srv.URL+"/game/")

		Convey("Then numbered files are resolved, deduplicated and sorted", func() {
			So(err, ShouldBeNil)
			So(urls, ShouldResemble, []string{
				srv.URL + "/game/inning/inning_1.xml",
				srv.URL + "/game/inning/inning_2.xml",
				srv.URL + "/game/inning/inning_10.xml",
			})
		})
	})
}
