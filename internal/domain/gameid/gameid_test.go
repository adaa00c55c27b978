package gameid_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/breakingball/internal/domain/gameid"
	"github.com/smartystreets/goconvey/convey"
)

func TestDecodeDate(t *testing.T) {
	convey.Convey("Given well-formed game ids", t, func() {
		cases := []struct {
			id   string
			want time.Time
		}{
			{"gid_2015_04_27_phimlb_slnmlb_1", time.Date(2015, 4, 27, 0, 0, 0, 0, time.UTC)},
			{"gid_2015_04_06_bosmlb_phimlb_1", time.Date(2015, 4, 6, 0, 0, 0, 0, time.UTC)},
			{"gid_2000_04_30_chamlb_detmlb_1", time.Date(2000, 4, 30, 0, 0, 0, 0, time.UTC)},
			{"gid_2008_03_01_atlmlb_houmlb_1", time.Date(2008, 3, 1, 0, 0, 0, 0, time.UTC)},
		}

		convey.Convey("Then the encoded date is returned", func() {
			for _, c := range cases {
				got, err := gameid.DecodeDate(c.id)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Equal(c.want), convey.ShouldBeTrue)
			}
		})
	})

	convey.Convey("Given malformed game ids", t, func() {
		bad := []string{
			"",
			"gid_2015",
			"gid_20x5_04_27_phimlb_slnmlb_1",
			"gid_2015_13_01_phimlb_slnmlb_1",
			"gid_2015_02_30_phimlb_slnmlb_1",
			"gid_2015_-4_27_phimlb_slnmlb_1",
		}

		convey.Convey("Then ErrMalformedIdentifier is returned", func() {
			for _, id := range bad {
				_, err := gameid.DecodeDate(id)
				convey.So(errors.Is(err, gameid.ErrMalformedIdentifier), convey.ShouldBeTrue)
			}
		})
	})
}

func TestBuildRoundTrip(t *testing.T) {
	convey.Convey("Given ids built from every day of a season", t, func() {
		days := gameid.DateRange(time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC))
		convey.So(len(days), convey.ShouldEqual, 366)

		convey.Convey("Then decoding returns the original date", func() {
			for _, d := range days {
				got, err := gameid.DecodeDate(gameid.Build(d, "nynmlb", "wasmlb", 2))
				convey.So(err, convey.ShouldBeNil)
				convey.So(got.Equal(d), convey.ShouldBeTrue)
			}
		})
	})
}

func TestEncodeURL(t *testing.T) {
	convey.Convey("Given the default codec", t, func() {
		codec := gameid.New("")

		convey.Convey("When encoding the scenario id", func() {
			url, err := codec.EncodeURL("gid_2015_04_27_phimlb_slnmlb_1")

			convey.Convey("Then the locator is zero padded and ends with the id", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(url, convey.ShouldEqual, "http://gd2.mlb.com/components/game/mlb/year_2015/month_04/day_27/gid_2015_04_27_phimlb_slnmlb_1/")
			})
		})

		convey.Convey("When encoding a malformed id", func() {
			_, err := codec.EncodeURL("gid_bad")

			convey.Convey("Then the decode error is returned", func() {
				convey.So(errors.Is(err, gameid.ErrMalformedIdentifier), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When building a date locator", func() {
			url := codec.DateURL(time.Date(2014, 5, 4, 0, 0, 0, 0, time.UTC))

			convey.Convey("Then it points at the day directory", func() {
				convey.So(url, convey.ShouldEqual, "http://gd2.mlb.com/components/game/mlb/year_2014/month_05/day_04/")
			})
		})
	})

	convey.Convey("Given a codec with a base lacking a trailing slash", t, func() {
		codec := gameid.New("http://localhost:8080/mlb")

		convey.Convey("Then the slash is added", func() {
			convey.So(codec.BaseURL(), convey.ShouldEqual, "http://localhost:8080/mlb/")
			convey.So(codec.DateURL(time.Date(2008, 4, 28, 0, 0, 0, 0, time.UTC)), convey.ShouldEqual, "http://localhost:8080/mlb/year_2008/month_04/day_28/")
		})
	})
}

func TestDateRange(t *testing.T) {
	convey.Convey("Given a week", t, func() {
		days := gameid.DateRange(time.Date(2013, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2013, 6, 7, 0, 0, 0, 0, time.UTC))

		convey.Convey("Then both ends are included", func() {
			convey.So(len(days), convey.ShouldEqual, 7)
			convey.So(days[0].Day(), convey.ShouldEqual, 1)
			convey.So(days[6].Day(), convey.ShouldEqual, 7)
		})
	})

	convey.Convey("Given an inverted range", t, func() {
		days := gameid.DateRange(time.Date(2013, 6, 7, 0, 0, 0, 0, time.UTC), time.Date(2013, 6, 1, 0, 0, 0, 0, time.UTC))

		convey.Convey("Then it is empty", func() {
			convey.So(days, convey.ShouldBeEmpty)
		})
	})
}
