// Package gameid decodes GameDay game identifiers into calendar dates and
// feed locators.
//
// A game id looks like gid_2015_04_27_phimlb_slnmlb_1. Decoding is purely
// positional: the year, month and day are read from fixed offsets, so any
// change to the id layout upstream must be validated before calling in here.
package gameid

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the root of the public GameDay tree.
const DefaultBaseURL = "http://gd2.mlb.com/components/game/mlb/"

// Fixed character offsets of the date fields inside a game id.
const (
	yearStart, yearEnd   = 4, 8
	monthStart, monthEnd = 9, 11
	dayStart, dayEnd     = 12, 14
)

// Codec builds locators relative to a base URL.
type Codec struct {
	baseURL string
}

// New returns a Codec rooted at baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string) *Codec {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Codec{baseURL: baseURL}
}

// BaseURL returns the root locator used by the codec.
func (c *Codec) BaseURL() string { return c.baseURL }

// DecodeDate extracts the calendar date encoded in id. The returned time is
// midnight UTC on that date.
func DecodeDate(id string) (time.Time, error) {
	if len(id) < dayEnd {
		return time.Time{}, fmt.Errorf("%w: %q too short", ErrMalformedIdentifier, id)
	}
	year, err := digits(id[yearStart:yearEnd])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q year: %v", ErrMalformedIdentifier, id, err)
	}
	month, err := digits(id[monthStart:monthEnd])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q month: %v", ErrMalformedIdentifier, id, err)
	}
	day, err := digits(id[dayStart:dayEnd])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q day: %v", ErrMalformedIdentifier, id, err)
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject instead.
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q has no such date", ErrMalformedIdentifier, id)
	}
	return d, nil
}

// EncodeURL returns the directory locator holding every feed of the game.
func (c *Codec) EncodeURL(id string) (string, error) {
	d, err := DecodeDate(id)
	if err != nil {
		return "", err
	}
	return c.DateURL(d) + id + "/", nil
}

// DateURL returns the directory locator listing every game played on date.
func (c *Codec) DateURL(date time.Time) string {
	return fmt.Sprintf("%syear_%04d/month_%02d/day_%02d/", c.baseURL, date.Year(), int(date.Month()), date.Day())
}

// Build composes a game id for a date. away and home are the six character
// club codes (e.g. "phimlb"); n is the game number of the day.
func Build(date time.Time, away, home string, n int) string {
	return fmt.Sprintf("gid_%04d_%02d_%02d_%s_%s_%d", date.Year(), int(date.Month()), date.Day(), away, home, n)
}

// DateRange returns every day from start to end inclusive. It returns nil
// when end is before start.
func DateRange(start, end time.Time) []time.Time {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// digits parses a fixed-width all-digit field. strconv.Atoi alone would
// accept a leading sign.
func digits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric field %q", s)
		}
	}
	return strconv.Atoi(s)
}
