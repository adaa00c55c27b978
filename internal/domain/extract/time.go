package extract

import (
	"strings"
	"time"
)

// gameTimeLayout matches linescore time + ampm, e.g. "7:15 PM".
const gameTimeLayout = "3:04 PM"

// zulu parses an upstream UTC stamp such as 2015-04-27T23:15:51Z.
func (e *Extractor) zulu(raw string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, false
	}
	return t.In(e.loc), true
}

// clock combines the game date with a local start time.
func (e *Extractor) clock(hm, ampm string) (time.Time, bool) {
	t, err := time.Parse(gameTimeLayout, strings.TrimSpace(hm)+" "+strings.ToUpper(strings.TrimSpace(ampm)))
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(e.date.Year(), e.date.Month(), e.date.Day(), t.Hour(), t.Minute(), 0, 0, e.loc), true
}
