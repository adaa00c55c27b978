package gameday

import (
	"bytes"
	"context"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/breakingball/pkg/logger"
	"golang.org/x/net/html"
)

const gamePrefix = "gid_"

// inningFile matches numbered inning documents and excludes the
// inning_hit.xml and inning_Scores.xml summaries.
var inningFile = regexp.MustCompile(`[0-9]\.xml$`)

var inningNumber = regexp.MustCompile(`([0-9]+)\.xml$`)

// FetchGameIDs returns the ids of every game published for date, in
// listing order. A day without games yields an empty slice. Any failure
// other than context cancellation is logged and yields an empty slice too.
func (c *Client) FetchGameIDs(ctx context.Context, date time.Time) ([]string, error) {
	dayURL := c.codec.DateURL(date)
	body, err := c.fetch(ctx, dayURL, DocListing)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if IsNotFound(err) {
			c.log.Debug(ctx, "no games published", logger.String(logger.KeyURL, dayURL))
		} else {
			c.log.Warn(ctx, "could not list games", logger.String(logger.KeyURL, dayURL), logger.Error(err))
		}
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	ids := []string{}
	for _, href := range hrefs(body) {
		id := path.Base(strings.TrimSuffix(href, "/"))
		if !strings.HasPrefix(id, gamePrefix) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

// inningURLs lists the numbered inning documents below a game directory,
// ordered by inning number.
func (c *Client) inningURLs(ctx context.Context, gameURL string) ([]string, error) {
	dir := gameURL + "inning/"
	body, err := c.fetch(ctx, dir, DocInningList)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(dir)
	if err != nil {
		return nil, err
	}

	type entry struct {
		n   int
		url string
	}
	var entries []entry
	seen := make(map[string]struct{})
	for _, href := range hrefs(body) {
		if !inningFile.MatchString(href) {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref).String()
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		n := 0
		if m := inningNumber.FindStringSubmatch(href); m != nil {
			n, _ = strconv.Atoi(m[1])
		}
		entries = append(entries, entry{n: n, url: abs})
	}
	// Directory indexes sort inning_10 before inning_2.
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].n < entries[j].n })

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.url
	}
	return out, nil
}

// hrefs returns the trimmed href of every anchor in an HTML page.
func hrefs(page []byte) []string {
	var out []string
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if h := strings.TrimSpace(string(val)); h != "" {
						out = append(out, h)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}
