// Package testfeeds serves GameDay-shaped feeds for tests and local runs.
//
// The package embeds one complete recorded game and can clone it into any
// number of synthetic games per day. A Tree holds the documents by path and
// serves them over HTTP with Apache-style directory listings, the way the
// public GameDay host does.
package testfeeds

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/okian/breakingball/internal/domain/gameid"
)

//go:embed testdata
var testdata embed.FS

// SampleGameID is the recorded game shipped in testdata.
const SampleGameID = "gid_2015_04_27_phimlb_slnmlb_1"

// Counts of what the sample game yields once extracted.
const (
	SampleBatters  = 4
	SamplePitchers = 4
	SampleAtBats   = 6
	SamplePitches  = 9
	SampleRunners  = 5
	SampleInnings  = 2
)

// Game is one game directory: file paths relative to the directory mapped
// to their contents.
type Game struct {
	ID    string
	Files map[string][]byte
}

// Clone returns a deep copy.
func (g Game) Clone() Game {
	files := make(map[string][]byte, len(g.Files))
	for k, v := range g.Files {
		files[k] = append([]byte(nil), v...)
	}
	return Game{ID: g.ID, Files: files}
}

// Sample returns the recorded game.
func Sample() Game {
	g := Game{ID: SampleGameID, Files: map[string][]byte{}}
	root := path.Join("testdata", SampleGameID)
	err := fs.WalkDir(testdata, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := testdata.ReadFile(p)
		if err != nil {
			return err
		}
		g.Files[strings.TrimPrefix(p, root+"/")] = b
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("testfeeds: embedded sample unreadable: %v", err))
	}
	return g
}

// club codes used for synthetic match-ups.
var clubs = []string{
	"ari", "atl", "bal", "bos", "cha", "chn", "cin", "cle", "col", "det",
	"hou", "kca", "ana", "lan", "mia", "mil", "min", "nya", "nyn", "oak",
	"phi", "pit", "sdn", "sea", "sfn", "sln", "tba", "tex", "tor", "was",
}

// MaxGamesPerDay is the number of distinct match-ups Generate can build.
const MaxGamesPerDay = 15

// Generate clones the sample into n games played on date, each with its own
// id and the given status.
func Generate(date time.Time, n int, status string) []Game {
	if n > MaxGamesPerDay {
		n = MaxGamesPerDay
	}
	sample := Sample()
	games := make([]Game, 0, n)
	for i := 0; i < n; i++ {
		away, home := clubs[2*i]+"mlb", clubs[2*i+1]+"mlb"
		id := gameid.Build(date, away, home, 1)
		games = append(games, Retarget(sample, id, status))
	}
	return games
}

// Retarget rewrites a game's documents to carry a different id and, when
// status is non-empty, a different linescore status.
func Retarget(g Game, id, status string) Game {
	out := g.Clone()
	out.ID = id

	oldLink := strings.TrimPrefix(g.ID, "gid_")
	newLink := strings.TrimPrefix(id, "gid_")
	r := strings.NewReplacer(
		oldLink, newLink,
		slashed(oldLink), slashed(newLink),
	)
	for k, v := range out.Files {
		s := r.Replace(string(v))
		if status != "" && k == "linescore.xml" {
			s = SetAttr(s, "status", status)
		}
		out.Files[k] = []byte(s)
	}
	return out
}

// slashed turns 2015_04_27_phimlb_slnmlb_1 into 2015/04/27/phimlb-slnmlb-1.
func slashed(link string) string {
	parts := strings.SplitN(link, "_", 4)
	if len(parts) < 4 {
		return link
	}
	return parts[0] + "/" + parts[1] + "/" + parts[2] + "/" + strings.ReplaceAll(parts[3], "_", "-")
}

// SetAttr replaces the first attr="..." occurrence in doc.
func SetAttr(doc, attr, value string) string {
	needle := " " + attr + `="`
	i := strings.Index(doc, needle)
	if i < 0 {
		return doc
	}
	start := i + len(needle)
	end := strings.IndexByte(doc[start:], '"')
	if end < 0 {
		return doc
	}
	return doc[:start] + value + doc[start+end:]
}
