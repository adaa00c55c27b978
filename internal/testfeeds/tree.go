package testfeeds

import (
	"fmt"
	"html"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/breakingball/internal/domain/gameid"
)

// DefaultPrefix is where the GameDay tree is mounted on the public host.
const DefaultPrefix = "/components/game/mlb/"

type failure struct {
	status    int
	remaining int
}

// Tree is an in-memory GameDay directory tree served over HTTP.
type Tree struct {
	mu       sync.RWMutex
	prefix   string
	files    map[string][]byte
	failures map[string]*failure
	hits     map[string]int
}

// NewTree returns an empty tree mounted at DefaultPrefix.
func NewTree() *Tree {
	return &Tree{
		prefix:   DefaultPrefix,
		files:    make(map[string][]byte),
		failures: make(map[string]*failure),
		hits:     make(map[string]int),
	}
}

// BaseURL returns the locator root for a server hosting the tree.
func (t *Tree) BaseURL(serverURL string) string {
	return strings.TrimSuffix(serverURL, "/") + t.prefix
}

// GameDir returns the absolute path of a game's directory.
func (t *Tree) GameDir(id string) string {
	d, err := gameid.DecodeDate(id)
	if err != nil {
		return t.prefix + id + "/"
	}
	return t.DayDir(d) + id + "/"
}

// DayDir returns the absolute path of a day's directory.
func (t *Tree) DayDir(d time.Time) string {
	return fmt.Sprintf("%syear_%04d/month_%02d/day_%02d/", t.prefix, d.Year(), int(d.Month()), d.Day())
}

// AddGame places every document of g under its game directory.
func (t *Tree) AddGame(g Game) {
	dir := t.GameDir(g.ID)
	t.mu.Lock()
	defer t.mu.Unlock()
	for rel, body := range g.Files {
		t.files[dir+rel] = body
	}
}

// Put stores body at an absolute path.
func (t *Tree) Put(path string, body []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[path] = body
}

// Remove deletes the file at path.
func (t *Tree) Remove(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, path)
}

// Fail makes the next n requests for path answer with status.
func (t *Tree) Fail(path string, status, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[path] = &failure{status: status, remaining: n}
}

// Hits returns how many requests were made for path.
func (t *Tree) Hits(path string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hits[path]
}

// TotalHits returns the number of requests served.
func (t *Tree) TotalHits() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, h := range t.hits {
		n += h
	}
	return n
}

func (t *Tree) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path

	t.mu.Lock()
	t.hits[p]++
	if f, ok := t.failures[p]; ok && f.remaining > 0 {
		f.remaining--
		t.mu.Unlock()
		http.Error(w, http.StatusText(f.status), f.status)
		return
	}
	t.mu.Unlock()

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if strings.HasSuffix(p, "/") {
		t.serveDir(w, p)
		return
	}

	t.mu.RLock()
	body, ok := t.files[p]
	t.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write(body)
}

// serveDir renders the immediate children of dir as an index page.
func (t *Tree) serveDir(w http.ResponseWriter, dir string) {
	t.mu.RLock()
	seen := make(map[string]struct{})
	for p := range t.files {
		rest, ok := strings.CutPrefix(p, dir)
		if !ok || rest == "" {
			continue
		}
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			rest = rest[:i+1]
		}
		seen[rest] = struct{}{}
	}
	t.mu.RUnlock()

	if len(seen) == 0 {
		http.Error(w, "404 Not Found", http.StatusNotFound)
		return
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	title := html.EscapeString("Index of " + strings.TrimSuffix(dir, "/"))
	b.WriteString("<!DOCTYPE HTML PUBLIC \"-//W3C//DTD HTML 3.2 Final//EN\">\n<html>\n <head>\n  <title>")
	b.WriteString(title)
	b.WriteString("</title>\n </head>\n <body>\n<h1>")
	b.WriteString(title)
	b.WriteString("</h1>\n<ul><li><a href=\"../\"> Parent Directory</a></li>\n")
	for _, n := range names {
		esc := html.EscapeString(n)
		fmt.Fprintf(&b, "<li><a href=\"%s\"> %s</a></li>\n", esc, esc)
	}
	b.WriteString("</ul>\n</body></html>\n")

	w.Header().Set("Content-Type", "text/html;charset=ISO-8859-1")
	_, _ = w.Write([]byte(b.String()))
}
