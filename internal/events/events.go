package events

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Required columns in every event source, CSV and SQLite alike.
var requiredColumns = []string{"repo_org", "repo_name", "before", "timestamp"}

// shaPattern accepts full and abbreviated hex object names.
var shaPattern = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// ValidSHA reports whether s looks like a commit SHA.
func ValidSHA(s string) bool { return shaPattern.MatchString(s) }

// Event is one force-push record: the repository it happened in, the commit
// the branch pointed at before the push, and when it happened (Unix epoch).
type Event struct {
	Org      string
	Repo     string
	Before   string
	PushedAt int64
}

// URL returns the HTTPS web URL of the repository.
func (e Event) URL() string {
	return "https://github.com/" + e.Org + "/" + e.Repo
}

// validate checks one raw source row and converts it into an Event. The row
// index is 1-based and appears in every error so a bad export is easy to fix.
func validate(org string, idx int, rawOrg, rawName, rawBefore, rawTS string) (Event, error) {
	repoOrg := strings.TrimSpace(rawOrg)
	repoName := strings.TrimSpace(rawName)
	before := strings.TrimSpace(rawBefore)

	if repoOrg == "" {
		return Event{}, fmt.Errorf("row %d: repo_org is empty", idx)
	}
	if repoOrg != org {
		return Event{}, fmt.Errorf("row %d: repo_org %q does not match target org %q", idx, repoOrg, org)
	}
	if repoName == "" {
		return Event{}, fmt.Errorf("row %d: repo_name is empty", idx)
	}
	if !ValidSHA(before) {
		return Event{}, fmt.Errorf("row %d: before %q does not look like a commit SHA", idx, before)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(rawTS), 10, 64)
	if err != nil {
		return Event{}, fmt.Errorf("row %d: timestamp must be an integer, got %q", idx, rawTS)
	}
	return Event{Org: repoOrg, Repo: repoName, Before: before, PushedAt: ts}, nil
}

// Set groups events by repository URL, preserving first-seen repository order
// and per-repository event order so batch runs are deterministic.
type Set struct {
	urls  []string
	byURL map[string][]Event
}

func NewSet() *Set {
	return &Set{byURL: make(map[string][]Event)}
}

func (s *Set) Add(e Event) {
	url := e.URL()
	if _, ok := s.byURL[url]; !ok {
		s.urls = append(s.urls, url)
	}
	s.byURL[url] = append(s.byURL[url], e)
}

// URLs returns repository URLs in first-seen order.
func (s *Set) URLs() []string { return s.urls }

// Events returns the events recorded for url, in source order.
func (s *Set) Events(url string) []Event { return s.byURL[url] }

// Repos returns the number of distinct repositories.
func (s *Set) Repos() int { return len(s.urls) }

// Total returns the number of events across all repositories.
func (s *Set) Total() int {
	n := 0
	for _, evs := range s.byURL {
		n += len(evs)
	}
	return n
}

// Filter selects repositories by org/name glob patterns. An empty Include
// list admits everything; Exclude always wins over Include.
type Filter struct {
	Include []string
	Exclude []string
}

func (f Filter) Match(org, name string) bool {
	target := org + "/" + name
	if len(f.Include) > 0 {
		included := false
		for _, p := range f.Include {
			if ok, err := doublestar.Match(p, target); err == nil && ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}
	for _, p := range f.Exclude {
		if ok, err := doublestar.Match(p, target); err == nil && ok {
			return false
		}
	}
	return true
}

// collect validates rows, applies the repository filter and groups the
// survivors. Validation is fail-fast: the first bad row aborts the whole run
// before any repository is touched.
func collect(org string, rows [][4]string, filter Filter) (*Set, error) {
	set := NewSet()
	for i, r := range rows {
		ev, err := validate(org, i+1, r[0], r[1], r[2], r[3])
		if err != nil {
			return nil, err
		}
		if !filter.Match(ev.Org, ev.Repo) {
			continue
		}
		set.Add(ev)
	}
	if set.Repos() == 0 {
		return nil, fmt.Errorf("no force-push events found for %s", org)
	}
	return set, nil
}
