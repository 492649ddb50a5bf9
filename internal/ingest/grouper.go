package ingest

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"autolib/internal/config"
)

// Group is a quiescent directory and the files that arrived for it.
type Group struct {
	Dir   string
	Files []string
}

type tracked struct {
	files       map[string]struct{}
	lastArrival time.Time
}

type emitted struct {
	files map[string]struct{}
	at    time.Time
}

// Grouper debounces per-directory file arrivals. AddFile never emits; groups
// only leave through CheckGroups once a directory has been quiet for the
// window. With the merge policy, a file arriving shortly after its directory
// was emitted re-opens the group seeded with the already-emitted files, so
// one late straggler produces a superset group instead of a fragment.
type Grouper struct {
	mu      sync.Mutex
	window  time.Duration
	policy  string
	pending map[string]*tracked
	recent  map[string]emitted
}

// mergeHorizonFactor bounds how long emitted groups stay eligible for
// re-opening under the merge policy.
const mergeHorizonFactor = 10

// NewGrouper creates a grouper with the given quiet window and regroup policy.
func NewGrouper(window time.Duration, policy string) *Grouper {
	if window <= 0 {
		window = time.Second
	}
	return &Grouper{
		window:  window,
		policy:  policy,
		pending: make(map[string]*tracked),
		recent:  make(map[string]emitted),
	}
}

// AddFile records a file arrival and stamps its directory's last-arrival
// time to now.
func (g *Grouper) AddFile(path string) {
	g.AddFileAt(path, time.Now())
}

// AddFileAt is AddFile with an explicit clock, used by tests.
func (g *Grouper) AddFileAt(path string, now time.Time) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.pending[dir]
	if !ok {
		entry = &tracked{files: make(map[string]struct{})}
		if g.policy == config.RegroupMerge {
			if prev, found := g.recent[dir]; found && now.Sub(prev.at) <= g.window*mergeHorizonFactor {
				for file := range prev.files {
					entry.files[file] = struct{}{}
				}
				delete(g.recent, dir)
			}
		}
		g.pending[dir] = entry
	}
	entry.files[path] = struct{}{}
	entry.lastArrival = now
}

// CheckGroups returns every directory that has been quiet for at least the
// window, in sorted order, and stops tracking each. A later arrival for the
// same directory starts a fresh cycle.
func (g *Grouper) CheckGroups(now time.Time) []Group {
	g.mu.Lock()
	defer g.mu.Unlock()

	var groups []Group
	for dir, entry := range g.pending {
		if now.Sub(entry.lastArrival) < g.window {
			continue
		}
		files := make([]string, 0, len(entry.files))
		for file := range entry.files {
			files = append(files, file)
		}
		sort.Strings(files)
		groups = append(groups, Group{Dir: dir, Files: files})
		delete(g.pending, dir)
		if g.policy == config.RegroupMerge {
			g.recent[dir] = emitted{files: entry.files, at: now}
		}
	}

	for dir, prev := range g.recent {
		if now.Sub(prev.at) > g.window*mergeHorizonFactor {
			delete(g.recent, dir)
		}
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Dir < groups[j].Dir })
	return groups
}

// TrackedDirs reports how many directories are still collecting files.
func (g *Grouper) TrackedDirs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
