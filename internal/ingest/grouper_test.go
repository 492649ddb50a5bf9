package ingest

import (
	"testing"
	"time"

	"autolib/internal/config"
)

func TestGrouperCoalescesBurst(t *testing.T) {
	window := 10 * time.Second
	g := NewGrouper(window, config.RegroupFresh)
	base := time.Now()

	g.AddFileAt("/in/book/01.mp3", base)
	g.AddFileAt("/in/book/02.mp3", base.Add(3*time.Second))
	g.AddFileAt("/in/book/03.mp3", base.Add(6*time.Second))

	if groups := g.CheckGroups(base.Add(9 * time.Second)); len(groups) != 0 {
		t.Fatalf("expected no groups before quiescence, got %v", groups)
	}

	groups := g.CheckGroups(base.Add(16*time.Second + time.Millisecond))
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if groups[0].Dir != "/in/book" || len(groups[0].Files) != 3 {
		t.Fatalf("unexpected group: %+v", groups[0])
	}
	if groups[0].Files[0] != "/in/book/01.mp3" {
		t.Fatalf("files not sorted: %v", groups[0].Files)
	}
}

func TestGrouperEmitsOncePerCycle(t *testing.T) {
	window := time.Second
	g := NewGrouper(window, config.RegroupFresh)
	base := time.Now()

	g.AddFileAt("/in/book/01.mp3", base)
	after := base.Add(2 * time.Second)
	if groups := g.CheckGroups(after); len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if groups := g.CheckGroups(after.Add(time.Second)); len(groups) != 0 {
		t.Fatalf("group emitted twice: %v", groups)
	}
}

func TestGrouperFreshPolicyStartsDisconnectedGroup(t *testing.T) {
	window := time.Second
	g := NewGrouper(window, config.RegroupFresh)
	base := time.Now()

	g.AddFileAt("/in/book/01.mp3", base)
	g.CheckGroups(base.Add(2 * time.Second))

	g.AddFileAt("/in/book/02.mp3", base.Add(3*time.Second))
	groups := g.CheckGroups(base.Add(5 * time.Second))
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if len(groups[0].Files) != 1 || groups[0].Files[0] != "/in/book/02.mp3" {
		t.Fatalf("fresh policy should not merge emitted files: %v", groups[0].Files)
	}
}

func TestGrouperMergePolicyReopensEmittedGroup(t *testing.T) {
	window := time.Second
	g := NewGrouper(window, config.RegroupMerge)
	base := time.Now()

	g.AddFileAt("/in/book/01.mp3", base)
	g.CheckGroups(base.Add(2 * time.Second))

	g.AddFileAt("/in/book/02.mp3", base.Add(3*time.Second))
	groups := g.CheckGroups(base.Add(5 * time.Second))
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if len(groups[0].Files) != 2 {
		t.Fatalf("merge policy should include previously emitted files: %v", groups[0].Files)
	}
}

func TestGrouperMergeHorizonExpires(t *testing.T) {
	window := time.Second
	g := NewGrouper(window, config.RegroupMerge)
	base := time.Now()

	g.AddFileAt("/in/book/01.mp3", base)
	g.CheckGroups(base.Add(2 * time.Second))

	late := base.Add(2*time.Second + window*mergeHorizonFactor + time.Second)
	g.AddFileAt("/in/book/02.mp3", late)
	groups := g.CheckGroups(late.Add(2 * time.Second))
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	if len(groups[0].Files) != 1 {
		t.Fatalf("stale emitted files should not merge: %v", groups[0].Files)
	}
}

func TestGrouperTracksDirectoriesIndependently(t *testing.T) {
	window := 5 * time.Second
	g := NewGrouper(window, config.RegroupFresh)
	base := time.Now()

	g.AddFileAt("/in/alpha/01.mp3", base)
	g.AddFileAt("/in/beta/01.mp3", base.Add(4*time.Second))

	groups := g.CheckGroups(base.Add(6 * time.Second))
	if len(groups) != 1 || groups[0].Dir != "/in/alpha" {
		t.Fatalf("expected only alpha to be quiescent, got %v", groups)
	}
	if g.TrackedDirs() != 1 {
		t.Fatalf("expected beta still tracked, got %d dirs", g.TrackedDirs())
	}
}
