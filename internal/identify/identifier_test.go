package identify

import (
	"context"
	"errors"
	"testing"
)

func TestParseDirNameAuthorTitle(t *testing.T) {
	cases := []struct {
		name       string
		wantAuthor string
		wantTitle  string
		wantYear   int
	}{
		{"Andy Weir - The Martian", "Andy Weir", "The Martian", 0},
		{"andy_weir_-_the_martian", "", "Andy Weir The Martian", 0},
		{"Frank Herbert - Dune (1965) [Unabridged]", "Frank Herbert", "Dune", 1965},
		{"Dune", "", "Dune", 0},
		{"Hugh Howey - Wool [MP3 64k Audiobook]", "Hugh Howey", "Wool", 0},
		{"George Orwell - 1984", "George Orwell", "1984", 0},
		{"[Retail]", "", "Unknown Book", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseDirName(tc.name)
			if got.Author != tc.wantAuthor {
				t.Fatalf("author: got %q, want %q", got.Author, tc.wantAuthor)
			}
			if got.Title != tc.wantTitle {
				t.Fatalf("title: got %q, want %q", got.Title, tc.wantTitle)
			}
			if got.Year != tc.wantYear {
				t.Fatalf("year: got %d, want %d", got.Year, tc.wantYear)
			}
		})
	}
}

type stubTagReader struct {
	tags *Tags
	err  error
}

func (s stubTagReader) ReadTags(context.Context, string) (*Tags, error) {
	return s.tags, s.err
}

func TestIdentifyPrefersTags(t *testing.T) {
	ident := New(nil, stubTagReader{tags: &Tags{Title: "Project Hail Mary", Author: "Andy Weir", Year: 2021}})

	result, err := ident.Identify(context.Background(), "/in/phm-rip", []string{"/in/phm-rip/01.mp3"})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Title != "Project Hail Mary" || result.Author != "Andy Weir" || result.Year != 2021 {
		t.Fatalf("tags not applied: %+v", result)
	}
	if result.Source != "tags" {
		t.Fatalf("expected tags source, got %q", result.Source)
	}
}

func TestIdentifyFallsBackOnTagError(t *testing.T) {
	ident := New(nil, stubTagReader{err: errors.New("unreadable")})

	result, err := ident.Identify(context.Background(), "/in/Andy Weir - The Martian", []string{"/in/x/01.mp3"})
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Title != "The Martian" || result.Author != "Andy Weir" {
		t.Fatalf("filename fallback failed: %+v", result)
	}
	if result.Source != "filename" {
		t.Fatalf("expected filename source, got %q", result.Source)
	}
}

func TestIdentifyNoFiles(t *testing.T) {
	ident := New(nil, nil)

	result, err := ident.Identify(context.Background(), "/in/Dune", nil)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	if result.Title != "Dune" {
		t.Fatalf("unexpected title: %q", result.Title)
	}
}

func TestResultDisplayName(t *testing.T) {
	r := &Result{Title: "The Martian", Author: "Andy Weir"}
	if got := r.DisplayName(); got != "Andy Weir - The Martian" {
		t.Fatalf("DisplayName: %q", got)
	}
	if got := (&Result{Title: "Dune"}).DisplayName(); got != "Dune" {
		t.Fatalf("title-only DisplayName: %q", got)
	}
}

func TestResultCloneIsDeep(t *testing.T) {
	r := &Result{Title: "Wool", Extra: map[string]string{"series": "Silo"}}
	clone := r.Clone()
	clone.Extra["series"] = "changed"
	if r.Extra["series"] != "Silo" {
		t.Fatal("Clone shares Extra map")
	}
}
