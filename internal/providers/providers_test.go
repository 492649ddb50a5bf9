package providers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autolib/internal/identify"
	"autolib/internal/providers"
)

func TestOpenLibrarySearchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.json" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("q") == "" {
			t.Fatal("expected q query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"docs":[{"title":"The Martian","author_name":["Andy Weir"],"first_publish_year":2011,"isbn":["9780804139021"],"cover_edition_key":"OL1M"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := providers.NewOpenLibrary(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenLibrary: %v", err)
	}

	candidates, err := client.Search(context.Background(), "The Martian", "Andy Weir")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	cand := candidates[0]
	if cand.Title != "The Martian" || cand.Author != "Andy Weir" || cand.Year != 2011 {
		t.Fatalf("unexpected candidate: %+v", cand)
	}
	if cand.ISBN != "9780804139021" || cand.Source != "openlibrary" {
		t.Fatalf("unexpected candidate detail: %+v", cand)
	}
	if cand.CoverURL == "" {
		t.Fatal("expected cover url from edition key")
	}
}

func TestOpenLibrarySearchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, err := providers.NewOpenLibrary(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenLibrary: %v", err)
	}
	if _, err := client.Search(context.Background(), "fail", ""); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestOpenLibrarySearchEmptyQuery(t *testing.T) {
	client, err := providers.NewOpenLibrary("https://example.com", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenLibrary: %v", err)
	}
	if _, err := client.Search(context.Background(), "", ""); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestGoogleBooksSearchSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/volumes" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"volumeInfo":{"title":"Project Hail Mary","authors":["Andy Weir"],"publishedDate":"2021-05-04","description":"A lone astronaut.","industryIdentifiers":[{"type":"ISBN_10","identifier":"0593135202"},{"type":"ISBN_13","identifier":"9780593135204"}],"imageLinks":{"thumbnail":"https://img.example/phm.jpg"}}}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := providers.NewGoogleBooks(server.URL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewGoogleBooks: %v", err)
	}

	candidates, err := client.Search(context.Background(), "Project Hail Mary", "Andy Weir")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	cand := candidates[0]
	if cand.Year != 2021 || cand.ISBN != "9780593135204" {
		t.Fatalf("unexpected candidate: %+v", cand)
	}
	if cand.Description == "" || cand.CoverURL == "" || cand.Source != "googlebooks" {
		t.Fatalf("unexpected candidate detail: %+v", cand)
	}
}

type stubProvider struct {
	name       string
	candidates []providers.Candidate
	err        error
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Search(context.Context, string, string) ([]providers.Candidate, error) {
	return s.candidates, s.err
}

func TestEnrichPicksBestCandidate(t *testing.T) {
	agg := providers.NewAggregatorWith(nil,
		stubProvider{name: "openlibrary", candidates: []providers.Candidate{
			{Title: "The Martian Chronicles", Author: "Ray Bradbury", Source: "openlibrary"},
		}},
		stubProvider{name: "googlebooks", candidates: []providers.Candidate{
			{Title: "The Martian", Author: "Andy Weir", Year: 2011, ISBN: "9780804139021", Source: "googlebooks"},
		}},
	)

	guess := &identify.Result{Title: "The Martian", Author: "Andy Weir"}
	result, err := agg.Enrich(context.Background(), guess)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if result.Source != "googlebooks" {
		t.Fatalf("expected googlebooks winner, got %q", result.Source)
	}
	if result.Confidence < 99 {
		t.Fatalf("expected near-perfect confidence, got %v", result.Confidence)
	}
	if result.Year != 2011 || result.ISBN != "9780804139021" {
		t.Fatalf("candidate fields not merged: %+v", result)
	}
}

func TestEnrichHighScoreReplacesGuess(t *testing.T) {
	agg := providers.NewAggregatorWith(nil, stubProvider{name: "openlibrary", candidates: []providers.Candidate{
		{Title: "The Martian: A Novel", Author: "Andy Weir", Source: "openlibrary"},
	}})

	guess := &identify.Result{Title: "the martian novel", Author: "andy weir"}
	result, err := agg.Enrich(context.Background(), guess)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if result.Title != "The Martian: A Novel" || result.Author != "Andy Weir" {
		t.Fatalf("high-confidence candidate should replace guess: %+v", result)
	}
}

func TestEnrichLowScoreKeepsGuess(t *testing.T) {
	agg := providers.NewAggregatorWith(nil, stubProvider{name: "openlibrary", candidates: []providers.Candidate{
		{Title: "Completely Different Cookbook", Author: "Someone Else", Year: 1999, Source: "openlibrary"},
	}})

	guess := &identify.Result{Title: "The Martian", Author: "Andy Weir"}
	result, err := agg.Enrich(context.Background(), guess)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if result.Title != "The Martian" || result.Author != "Andy Weir" {
		t.Fatalf("low-confidence candidate replaced guess: %+v", result)
	}
	if result.Year != 1999 {
		t.Fatalf("gap fields should still fill: %+v", result)
	}
	if result.Confidence >= 90 {
		t.Fatalf("unexpected confidence: %v", result.Confidence)
	}
}

func TestEnrichProviderFailureIsNonFatal(t *testing.T) {
	agg := providers.NewAggregatorWith(nil,
		stubProvider{name: "openlibrary", err: errors.New("unreachable")},
		stubProvider{name: "googlebooks", candidates: []providers.Candidate{
			{Title: "Wool", Author: "Hugh Howey", Source: "googlebooks"},
		}},
	)

	result, err := agg.Enrich(context.Background(), &identify.Result{Title: "Wool", Author: "Hugh Howey"})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if result.Source != "googlebooks" {
		t.Fatalf("surviving provider should win: %+v", result)
	}
}

func TestEnrichNoCandidates(t *testing.T) {
	agg := providers.NewAggregatorWith(nil, stubProvider{name: "openlibrary"})

	guess := &identify.Result{Title: "Obscure Title", Author: "Nobody", Confidence: 50}
	result, err := agg.Enrich(context.Background(), guess)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if result.Confidence != 0 {
		t.Fatalf("expected zero confidence, got %v", result.Confidence)
	}
	if result.Title != "Obscure Title" {
		t.Fatalf("guess should be unchanged: %+v", result)
	}
}
