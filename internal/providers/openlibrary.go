package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultOpenLibraryBaseURL is the production Open Library endpoint.
const DefaultOpenLibraryBaseURL = "https://openlibrary.org"

const searchLimit = 10

// OpenLibrary queries the Open Library search API.
type OpenLibrary struct {
	baseURL    string
	httpClient *http.Client
}

// OpenLibraryOption configures an OpenLibrary client.
type OpenLibraryOption func(*OpenLibrary)

// WithOpenLibraryHTTPClient overrides the default HTTP client.
func WithOpenLibraryHTTPClient(client *http.Client) OpenLibraryOption {
	return func(c *OpenLibrary) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewOpenLibrary creates an Open Library client.
func NewOpenLibrary(baseURL string, timeout time.Duration, opts ...OpenLibraryOption) (*OpenLibrary, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultOpenLibraryBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &OpenLibrary{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in logs and results.
func (c *OpenLibrary) Name() string { return "openlibrary" }

type openLibraryResponse struct {
	Docs []struct {
		Title            string   `json:"title"`
		AuthorName       []string `json:"author_name"`
		FirstPublishYear int      `json:"first_publish_year"`
		ISBN             []string `json:"isbn"`
		CoverEditionKey  string   `json:"cover_edition_key"`
	} `json:"docs"`
}

// Search queries search.json for the title and author.
func (c *OpenLibrary) Search(ctx context.Context, title, author string) ([]Candidate, error) {
	query := strings.TrimSpace(strings.TrimSpace(title) + " " + strings.TrimSpace(author))
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	endpoint, err := url.Parse(c.baseURL + "/search.json")
	if err != nil {
		return nil, fmt.Errorf("parse openlibrary url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", fmt.Sprintf("%d", searchLimit))
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openlibrary search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload openLibraryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openlibrary response: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Docs))
	for _, doc := range payload.Docs {
		cand := Candidate{
			Title:  doc.Title,
			Year:   doc.FirstPublishYear,
			Source: c.Name(),
		}
		if len(doc.AuthorName) > 0 {
			cand.Author = doc.AuthorName[0]
		}
		if len(doc.ISBN) > 0 {
			cand.ISBN = doc.ISBN[0]
		}
		if doc.CoverEditionKey != "" {
			cand.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/olid/%s-L.jpg", doc.CoverEditionKey)
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}
