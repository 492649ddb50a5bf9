package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultGoogleBooksBaseURL is the production Google Books endpoint.
const DefaultGoogleBooksBaseURL = "https://www.googleapis.com/books/v1"

// GoogleBooks queries the Google Books volumes API.
type GoogleBooks struct {
	baseURL    string
	httpClient *http.Client
}

// GoogleBooksOption configures a GoogleBooks client.
type GoogleBooksOption func(*GoogleBooks)

// WithGoogleBooksHTTPClient overrides the default HTTP client.
func WithGoogleBooksHTTPClient(client *http.Client) GoogleBooksOption {
	return func(c *GoogleBooks) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewGoogleBooks creates a Google Books client.
func NewGoogleBooks(baseURL string, timeout time.Duration, opts ...GoogleBooksOption) (*GoogleBooks, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultGoogleBooksBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := &GoogleBooks{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name identifies the provider in logs and results.
func (c *GoogleBooks) Name() string { return "googlebooks" }

type googleBooksResponse struct {
	Items []struct {
		VolumeInfo struct {
			Title               string   `json:"title"`
			Authors             []string `json:"authors"`
			PublishedDate       string   `json:"publishedDate"`
			Description         string   `json:"description"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
			ImageLinks struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Search queries the volumes endpoint, scoping the query to title and
// author fields when both are known.
func (c *GoogleBooks) Search(ctx context.Context, title, author string) ([]Candidate, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" && author == "" {
		return nil, errors.New("query must not be empty")
	}

	var query string
	switch {
	case title != "" && author != "":
		query = fmt.Sprintf("intitle:%s inauthor:%s", title, author)
	case title != "":
		query = "intitle:" + title
	default:
		query = "inauthor:" + author
	}

	endpoint, err := url.Parse(c.baseURL + "/volumes")
	if err != nil {
		return nil, fmt.Errorf("parse googlebooks url: %w", err)
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(searchLimit))
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
		return nil, fmt.Errorf("googlebooks search returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode googlebooks response: %w", err)
	}

	candidates := make([]Candidate, 0, len(payload.Items))
	for _, item := range payload.Items {
		info := item.VolumeInfo
		cand := Candidate{
			Title:       info.Title,
			Description: info.Description,
			CoverURL:    info.ImageLinks.Thumbnail,
			Source:      c.Name(),
		}
		if len(info.Authors) > 0 {
			cand.Author = info.Authors[0]
		}
		if len(info.PublishedDate) >= 4 {
			if year, err := strconv.Atoi(info.PublishedDate[:4]); err == nil {
				cand.Year = year
			}
		}
		for _, ident := range info.IndustryIdentifiers {
			switch ident.Type {
			case "ISBN_13":
				cand.ISBN = ident.Identifier
			case "ISBN_10":
				if cand.ISBN == "" {
					cand.ISBN = ident.Identifier
				}
			}
		}
		candidates = append(candidates, cand)
	}
	return candidates, nil
}
