// Package audiobookshelf triggers library scans on an Audiobookshelf
// server after books land in the library directory.
package audiobookshelf

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autolib/internal/config"
)

const defaultTimeout = 15 * time.Second

// Service triggers a rescan of the configured Audiobookshelf library.
type Service interface {
	RefreshLibrary(ctx context.Context) error
}

// Client calls the Audiobookshelf HTTP API.
type Client struct {
	baseURL   string
	apiKey    string
	libraryID string
	client    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New constructs a client for the given server.
func New(baseURL, apiKey, libraryID string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		libraryID: libraryID,
		client:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewConfiguredService returns a live client when Audiobookshelf is
// enabled, and a no-op service otherwise.
func NewConfiguredService(cfg *config.Config) Service {
	if cfg == nil || !cfg.Audiobookshelf.Enabled || strings.TrimSpace(cfg.Audiobookshelf.URL) == "" {
		return noopService{}
	}
	return New(cfg.Audiobookshelf.URL, cfg.Audiobookshelf.APIKey, cfg.Audiobookshelf.LibraryID)
}

// RefreshLibrary asks the server to scan the configured library for
// new items.
func (c *Client) RefreshLibrary(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/api/libraries/%s/scan", c.baseURL, c.libraryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create scan request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request library scan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		excerpt := strings.TrimSpace(string(body))
		if excerpt == "" {
			return fmt.Errorf("library scan failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("library scan failed with status %d: %s", resp.StatusCode, excerpt)
	}
	return nil
}

type noopService struct{}

func (noopService) RefreshLibrary(context.Context) error { return nil }
