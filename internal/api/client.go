package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autolib/internal/workqueue"
)

const clientTimeout = 10 * time.Second

// Client talks to a running daemon over its HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client for the daemon listening at bind
// (host:port or a full http URL).
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		client:  &http.Client{Timeout: clientTimeout},
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var out DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Queue fetches the current queue snapshot.
func (c *Client) Queue(ctx context.Context) ([]*workqueue.Item, error) {
	var out QueueListResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue", &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// QueueItem fetches one queue item by id.
func (c *Client) QueueItem(ctx context.Context, id string) (*workqueue.Item, error) {
	var out QueueItemResponse
	if err := c.do(ctx, http.MethodGet, "/api/queue/"+id, &out); err != nil {
		return nil, err
	}
	return out.Item, nil
}

// RemoveQueueItem removes a queue item from memory.
func (c *Client) RemoveQueueItem(ctx context.Context, id string) (bool, error) {
	var out RemoveResponse
	if err := c.do(ctx, http.MethodDelete, "/api/queue/"+id, &out); err != nil {
		return false, err
	}
	return out.Removed, nil
}

// Approve applies an approval decision to a queue item.
func (c *Client) Approve(ctx context.Context, id string) error {
	var out DecisionResponse
	return c.do(ctx, http.MethodPost, "/api/queue/"+id+"/approve", &out)
}

// Reject applies a rejection decision to a queue item.
func (c *Client) Reject(ctx context.Context, id string) error {
	var out DecisionResponse
	return c.do(ctx, http.MethodPost, "/api/queue/"+id+"/reject", &out)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
