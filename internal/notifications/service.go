package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autolib/internal/config"
)

const userAgent = "autolib/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyIdentified(ctx context.Context, title string, confidence float64) error
	NotifyReviewQueued(ctx context.Context, title, itemID string) error
	NotifyOrganized(ctx context.Context, title, destination string) error
	NotifyManual(ctx context.Context, dir string) error
	NotifyError(ctx context.Context, err error, contextLabel string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		cfg:      cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	cfg      config.Notifications
}

func (n *ntfyService) NotifyIdentified(ctx context.Context, title string, confidence float64) error {
	if !n.cfg.Identification {
		return nil
	}
	data := payload{
		title:   "Autolib - Identified",
		message: fmt.Sprintf("Identified: %s (confidence %.0f)", strings.TrimSpace(title), confidence),
		tags:    []string{"autolib", "identify"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewQueued(ctx context.Context, title, itemID string) error {
	if !n.cfg.Review {
		return nil
	}
	data := payload{
		title:   "Autolib - Review Needed",
		message: fmt.Sprintf("Awaiting review: %s (item %s)", strings.TrimSpace(title), itemID),
		tags:    []string{"autolib", "review"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyOrganized(ctx context.Context, title, destination string) error {
	if !n.cfg.Organization {
		return nil
	}
	message := fmt.Sprintf("Added to library: %s", strings.TrimSpace(title))
	if destination = strings.TrimSpace(destination); destination != "" {
		message = fmt.Sprintf("%s\nLocation: %s", message, destination)
	}
	data := payload{
		title:    "Autolib - Library Updated",
		message:  message,
		tags:     []string{"autolib", "organized"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyManual(ctx context.Context, dir string) error {
	if !n.cfg.Review {
		return nil
	}
	data := payload{
		title:   "Autolib - Manual Intervention",
		message: fmt.Sprintf("Could not organize automatically: %s\nMoved to manual area", strings.TrimSpace(dir)),
		tags:    []string{"autolib", "manual"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.cfg.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}
	data := payload{
		title:    "Autolib - Error",
		message:  builder.String(),
		tags:     []string{"autolib", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Autolib - Test",
		message:  "Notification system test",
		tags:     []string{"autolib", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyIdentified(context.Context, string, float64) error { return nil }
func (noopService) NotifyReviewQueued(context.Context, string, string) error {
	return nil
}
func (noopService) NotifyOrganized(context.Context, string, string) error { return nil }
func (noopService) NotifyManual(context.Context, string) error            { return nil }
func (noopService) NotifyError(context.Context, error, string) error      { return nil }
func (noopService) TestNotification(context.Context) error                { return nil }

var (
	_ Service = (*ntfyService)(nil)
	_ Service = noopService{}
)
