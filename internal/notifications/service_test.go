package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"autolib/internal/config"
	"autolib/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyOrganized(context.Background(), "Example", "/library/Example"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	message  string
	tags     string
	priority string
}

func newCapturingServer(t *testing.T, sink *[]captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*sink = append(*sink, captured{
			title:    r.Header.Get("Title"),
			message:  string(body),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
		})
		w.WriteHeader(http.StatusOK)
	}))
}

func newNtfyConfig(url string) config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = url
	cfg.Notifications.Identification = true
	cfg.Notifications.Review = true
	cfg.Notifications.Organization = true
	cfg.Notifications.Errors = true
	return cfg
}

func TestNtfyServiceSendsEvents(t *testing.T) {
	var got []captured
	server := newCapturingServer(t, &got)
	t.Cleanup(server.Close)

	cfg := newNtfyConfig(server.URL)
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyIdentified(ctx, "The Martian", 92); err != nil {
		t.Fatalf("NotifyIdentified: %v", err)
	}
	if err := svc.NotifyReviewQueued(ctx, "The Martian", "abcd1234"); err != nil {
		t.Fatalf("NotifyReviewQueued: %v", err)
	}
	if err := svc.NotifyOrganized(ctx, "The Martian", "/library/Andy Weir/The Martian"); err != nil {
		t.Fatalf("NotifyOrganized: %v", err)
	}
	if err := svc.NotifyError(ctx, errors.New("boom"), "organize"); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}

	if len(got) != 4 {
		t.Fatalf("expected 4 notifications, got %d", len(got))
	}
	if got[0].title != "Autolib - Identified" || got[0].message != "Identified: The Martian (confidence 92)" {
		t.Fatalf("unexpected identify payload: %+v", got[0])
	}
	if got[1].tags != "autolib,review" {
		t.Fatalf("unexpected review tags: %+v", got[1])
	}
	if got[2].priority != "high" {
		t.Fatalf("organized should be high priority: %+v", got[2])
	}
	if got[3].message != "Error with organize: boom" {
		t.Fatalf("unexpected error payload: %+v", got[3])
	}
}

func TestNtfyServiceRespectsCategoryToggles(t *testing.T) {
	var got []captured
	server := newCapturingServer(t, &got)
	t.Cleanup(server.Close)

	cfg := newNtfyConfig(server.URL)
	cfg.Notifications.Identification = false
	cfg.Notifications.Organization = false
	svc := notifications.NewService(&cfg)
	ctx := context.Background()

	if err := svc.NotifyIdentified(ctx, "Skipped", 10); err != nil {
		t.Fatalf("NotifyIdentified: %v", err)
	}
	if err := svc.NotifyOrganized(ctx, "Skipped", ""); err != nil {
		t.Fatalf("NotifyOrganized: %v", err)
	}
	if err := svc.TestNotification(ctx); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected only the test notification, got %d", len(got))
	}
	if got[0].title != "Autolib - Test" {
		t.Fatalf("unexpected payload: %+v", got[0])
	}
}

func TestNtfyServiceSurfacesHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	cfg := newNtfyConfig(server.URL)
	svc := notifications.NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error on non-2xx response")
	}
}
