package audiobookshelf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"autolib/internal/config"
)

func TestRefreshLibraryPostsScan(t *testing.T) {
	var gotPath, gotAuth, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL+"/", "secret-key", "lib-42")
	if err := client.RefreshLibrary(context.Background()); err != nil {
		t.Fatalf("RefreshLibrary() error = %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %q, want POST", gotMethod)
	}
	if gotPath != "/api/libraries/lib-42/scan" {
		t.Errorf("path = %q, want /api/libraries/lib-42/scan", gotPath)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("authorization = %q, want bearer token", gotAuth)
	}
}

func TestRefreshLibrarySurfacesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "library not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "secret-key", "missing")
	err := client.RefreshLibrary(context.Background())
	if err == nil {
		t.Fatal("RefreshLibrary() returned nil for 404 response")
	}
}

func TestNewConfiguredServiceDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Audiobookshelf.Enabled = false

	svc := NewConfiguredService(&cfg)
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("NewConfiguredService() = %T, want noopService when disabled", svc)
	}
	if err := svc.RefreshLibrary(context.Background()); err != nil {
		t.Fatalf("noop RefreshLibrary() error = %v", err)
	}
}

func TestNewConfiguredServiceEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Audiobookshelf.Enabled = true
	cfg.Audiobookshelf.URL = "http://abs.local:13378"
	cfg.Audiobookshelf.APIKey = "key"
	cfg.Audiobookshelf.LibraryID = "lib-1"

	svc := NewConfiguredService(&cfg)
	client, ok := svc.(*Client)
	if !ok {
		t.Fatalf("NewConfiguredService() = %T, want *Client when enabled", svc)
	}
	if client.baseURL != "http://abs.local:13378" {
		t.Errorf("baseURL = %q", client.baseURL)
	}
}
