package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"autolib/internal/api"
	"autolib/internal/identify"
	"autolib/internal/workqueue"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func newQueueServer(t *testing.T, items []*workqueue.Item) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/queue", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.QueueListResponse{Items: items})
	})
	mux.HandleFunc("/api/queue/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/queue/")
		for _, item := range items {
			if item.ID == rest {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(api.QueueItemResponse{Item: item})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "queue item not found"})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestQueueListCommand(t *testing.T) {
	item := &workqueue.Item{
		ID:      "abc123",
		Dirpath: "/input/Andy Weir - The Martian",
		Files:   []string{"/input/Andy Weir - The Martian/ch01.mp3"},
		Metadata: &identify.Result{
			Title:      "The Martian",
			Author:     "Andy Weir",
			Confidence: 95,
		},
		Status:  workqueue.StatusPending,
		AddedAt: time.Now(),
	}
	server := newQueueServer(t, []*workqueue.Item{item})

	out, err := runCommand(t, "--address", server.URL, "queue", "list")
	if err != nil {
		t.Fatalf("queue list error = %v", err)
	}
	if !strings.Contains(out, "abc123") || !strings.Contains(out, "The Martian") {
		t.Errorf("queue list output missing item fields:\n%s", out)
	}
}

func TestQueueListEmpty(t *testing.T) {
	server := newQueueServer(t, nil)

	out, err := runCommand(t, "--address", server.URL, "queue", "list")
	if err != nil {
		t.Fatalf("queue list error = %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Errorf("queue list output = %q, want empty-queue message", out)
	}
}

func TestQueueShowCommand(t *testing.T) {
	item := &workqueue.Item{
		ID:      "abc123",
		Dirpath: "/input/book",
		Files:   []string{"/input/book/a.mp3"},
		Metadata: &identify.Result{
			Title:      "Project Hail Mary",
			Author:     "Andy Weir",
			Narrator:   "Ray Porter",
			Year:       2021,
			Source:     "googlebooks",
			Confidence: 92,
		},
		Status:  workqueue.StatusPending,
		AddedAt: time.Now(),
	}
	server := newQueueServer(t, []*workqueue.Item{item})

	out, err := runCommand(t, "--address", server.URL, "queue", "show", "abc123")
	if err != nil {
		t.Fatalf("queue show error = %v", err)
	}
	for _, want := range []string{"Project Hail Mary", "Ray Porter", "2021", "googlebooks"} {
		if !strings.Contains(out, want) {
			t.Errorf("queue show output missing %q:\n%s", want, out)
		}
	}
}

func TestQueueShowUnknownItem(t *testing.T) {
	server := newQueueServer(t, nil)

	if _, err := runCommand(t, "--address", server.URL, "queue", "show", "missing"); err == nil {
		t.Fatal("queue show for unknown id returned nil error")
	}
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("config init output = %q, want target path", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("config init over existing file returned nil error")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite error = %v", err)
	}
}
