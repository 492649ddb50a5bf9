package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"autolib/internal/testsupport"
)

func TestManagerRoutesAudioFilesToGroups(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var gotDir string
	var gotFiles []string
	m := NewManager(cfg, nil, func(_ context.Context, dir string, files []string) {
		gotDir = dir
		gotFiles = files
	})

	dir := testsupport.WriteBookDir(t, cfg.Paths.InputDir, "andy-weir-the-martian", "01.mp3", "02.mp3")
	m.ProcessFile(context.Background(), filepath.Join(dir, "01.mp3"))
	m.ProcessFile(context.Background(), filepath.Join(dir, "02.mp3"))
	m.ProcessFile(context.Background(), filepath.Join(dir, "cover.txt"))

	m.Tick(context.Background(), time.Now().Add(time.Duration(cfg.Ingest.DebounceWindowSeconds+1)*time.Second))

	if gotDir != dir {
		t.Fatalf("expected group for %s, got %q", dir, gotDir)
	}
	if len(gotFiles) != 2 {
		t.Fatalf("expected 2 grouped files, got %v", gotFiles)
	}

	stats := m.Stats()
	if stats.FilesAccepted != 2 || stats.FilesIgnored != 1 || stats.GroupsEmitted != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestManagerExpandsArchivesIntoStream(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	var gotDir string
	var gotFiles []string
	m := NewManager(cfg, nil, func(_ context.Context, dir string, files []string) {
		gotDir = dir
		gotFiles = files
	})

	if err := os.MkdirAll(cfg.Paths.InputDir, 0o755); err != nil {
		t.Fatalf("mkdir input: %v", err)
	}
	archive := filepath.Join(cfg.Paths.InputDir, "book.zip")
	writeZip(t, archive, map[string]string{"ch1.mp3": "audio"})

	m.ProcessFile(context.Background(), archive)
	m.Tick(context.Background(), time.Now().Add(time.Duration(cfg.Ingest.DebounceWindowSeconds+1)*time.Second))

	wantDir := filepath.Join(cfg.Paths.InputDir, "book")
	if gotDir != wantDir {
		t.Fatalf("expected group for %s, got %q", wantDir, gotDir)
	}
	if len(gotFiles) != 1 || gotFiles[0] != filepath.Join(wantDir, "ch1.mp3") {
		t.Fatalf("unexpected grouped files: %v", gotFiles)
	}
	if m.Stats().ArchivesExpanded != 1 {
		t.Fatalf("expected one expanded archive, got %d", m.Stats().ArchivesExpanded)
	}
}

func TestManagerKeepsBrokenArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	m := NewManager(cfg, nil, func(context.Context, string, []string) {
		t.Fatal("no group expected")
	})

	archive := filepath.Join(cfg.Paths.InputDir, "broken.zip")
	testsupport.WriteFile(t, archive, 16)

	m.ProcessFile(context.Background(), archive)
	m.Tick(context.Background(), time.Now().Add(time.Duration(cfg.Ingest.DebounceWindowSeconds+1)*time.Second))

	if stats := m.Stats(); stats.ArchivesExpanded != 0 || stats.GroupsEmitted != 0 {
		t.Fatalf("unexpected stats after failed expansion: %+v", stats)
	}
}
