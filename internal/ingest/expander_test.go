package ingest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func TestExpandArchiveExtractsAndDeletes(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "book.zip")
	writeZip(t, archive, map[string]string{
		"ch1.mp3":       "audio one",
		"disc2/ch2.mp3": "audio two",
	})

	dir, files, err := ExpandArchive(archive)
	if err != nil {
		t.Fatalf("ExpandArchive: %v", err)
	}
	if dir != filepath.Join(root, "book") {
		t.Fatalf("unexpected destination: %s", dir)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			t.Fatalf("extracted file missing: %v", err)
		}
	}
	if _, err := os.Stat(archive); !os.IsNotExist(err) {
		t.Fatal("archive should be deleted after extraction")
	}
}

func TestExpandArchiveFailureKeepsArchive(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "broken.zip")
	if err := os.WriteFile(archive, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("write bogus archive: %v", err)
	}

	if _, _, err := ExpandArchive(archive); err == nil {
		t.Fatal("expected extraction error")
	}
	if _, err := os.Stat(archive); err != nil {
		t.Fatalf("archive should be retained on failure: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "broken")); !os.IsNotExist(err) {
		t.Fatal("no destination directory should exist after failure")
	}
	if _, err := os.Stat(filepath.Join(root, "broken.extracting")); !os.IsNotExist(err) {
		t.Fatal("staging directory should be cleaned up after failure")
	}
}

func TestExpandArchiveSanitizesEntryPaths(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "sneaky.zip")
	writeZip(t, archive, map[string]string{
		"../escape.mp3": "outside",
	})

	dir, files, err := ExpandArchive(archive)
	if err != nil {
		t.Fatalf("ExpandArchive: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %v", files)
	}
	if files[0] != filepath.Join(dir, "escape.mp3") {
		t.Fatalf("traversal entry not contained: %s", files[0])
	}
	if _, err := os.Stat(filepath.Join(root, "escape.mp3")); !os.IsNotExist(err) {
		t.Fatal("entry escaped the extraction root")
	}
}

func TestSanitizeEntryPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"disc1/ch1.mp3", "disc1/ch1.mp3"},
		{"/abs/ch1.mp3", "abs/ch1.mp3"},
		{"../../ch1.mp3", "ch1.mp3"},
		{"a/./b/../c.mp3", "a/c.mp3"},
		{"C:\\win\\ch1.mp3", "win/ch1.mp3"},
		{"..", ""},
	}
	for _, tc := range cases {
		if got := sanitizeEntryPath(tc.in); got != tc.want {
			t.Fatalf("sanitizeEntryPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
