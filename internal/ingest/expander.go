package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"autolib/internal/services"
)

// sanitizeEntryPath normalizes an archive entry path: forward slashes, no
// drive letter, no leading slash, and '.'/'..' segments resolved without
// escaping the extraction root.
func sanitizeEntryPath(p string) string {
	s := strings.ReplaceAll(p, "\\", "/")
	if len(s) > 1 && s[1] == ':' {
		s = s[2:]
	}
	s = strings.TrimLeft(s, "/")
	parts := strings.Split(s, "/")
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if n := len(stack); n > 0 {
				stack = stack[:n-1]
			}
		default:
			stack = append(stack, part)
		}
	}
	return strings.Join(stack, "/")
}

// ExpandArchive extracts a zip archive into a sibling directory named after
// the archive with its extension stripped, then deletes the archive. The
// extraction happens in a staging directory that is renamed into place only
// when every entry succeeded, so a failed extraction leaves no half-filled
// destination and keeps the archive on disk for a later retry.
func ExpandArchive(archivePath string) (string, []string, error) {
	dest := strings.TrimSuffix(archivePath, filepath.Ext(archivePath))
	staging := dest + ".extracting"

	files, err := extractTo(archivePath, staging)
	if err != nil {
		_ = os.RemoveAll(staging)
		return "", nil, services.Wrap(services.ErrExternalTool, "ingest", "expand archive",
			fmt.Sprintf("extract %s", filepath.Base(archivePath)), err)
	}

	if err := os.Rename(staging, dest); err != nil {
		_ = os.RemoveAll(staging)
		return "", nil, fmt.Errorf("move extracted contents into place: %w", err)
	}
	if err := os.Remove(archivePath); err != nil {
		return "", nil, fmt.Errorf("remove archive after extraction: %w", err)
	}

	final := make([]string, 0, len(files))
	for _, rel := range files {
		final = append(final, filepath.Join(dest, filepath.FromSlash(rel)))
	}
	return dest, final, nil
}

func extractTo(archivePath, staging string) ([]string, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer reader.Close()

	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	var files []string
	for _, entry := range reader.File {
		rel := sanitizeEntryPath(entry.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(staging, filepath.FromSlash(rel))
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return nil, fmt.Errorf("create dir %s: %w", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, fmt.Errorf("create parent for %s: %w", rel, err)
		}
		if err := copyEntry(entry, target); err != nil {
			return nil, fmt.Errorf("extract %s: %w", rel, err)
		}
		files = append(files, rel)
	}
	return files, nil
}

func copyEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}
