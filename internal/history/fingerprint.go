package history

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CalculateHash fingerprints a book directory from the given files. Each
// file contributes its path relative to root, size, and modification time;
// the entries are sorted so listing order never changes the hash. Files
// that vanished between listing and hashing are skipped, which keeps the
// hash stable while a directory is being cleaned up.
func CalculateHash(root string, files []string) (string, error) {
	entries := make([]string, 0, len(files))
	for _, file := range files {
		full := file
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, full)
		}
		info, err := os.Stat(full)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("stat %s: %w", full, err)
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		entries = append(entries, fmt.Sprintf("%s|%d|%d", filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano()))
	}
	sort.Strings(entries)

	digest := sha256.Sum256([]byte(strings.Join(entries, "\n")))
	return hex.EncodeToString(digest[:]), nil
}
