package organizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"autolib/internal/identify"
)

// absMetadata is the subset of the Audiobookshelf metadata.json schema the
// organizer emits alongside each book.
type absMetadata struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	Narrators     []string `json:"narrators,omitempty"`
	PublishedYear string   `json:"publishedYear,omitempty"`
	Description   string   `json:"description,omitempty"`
	ISBN          string   `json:"isbn,omitempty"`
	ASIN          string   `json:"asin,omitempty"`
}

// writeMetadataFile writes metadata.json into the destination directory so
// Audiobookshelf imports the book with the enriched fields instead of
// re-guessing from the filename.
func writeMetadataFile(destDir string, meta *identify.Result) error {
	if meta == nil {
		return nil
	}

	doc := absMetadata{
		Title:       meta.Title,
		Description: meta.Description,
		ISBN:        meta.ISBN,
		ASIN:        meta.ASIN,
	}
	if meta.Author != "" {
		doc.Authors = []string{meta.Author}
	}
	if meta.Narrator != "" {
		doc.Narrators = []string{meta.Narrator}
	}
	if meta.Year != 0 {
		doc.PublishedYear = strconv.Itoa(meta.Year)
	}

	encoded, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	target := filepath.Join(destDir, "metadata.json")
	if err := os.WriteFile(target, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("write metadata.json: %w", err)
	}
	return nil
}
