package identify

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"autolib/internal/logging"
)

// Identifier derives a metadata guess from a book directory.
type Identifier struct {
	tags   TagReader
	logger *slog.Logger
}

// New creates an identifier. A nil reader disables tag extraction.
func New(logger *slog.Logger, tags TagReader) *Identifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	if tags == nil {
		tags = NopTagReader{}
	}
	return &Identifier{tags: tags, logger: logging.NewComponentLogger(logger, "identify")}
}

var (
	bracketPattern = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)|\{[^}]*\}`)
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	titleCaser     = cases.Title(language.Und)
)

// noiseTokens are release-style markers that carry no metadata value once
// brackets are stripped.
var noiseTokens = map[string]struct{}{
	"unabridged": {},
	"abridged":   {},
	"audiobook":  {},
	"mp3":        {},
	"m4b":        {},
	"retail":     {},
	"64k":        {},
	"128k":       {},
}

// Identify builds a Result for the directory. The directory base name is the
// primary source: bracketed release tags are dropped, a four-digit year is
// captured, and an "Author - Title" split is attempted. Embedded tags from
// the first file, when readable, override the filename guess.
func (i *Identifier) Identify(ctx context.Context, dir string, files []string) (*Result, error) {
	result := parseDirName(filepath.Base(dir))
	result.Source = "filename"

	if len(files) > 0 {
		tags, err := i.tags.ReadTags(ctx, files[0])
		if err != nil {
			i.logger.Warn("tag extraction failed",
				logging.String("file", files[0]),
				logging.Error(err))
		} else if tags != nil {
			applyTags(result, tags)
		}
	}

	i.logger.Debug("identified book unit",
		logging.String("dir", dir),
		logging.String("title", result.Title),
		logging.String("author", result.Author),
		logging.String("source", result.Source))
	return result, nil
}

func parseDirName(name string) *Result {
	result := &Result{}

	if match := yearPattern.FindString(name); match != "" {
		if year, err := strconv.Atoi(match); err == nil {
			result.Year = year
		}
	}

	name = bracketPattern.ReplaceAllString(name, " ")
	name = yearPattern.ReplaceAllString(name, " ")

	if author, title, ok := strings.Cut(name, " - "); ok {
		result.Author = cleanSegment(author)
		result.Title = cleanSegment(title)
	} else {
		result.Title = cleanSegment(name)
	}
	if result.Title == "" && result.Year != 0 {
		// The whole title was a four-digit year, e.g. "George Orwell - 1984".
		result.Title = strconv.Itoa(result.Year)
		result.Year = 0
	}
	if result.Title == "" {
		result.Title = "Unknown Book"
	}
	return result
}

// cleanSegment collapses separators to spaces, drops noise tokens, and
// applies title casing.
func cleanSegment(segment string) string {
	var cleaned strings.Builder
	prevSpace := false
	for _, r := range segment {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || r == '\'':
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == ',':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	words := strings.Fields(cleaned.String())
	kept := words[:0]
	for _, word := range words {
		if _, noisy := noiseTokens[strings.ToLower(word)]; noisy {
			continue
		}
		kept = append(kept, word)
	}
	return titleCaser.String(strings.Join(kept, " "))
}

func applyTags(result *Result, tags *Tags) {
	changed := false
	if tags.Title != "" {
		result.Title = tags.Title
		changed = true
	}
	if tags.Author != "" {
		result.Author = tags.Author
		changed = true
	}
	if tags.Narrator != "" {
		result.Narrator = tags.Narrator
		changed = true
	}
	if tags.Year != 0 {
		result.Year = tags.Year
		changed = true
	}
	if changed {
		result.Source = "tags"
	}
}
