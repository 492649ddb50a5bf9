package converter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"autolib/internal/identify"
)

// Prober wraps ffprobe for duration and tag extraction.
type Prober struct {
	binary string
}

// NewProber creates a prober. An empty binary falls back to "ffprobe" on PATH.
func NewProber(binary string) *Prober {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary}
}

type probePayload struct {
	Format struct {
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
}

func (p *Prober) probe(ctx context.Context, path string) (*probePayload, error) {
	if path == "" {
		return nil, errors.New("path required")
	}
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration:format_tags",
		"-of", "json",
		path,
	}
	cmd := commandContext(ctx, p.binary, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var payload probePayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	return &payload, nil
}

// Duration returns the file's playback length in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	payload, err := p.probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if payload.Format.Duration == "" {
		return 0, fmt.Errorf("no duration reported for %s", path)
	}
	seconds, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", payload.Format.Duration, err)
	}
	return seconds, nil
}

// ReadTags implements identify.TagReader using the file's format tags.
// Artist maps to author and composer to narrator, the common audiobook
// tagging convention.
func (p *Prober) ReadTags(ctx context.Context, path string) (*identify.Tags, error) {
	payload, err := p.probe(ctx, path)
	if err != nil {
		return nil, err
	}
	raw := payload.Format.Tags
	if len(raw) == 0 {
		return nil, nil
	}

	normalized := make(map[string]string, len(raw))
	for key, value := range raw {
		normalized[strings.ToLower(key)] = strings.TrimSpace(value)
	}

	tags := &identify.Tags{
		Title:    firstOf(normalized, "album", "title"),
		Author:   firstOf(normalized, "album_artist", "artist"),
		Narrator: normalized["composer"],
	}
	if date := firstOf(normalized, "date", "year"); len(date) >= 4 {
		if year, err := strconv.Atoi(date[:4]); err == nil {
			tags.Year = year
		}
	}
	if tags.Title == "" && tags.Author == "" && tags.Narrator == "" && tags.Year == 0 {
		return nil, nil
	}
	return tags, nil
}

func firstOf(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if value := tags[key]; value != "" {
			return value
		}
	}
	return ""
}
