package converter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"autolib/internal/config"
	"autolib/internal/identify"
	"autolib/internal/logging"
	"autolib/internal/services"
)

var commandContext = exec.CommandContext

// Client merges a book unit's audio files into one output file.
type Client interface {
	Merge(ctx context.Context, files []string, meta *identify.Result, outputPath string) error
}

// CLI drives ffmpeg directly.
type CLI struct {
	ffmpegBin string
	prober    *Prober
	bitrate   string
	codec     string
	logger    *slog.Logger
}

// NewCLI builds a converter from configuration.
func NewCLI(cfg *config.Config, logger *slog.Logger) *CLI {
	if logger == nil {
		logger = logging.NewNop()
	}
	ffmpegBin := strings.TrimSpace(cfg.Conversion.FFmpegPath)
	if ffmpegBin == "" {
		ffmpegBin = "ffmpeg"
	}
	return &CLI{
		ffmpegBin: ffmpegBin,
		prober:    NewProber(cfg.Conversion.FFprobePath),
		bitrate:   cfg.Conversion.Bitrate,
		codec:     cfg.Conversion.Codec,
		logger:    logging.NewComponentLogger(logger, "converter"),
	}
}

// Prober exposes the underlying ffprobe wrapper for tag extraction.
func (c *CLI) Prober() *Prober {
	return c.prober
}

// Merge concatenates the input files into outputPath with one chapter per
// input. The output is written to a temporary sibling first and renamed
// into place, so an interrupted conversion never leaves a half-written
// file at the destination.
func (c *CLI) Merge(ctx context.Context, files []string, meta *identify.Result, outputPath string) error {
	if len(files) == 0 {
		return services.Wrap(services.ErrValidation, "converter", "merge", "no input files", nil)
	}
	if outputPath == "" {
		return services.Wrap(services.ErrValidation, "converter", "merge", "output path required", nil)
	}

	workDir, err := os.MkdirTemp(filepath.Dir(outputPath), ".convert-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	listPath := filepath.Join(workDir, "inputs.txt")
	if err := os.WriteFile(listPath, []byte(concatList(files)), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	chapters, err := c.chapterMarks(ctx, files)
	if err != nil {
		return err
	}
	metaPath := filepath.Join(workDir, "ffmetadata.txt")
	if err := os.WriteFile(metaPath, []byte(buildMetadata(meta, chapters)), 0o644); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	tempOut := filepath.Join(workDir, "output"+filepath.Ext(outputPath))
	args := []string{
		"-y", "-nostdin",
		"-f", "concat", "-safe", "0",
		"-i", listPath,
		"-i", metaPath,
		"-map_metadata", "1",
		"-c:a", c.codec,
		"-b:a", c.bitrate,
		tempOut,
	}

	c.logger.Info("merging book unit",
		logging.Int("files", len(files)),
		logging.String("output", outputPath))
	cmd := commandContext(ctx, c.ffmpegBin, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return services.Wrap(services.ErrExternalTool, "converter", "merge",
			fmt.Sprintf("ffmpeg failed: %s", tail(string(out))), err)
	}

	if err := os.Rename(tempOut, outputPath); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}

// Chapter is one chapter boundary in milliseconds.
type Chapter struct {
	Title   string
	StartMS int64
	EndMS   int64
}

// chapterMarks probes each file's duration and accumulates boundaries. A
// file whose duration cannot be read yields a chapterless merge rather
// than a failure.
func (c *CLI) chapterMarks(ctx context.Context, files []string) ([]Chapter, error) {
	var (
		chapters []Chapter
		cursor   float64
	)
	for _, file := range files {
		seconds, err := c.prober.Duration(ctx, file)
		if err != nil {
			c.logger.Warn("skipping chapter marks, duration probe failed",
				logging.String("file", file),
				logging.Error(err))
			return nil, nil
		}
		base := filepath.Base(file)
		chapters = append(chapters, Chapter{
			Title:   strings.TrimSuffix(base, filepath.Ext(base)),
			StartMS: int64(cursor * 1000),
			EndMS:   int64((cursor + seconds) * 1000),
		})
		cursor += seconds
	}
	return chapters, nil
}

// concatList renders the ffmpeg concat demuxer input list. Single quotes
// inside paths use the standard '\'' escape.
func concatList(files []string) string {
	var b strings.Builder
	for _, file := range files {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(file, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// buildMetadata renders an ffmetadata document with global tags and one
// CHAPTER block per input file.
func buildMetadata(meta *identify.Result, chapters []Chapter) string {
	var b strings.Builder
	b.WriteString(";FFMETADATA1\n")
	if meta != nil {
		writeTag(&b, "title", meta.Title)
		writeTag(&b, "album", meta.Title)
		writeTag(&b, "artist", meta.Author)
		writeTag(&b, "album_artist", meta.Author)
		writeTag(&b, "composer", meta.Narrator)
		if meta.Year != 0 {
			writeTag(&b, "date", fmt.Sprintf("%d", meta.Year))
		}
		writeTag(&b, "description", meta.Description)
	}
	for _, ch := range chapters {
		b.WriteString("[CHAPTER]\nTIMEBASE=1/1000\n")
		fmt.Fprintf(&b, "START=%d\nEND=%d\n", ch.StartMS, ch.EndMS)
		writeTag(&b, "title", ch.Title)
	}
	return b.String()
}

// writeTag emits key=value with ffmetadata special characters escaped.
func writeTag(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	replacer := strings.NewReplacer("\\", "\\\\", "=", "\\=", ";", "\\;", "#", "\\#", "\n", "\\\n")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(replacer.Replace(value))
	b.WriteString("\n")
}

// tail returns the last few lines of process output for error context.
func tail(out string) string {
	out = strings.TrimSpace(out)
	lines := strings.Split(out, "\n")
	if len(lines) > 4 {
		lines = lines[len(lines)-4:]
	}
	return strings.Join(lines, " | ")
}

var _ Client = (*CLI)(nil)
