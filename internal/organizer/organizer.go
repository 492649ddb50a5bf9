package organizer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"autolib/internal/config"
	"autolib/internal/converter"
	"autolib/internal/identify"
	"autolib/internal/logging"
	"autolib/internal/services"
	"autolib/internal/textutil"
)

// Organizer moves finished book units into the library tree.
type Organizer struct {
	cfg       *config.Config
	converter converter.Client
	logger    *slog.Logger
}

// New constructs an organizer around the given converter.
func New(cfg *config.Config, conv converter.Client, logger *slog.Logger) *Organizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Organizer{
		cfg:       cfg,
		converter: conv,
		logger:    logging.NewComponentLogger(logger, "organizer"),
	}
}

// DestinationDir returns the library directory a unit would land in.
func (o *Organizer) DestinationDir(meta *identify.Result) string {
	author := "Unknown Author"
	title := "Unknown Book"
	if meta != nil {
		if meta.Author != "" {
			author = meta.Author
		}
		if meta.Title != "" {
			title = meta.Title
		}
	}
	return filepath.Join(o.cfg.Paths.LibraryDir,
		textutil.SanitizePathSegment(author),
		textutil.SanitizePathSegment(title))
}

// Organize merges the unit's audio into the library and writes the
// Audiobookshelf metadata file, then removes the source directory. Returns
// the destination directory. In dry-run mode it only reports what would
// happen.
func (o *Organizer) Organize(ctx context.Context, dirpath string, files []string, meta *identify.Result) (string, error) {
	if len(files) == 0 {
		return "", services.Wrap(services.ErrValidation, "organizer", "organize", "no files to organize", nil)
	}

	destDir := o.DestinationDir(meta)
	outputName := textutil.SanitizePathSegment(titleOf(meta)) + ".m4b"
	outputPath := filepath.Join(destDir, outputName)

	logger := logging.WithContext(ctx, o.logger)
	if o.cfg.DryRun {
		logger.Info("dry run: would organize book unit",
			logging.String("dir", dirpath),
			logging.String("destination", outputPath))
		return destDir, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create destination: %w", err)
	}

	if single, ok := singleM4B(files); ok {
		if err := moveFile(single, outputPath); err != nil {
			return "", fmt.Errorf("move %s: %w", single, err)
		}
	} else {
		if err := o.converter.Merge(ctx, files, meta, outputPath); err != nil {
			return "", err
		}
	}

	if err := writeMetadataFile(destDir, meta); err != nil {
		return "", err
	}

	if err := os.RemoveAll(dirpath); err != nil {
		logger.Warn("could not remove source directory",
			logging.String("dir", dirpath),
			logging.Error(err))
	}

	logger.Info("book unit organized",
		logging.String("dir", dirpath),
		logging.String("destination", outputPath))
	return destDir, nil
}

// MoveToManual relocates the whole unit directory into the manual
// intervention area, keeping its base name. Returns the new location.
func (o *Organizer) MoveToManual(ctx context.Context, dirpath string) (string, error) {
	target := filepath.Join(o.cfg.Paths.ManualDir, filepath.Base(dirpath))

	logger := logging.WithContext(ctx, o.logger)
	if o.cfg.DryRun {
		logger.Info("dry run: would move to manual",
			logging.String("dir", dirpath),
			logging.String("target", target))
		return target, nil
	}

	if err := os.MkdirAll(o.cfg.Paths.ManualDir, 0o755); err != nil {
		return "", fmt.Errorf("create manual dir: %w", err)
	}
	if err := moveDir(dirpath, target); err != nil {
		return "", fmt.Errorf("move to manual: %w", err)
	}

	logger.Info("book unit moved to manual intervention",
		logging.String("dir", dirpath),
		logging.String("target", target))
	return target, nil
}

func titleOf(meta *identify.Result) string {
	if meta != nil && meta.Title != "" {
		return meta.Title
	}
	return "Unknown Book"
}

// singleM4B reports whether the unit is exactly one already-packaged m4b.
func singleM4B(files []string) (string, bool) {
	if len(files) != 1 {
		return "", false
	}
	if !strings.EqualFold(filepath.Ext(files[0]), ".m4b") {
		return "", false
	}
	return files[0], true
}
