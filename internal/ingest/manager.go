package ingest

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"autolib/internal/config"
	"autolib/internal/logging"
)

// GroupHandler receives each completed book unit.
type GroupHandler func(ctx context.Context, dir string, files []string)

// Stats summarizes ingestion activity since startup.
type Stats struct {
	TrackedDirs      int
	FilesAccepted    int64
	FilesIgnored     int64
	ArchivesExpanded int64
	GroupsEmitted    int64
}

// Manager routes raw file arrivals through archive expansion and the
// grouper, and delivers quiescent groups to its handler on each tick.
type Manager struct {
	cfg     *config.Config
	logger  *slog.Logger
	grouper *Grouper
	handler GroupHandler

	filesAccepted    atomic.Int64
	filesIgnored     atomic.Int64
	archivesExpanded atomic.Int64
	groupsEmitted    atomic.Int64
}

// NewManager wires a manager from configuration. handler must not be nil.
func NewManager(cfg *config.Config, logger *slog.Logger, handler GroupHandler) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	window := time.Duration(cfg.Ingest.DebounceWindowSeconds) * time.Second
	return &Manager{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "ingest"),
		grouper: NewGrouper(window, cfg.Ingest.RegroupPolicy),
		handler: handler,
	}
}

// ProcessFile handles one newly observed file. Archives are expanded and
// their contents fed back through the same path; files with allowed audio
// extensions join their directory's group; everything else is ignored.
func (m *Manager) ProcessFile(ctx context.Context, path string) {
	if isArchive(path) {
		dir, files, err := ExpandArchive(path)
		if err != nil {
			m.logger.Error("archive expansion failed",
				logging.String("archive", path),
				logging.Error(err))
			return
		}
		m.archivesExpanded.Add(1)
		m.logger.Info("archive expanded",
			logging.String("archive", path),
			logging.String("dir", dir),
			logging.Int("files", len(files)))
		for _, extracted := range files {
			m.ProcessFile(ctx, extracted)
		}
		return
	}

	if !m.cfg.AllowsExtension(filepath.Ext(path)) {
		m.filesIgnored.Add(1)
		m.logger.Debug("ignoring file with disallowed extension", logging.String("path", path))
		return
	}

	m.grouper.AddFile(path)
	m.filesAccepted.Add(1)
	m.logger.Debug("file accepted", logging.String("path", path))
}

// Tick emits every group that has been quiet past the debounce window.
func (m *Manager) Tick(ctx context.Context, now time.Time) {
	for _, group := range m.grouper.CheckGroups(now) {
		m.groupsEmitted.Add(1)
		m.logger.Info("book unit ready",
			logging.String("dir", group.Dir),
			logging.Int("files", len(group.Files)))
		m.handler(ctx, group.Dir, group.Files)
	}
}

// Stats returns a snapshot of ingestion counters.
func (m *Manager) Stats() Stats {
	return Stats{
		TrackedDirs:      m.grouper.TrackedDirs(),
		FilesAccepted:    m.filesAccepted.Load(),
		FilesIgnored:     m.filesIgnored.Load(),
		ArchivesExpanded: m.archivesExpanded.Load(),
		GroupsEmitted:    m.groupsEmitted.Load(),
	}
}

func isArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}
