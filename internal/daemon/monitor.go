package daemon

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"autolib/internal/config"
	"autolib/internal/logging"
)

// FileHandler receives each newly observed, size-stable file.
type FileHandler func(ctx context.Context, path string)

type fileState struct {
	size    int64
	modTime int64
	emitted bool
}

// MonitorStats summarizes monitor activity since startup.
type MonitorStats struct {
	FilesObserved int64
	FilesEmitted  int64
}

// fileMonitor polls the input directory and emits files once their size
// stops changing between ticks, so half-copied books never enter the
// pipeline.
type fileMonitor struct {
	cfg     *config.Config
	logger  *slog.Logger
	handler FileHandler

	mu   sync.Mutex
	seen map[string]fileState

	observed atomic.Int64
	emitted  atomic.Int64
}

func newFileMonitor(cfg *config.Config, logger *slog.Logger, handler FileHandler) *fileMonitor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &fileMonitor{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "monitor"),
		handler: handler,
		seen:    make(map[string]fileState),
	}
}

// Tick performs one scan of the input directory.
func (m *fileMonitor) Tick(ctx context.Context) error {
	root := m.cfg.Paths.InputDir
	current := make(map[string]fileState)

	if err := scanInputDir(root, current); err != nil {
		return err
	}

	m.mu.Lock()
	var ready []string
	for path, state := range current {
		prev, known := m.seen[path]
		if !known {
			m.observed.Add(1)
			m.seen[path] = state
			continue
		}
		if prev.emitted {
			state.emitted = true
			m.seen[path] = state
			continue
		}
		if prev.size == state.size && prev.modTime == state.modTime {
			state.emitted = true
			m.seen[path] = state
			ready = append(ready, path)
			continue
		}
		m.seen[path] = state
	}
	for path := range m.seen {
		if _, present := current[path]; !present {
			delete(m.seen, path)
		}
	}
	m.mu.Unlock()

	for _, path := range ready {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		m.emitted.Add(1)
		m.handler(ctx, path)
	}
	return nil
}

// Stats reports monitor counters.
func (m *fileMonitor) Stats() MonitorStats {
	return MonitorStats{
		FilesObserved: m.observed.Load(),
		FilesEmitted:  m.emitted.Load(),
	}
}

func scanInputDir(root string, current map[string]fileState) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			if strings.HasSuffix(d.Name(), ".extracting") {
				return filepath.SkipDir
			}
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		current[path] = fileState{size: info.Size(), modTime: info.ModTime().UnixNano()}
		return nil
	})
}
