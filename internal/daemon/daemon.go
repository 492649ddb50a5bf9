// Package daemon runs the long-lived ingestion service: the input
// directory monitor, the debounce ticker, the review API, and the
// single-instance lock.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"autolib/internal/config"
	"autolib/internal/deps"
	"autolib/internal/history"
	"autolib/internal/ingest"
	"autolib/internal/librarian"
	"autolib/internal/logging"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *history.Store
	lib      *librarian.Librarian
	ingester *ingest.Manager
	monitor  *fileMonitor
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, store *history.Store, lib *librarian.Librarian) (*Daemon, error) {
	if cfg == nil || store == nil || lib == nil {
		return nil, errors.New("daemon requires config, store, and librarian")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		lib:      lib,
		lockPath: filepath.Join(cfg.Paths.LogDir, "autolibd.lock"),
	}
	d.lock = flock.New(d.lockPath)

	d.ingester = ingest.NewManager(cfg, logger, func(ctx context.Context, dir string, files []string) {
		if err := lib.ProcessBook(ctx, dir, files); err != nil {
			d.logger.Error("book processing failed",
				logging.String("dirpath", dir), logging.Error(err))
		}
	})
	d.monitor = newFileMonitor(cfg, logger, d.ingester.ProcessFile)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, rehydrates the work queue, and launches
// the API server and the tick loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another autolib daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for _, status := range deps.CheckBinaries(deps.Required(d.cfg)) {
		if !status.Available && !status.Optional {
			d.logger.Warn("external dependency unavailable",
				logging.String("name", status.Name),
				logging.String("command", status.Command),
				logging.String("detail", status.Detail))
		}
	}

	restored, err := d.lib.Restore(runCtx)
	if err != nil {
		d.logger.Warn("work queue rehydration failed", logging.Error(err))
	} else if restored > 0 {
		d.logger.Info("work queue rehydrated", logging.Int("items", restored))
	}

	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.wg.Add(1)
	go d.run(runCtx)

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("input_dir", d.cfg.Paths.InputDir),
		logging.String("lock", d.lockPath),
		logging.Int("pid", os.Getpid()))
	return nil
}

func (d *Daemon) run(ctx context.Context) {
	defer d.wg.Done()

	interval := time.Duration(d.cfg.Workflow.TickInterval) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick performs one monitor scan, one debounce pass, and retries organize
// work that was deferred while the worker pool was full. Exposed for tests
// and for driving the daemon without its internal ticker.
func (d *Daemon) Tick(ctx context.Context) {
	if err := d.monitor.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("input scan failed", logging.Error(err))
	}
	d.ingester.Tick(ctx, time.Now())
	d.lib.SubmitDeferred()
}

// Stop halts background processing, waits for in-flight organize work, and
// releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.api.stop()
	d.lib.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the history store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr returns the bound API address, or "" before Start.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status reports current daemon state.
func (d *Daemon) Status(ctx context.Context) Status {
	historyCounts := make(map[string]int)
	if stats, err := d.store.Stats(ctx); err == nil {
		for status, count := range stats {
			historyCounts[string(status)] = count
		}
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		QueueLength:   d.lib.Queue().Len(),
		HistoryDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		Ingest:        d.ingester.Stats(),
		Monitor:       d.monitor.Stats(),
		History:       historyCounts,
	}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	QueueLength   int
	HistoryDBPath string
	LockFilePath  string
	Ingest        ingest.Stats
	Monitor       MonitorStats
	History       map[string]int
}
