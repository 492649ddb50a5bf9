// Package librarian routes book units from identification through
// enrichment to organization or review.
package librarian

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"autolib/internal/config"
	"autolib/internal/converter"
	"autolib/internal/history"
	"autolib/internal/identify"
	"autolib/internal/logging"
	"autolib/internal/notifications"
	"autolib/internal/organizer"
	"autolib/internal/providers"
	"autolib/internal/services/audiobookshelf"
	"autolib/internal/workqueue"
)

// BookIdentifier derives an initial metadata guess for a book directory.
type BookIdentifier interface {
	Identify(ctx context.Context, dir string, files []string) (*identify.Result, error)
}

// Enricher improves a metadata guess using external providers.
type Enricher interface {
	Enrich(ctx context.Context, guess *identify.Result) (*identify.Result, error)
}

// BookOrganizer places finished books into the library or manual area.
type BookOrganizer interface {
	Organize(ctx context.Context, dirpath string, files []string, meta *identify.Result) (string, error)
	MoveToManual(ctx context.Context, dirpath string) (string, error)
}

// Librarian coordinates the per-book pipeline and the bounded organize pool.
type Librarian struct {
	cfg        *config.Config
	store      *history.Store
	queue      *workqueue.Manager
	identifier BookIdentifier
	enricher   Enricher
	organizer  BookOrganizer
	notifier   notifications.Service
	shelf      audiobookshelf.Service
	logger     *slog.Logger

	pool *errgroup.Group

	mu       sync.Mutex
	inFlight map[string]struct{}
	backlog  []func() error
}

// Deps bundles the collaborators a Librarian needs. Zero-value fields are
// filled with the production implementations built from cfg.
type Deps struct {
	Store      *history.Store
	Queue      *workqueue.Manager
	Identifier BookIdentifier
	Enricher   Enricher
	Organizer  BookOrganizer
	Notifier   notifications.Service
	Shelf      audiobookshelf.Service
}

// New constructs a Librarian. Store and Queue are required; the remaining
// collaborators default to the configured implementations.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) (*Librarian, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Enricher == nil {
		agg, err := providers.NewAggregator(cfg, logger)
		if err != nil {
			return nil, err
		}
		deps.Enricher = agg
	}
	if deps.Identifier == nil {
		deps.Identifier = identify.New(logger, converter.NewProber(cfg.Conversion.FFprobePath))
	}
	if deps.Organizer == nil {
		deps.Organizer = organizer.New(cfg, converter.NewCLI(cfg, logger), logger)
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	if deps.Shelf == nil {
		deps.Shelf = audiobookshelf.NewConfiguredService(cfg)
	}

	pool := &errgroup.Group{}
	limit := cfg.Workers.Max
	if limit < 1 {
		limit = 1
	}
	pool.SetLimit(limit)

	return &Librarian{
		cfg:        cfg,
		store:      deps.Store,
		queue:      deps.Queue,
		identifier: deps.Identifier,
		enricher:   deps.Enricher,
		organizer:  deps.Organizer,
		notifier:   deps.Notifier,
		shelf:      deps.Shelf,
		logger:     logging.NewComponentLogger(logger, "librarian"),
		pool:       pool,
		inFlight:   make(map[string]struct{}),
	}, nil
}

// Queue exposes the work queue for the review API.
func (l *Librarian) Queue() *workqueue.Manager { return l.queue }

// Restore rehydrates the work queue from pending history records.
func (l *Librarian) Restore(ctx context.Context) (int, error) {
	return l.queue.Restore(ctx)
}

// Wait blocks until all in-flight organize tasks finish.
func (l *Librarian) Wait() {
	_ = l.pool.Wait()
}

func (l *Librarian) beginWork(dirpath string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.inFlight[dirpath]; busy {
		return false
	}
	l.inFlight[dirpath] = struct{}{}
	return true
}

func (l *Librarian) endWork(dirpath string) {
	l.mu.Lock()
	delete(l.inFlight, dirpath)
	l.mu.Unlock()
}

// submitTask hands an organize task to the pool without ever blocking the
// caller. When every worker is busy the task parks on the backlog until
// SubmitDeferred launches it. Reports whether the task started immediately.
func (l *Librarian) submitTask(task func() error) bool {
	if l.pool.TryGo(task) {
		return true
	}
	l.mu.Lock()
	l.backlog = append(l.backlog, task)
	l.mu.Unlock()
	return false
}

// SubmitDeferred launches backlogged organize tasks while pool workers are
// free. The daemon calls this on every tick.
func (l *Librarian) SubmitDeferred() {
	for {
		l.mu.Lock()
		if len(l.backlog) == 0 {
			l.mu.Unlock()
			return
		}
		task := l.backlog[0]
		l.backlog = l.backlog[1:]
		l.mu.Unlock()

		if !l.pool.TryGo(task) {
			l.mu.Lock()
			l.backlog = append([]func() error{task}, l.backlog...)
			l.mu.Unlock()
			return
		}
	}
}
