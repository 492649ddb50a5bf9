package librarian

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"autolib/internal/history"
	"autolib/internal/identify"
	"autolib/internal/logging"
	"autolib/internal/services"
)

// ProcessBook runs one book unit through identification, enrichment, and
// routing. Collaborator failures are reported through the returned error but
// never stop the caller's loop.
func (l *Librarian) ProcessBook(ctx context.Context, dirpath string, files []string) error {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithBookDir(ctx, dirpath)
	logger := logging.WithContext(ctx, l.logger)

	if !l.beginWork(dirpath) {
		logger.Debug("book already in flight, skipping")
		return nil
	}
	release := true
	defer func() {
		if release {
			l.endWork(dirpath)
		}
	}()

	hash, err := history.CalculateHash(dirpath, files)
	if err != nil {
		return services.Wrap(services.ErrTransient, "librarian", "fingerprint", dirpath, err)
	}

	rec, err := l.store.Get(ctx, dirpath)
	if err != nil {
		logger.Warn("history lookup failed, treating book as new", logging.Error(err))
		rec = nil
	}
	if skip, err := l.applySkipRule(ctx, logger, rec, hash); skip {
		return err
	}

	guess, err := l.identifier.Identify(ctx, dirpath, files)
	if err != nil {
		l.recordFailure(ctx, logger, dirpath, hash, files, attemptsOf(rec)+1)
		l.notifyError(ctx, err, "identify "+dirpath)
		return services.Wrap(services.ErrTransient, "librarian", "identify", dirpath, err)
	}

	result, err := l.enricher.Enrich(ctx, guess)
	if err != nil {
		logger.Warn("enrichment failed, using local guess", logging.Error(err))
		result = guess
	}
	logger.Info("book identified",
		logging.String("book", result.DisplayName()),
		logging.Float64("confidence", result.Confidence),
		logging.String("source", result.Source))
	if err := l.notifier.NotifyIdentified(ctx, result.DisplayName(), result.Confidence); err != nil {
		logger.Warn("identification notification failed", logging.Error(err))
	}

	return l.route(ctx, logger, dirpath, files, result, rec, hash, &release)
}

// applySkipRule decides whether an existing history record short-circuits
// processing. Unchanged pending/processed books are skipped outright; failed
// books retry until the attempt budget runs out.
func (l *Librarian) applySkipRule(ctx context.Context, logger *slog.Logger, rec *history.Record, hash string) (bool, error) {
	if rec == nil || rec.ContentHash != hash {
		return false, nil
	}
	switch rec.Status {
	case history.StatusProcessed, history.StatusPending:
		logger.Info("book unchanged, skipping", logging.String("status", string(rec.Status)))
		return true, nil
	case history.StatusFailed:
		if rec.Attempts < l.cfg.Workers.MaxOrganizeAttempts {
			logger.Info("retrying failed book", logging.Int("attempts", rec.Attempts))
			return false, nil
		}
		logger.Warn("book exhausted organize attempts, leaving alone",
			logging.Int("attempts", rec.Attempts))
		l.notifyError(ctx, services.Wrap(services.ErrTransient, "librarian", "retry",
			"organize attempts exhausted for "+rec.Path, nil), "organize "+rec.Path)
		return true, nil
	}
	return false, nil
}

func (l *Librarian) route(ctx context.Context, logger *slog.Logger, dirpath string, files []string, result *identify.Result, rec *history.Record, hash string, release *bool) error {
	if l.cfg.ReviewEnabled() {
		item, err := l.queue.AddItem(ctx, dirpath, files, result, false)
		if err != nil {
			return services.Wrap(services.ErrTransient, "librarian", "queue", dirpath, err)
		}
		logger.Info("book queued for review", logging.String("item_id", item.ID))
		if err := l.notifier.NotifyReviewQueued(ctx, result.DisplayName(), item.ID); err != nil {
			logger.Warn("review notification failed", logging.Error(err))
		}
		return nil
	}

	if result.Confidence < l.cfg.Matching.ProbableThreshold {
		dest, err := l.organizer.MoveToManual(ctx, dirpath)
		if err != nil {
			l.notifyError(ctx, err, "manual routing "+dirpath)
			return services.Wrap(services.ErrTransient, "librarian", "manual", dirpath, err)
		}
		logger.Info("low-confidence book routed to manual",
			logging.Float64("confidence", result.Confidence),
			logging.String("destination", dest))
		l.saveRecord(ctx, logger, dirpath, hash, history.StatusProcessed, 0, files, result)
		if err := l.notifier.NotifyManual(ctx, dest); err != nil {
			logger.Warn("manual notification failed", logging.Error(err))
		}
		return nil
	}

	// The organize task owns the in-flight marker from here, whether it
	// runs now or parks on the backlog. Shutdown drains running organize
	// work instead of cancelling it.
	*release = false
	attempts := attemptsOf(rec)
	taskCtx := context.WithoutCancel(ctx)
	started := l.submitTask(func() error {
		defer l.endWork(dirpath)
		l.organize(taskCtx, logger, dirpath, files, result, hash, attempts)
		return nil
	})
	if !started {
		logger.Info("organize workers busy, book deferred")
	}
	return nil
}

func (l *Librarian) organize(ctx context.Context, logger *slog.Logger, dirpath string, files []string, result *identify.Result, hash string, priorAttempts int) {
	dest, err := l.organizer.Organize(ctx, dirpath, files, result)
	if err != nil {
		logger.Error("organize failed", logging.Error(err), logging.Int("attempts", priorAttempts+1))
		l.recordFailure(ctx, logger, dirpath, hash, files, priorAttempts+1)
		l.notifyError(ctx, err, "organize "+dirpath)
		return
	}
	logger.Info("book organized", logging.String("destination", dest))
	l.saveRecord(ctx, logger, dirpath, hash, history.StatusProcessed, 0, files, result)
	if err := l.notifier.NotifyOrganized(ctx, result.DisplayName(), dest); err != nil {
		logger.Warn("organize notification failed", logging.Error(err))
	}
	if err := l.shelf.RefreshLibrary(ctx); err != nil {
		logger.Warn("library refresh failed", logging.Error(err))
	}
}

func (l *Librarian) saveRecord(ctx context.Context, logger *slog.Logger, dirpath, hash string, status history.Status, attempts int, files []string, result *identify.Result) {
	var metadata json.RawMessage
	if result != nil {
		if data, err := json.Marshal(result); err == nil {
			metadata = data
		}
	}
	rec := &history.Record{
		Path:        dirpath,
		ContentHash: hash,
		Status:      status,
		Attempts:    attempts,
		Files:       files,
		Metadata:    metadata,
	}
	if err := l.store.Save(ctx, rec); err != nil {
		logger.Error("history update failed", logging.Error(err), logging.String("status", string(status)))
	}
}

func (l *Librarian) recordFailure(ctx context.Context, logger *slog.Logger, dirpath, hash string, files []string, attempts int) {
	rec := &history.Record{
		Path:        dirpath,
		ContentHash: hash,
		Status:      history.StatusFailed,
		Attempts:    attempts,
		Files:       files,
	}
	if err := l.store.Save(ctx, rec); err != nil {
		logger.Error("history update failed", logging.Error(err))
	}
}

func (l *Librarian) notifyError(ctx context.Context, err error, label string) {
	if nerr := l.notifier.NotifyError(ctx, err, label); nerr != nil {
		l.logger.Warn("error notification failed", logging.Error(nerr))
	}
}

func attemptsOf(rec *history.Record) int {
	if rec == nil {
		return 0
	}
	return rec.Attempts
}
