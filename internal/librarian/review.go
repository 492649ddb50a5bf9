package librarian

import (
	"context"
	"log/slog"

	"autolib/internal/history"
	"autolib/internal/logging"
	"autolib/internal/services"
	"autolib/internal/workqueue"
)

// HandleDecision applies a review verdict to a queued item. Approval runs
// the organize pipeline on the pool; rejection moves the book to the manual
// directory and retires the record.
func (l *Librarian) HandleDecision(ctx context.Context, id string, approve bool) error {
	ctx = services.WithItemID(ctx, id)
	item, ok := l.queue.Item(id)
	if !ok {
		return services.Wrap(services.ErrNotFound, "librarian", "decision", "queue item "+id, nil)
	}
	logger := logging.WithContext(ctx, l.logger)

	if !approve {
		return l.reject(ctx, logger, item)
	}

	if _, err := l.queue.UpdateItem(ctx, id, workqueue.Update{Status: workqueue.StatusProcessing}); err != nil {
		return services.Wrap(services.ErrTransient, "librarian", "decision", "mark processing", err)
	}
	hash, err := history.CalculateHash(item.Dirpath, item.Files)
	if err != nil {
		return services.Wrap(services.ErrTransient, "librarian", "decision", "fingerprint", err)
	}

	// The organize task must outlive the HTTP request that approved it.
	taskCtx := context.WithoutCancel(ctx)
	started := l.submitTask(func() error {
		ctx := taskCtx
		dest, err := l.organizer.Organize(ctx, item.Dirpath, item.Files, item.Metadata)
		if err != nil {
			logger.Error("approved organize failed", logging.Error(err))
			attempts := 1
			if rec, gerr := l.store.Get(ctx, item.Dirpath); gerr == nil {
				attempts = attemptsOf(rec) + 1
			}
			// Failure record first, then the pending write-through, so
			// the store and the queue agree once the item settles.
			l.recordFailure(ctx, logger, item.Dirpath, hash, item.Files, attempts)
			if _, uerr := l.queue.UpdateItem(ctx, id, workqueue.Update{Status: workqueue.StatusPending}); uerr != nil {
				logger.Error("queue update failed", logging.Error(uerr))
			}
			l.notifyError(ctx, err, "organize "+item.Dirpath)
			return nil
		}
		if _, err := l.queue.UpdateItem(ctx, id, workqueue.Update{Status: workqueue.StatusCompleted}); err != nil {
			logger.Error("queue update failed", logging.Error(err))
		}
		logger.Info("approved book organized", logging.String("destination", dest))
		if item.Metadata != nil {
			if err := l.notifier.NotifyOrganized(ctx, item.Metadata.DisplayName(), dest); err != nil {
				logger.Warn("organize notification failed", logging.Error(err))
			}
		}
		if err := l.shelf.RefreshLibrary(ctx); err != nil {
			logger.Warn("library refresh failed", logging.Error(err))
		}
		return nil
	})
	if !started {
		logger.Info("organize workers busy, approval deferred")
	}
	return nil
}

func (l *Librarian) reject(ctx context.Context, logger *slog.Logger, item *workqueue.Item) error {
	if _, err := l.queue.UpdateItem(ctx, item.ID, workqueue.Update{Status: workqueue.StatusRejected}); err != nil {
		return services.Wrap(services.ErrTransient, "librarian", "decision", "mark rejected", err)
	}
	dest, err := l.organizer.MoveToManual(ctx, item.Dirpath)
	if err != nil {
		l.notifyError(ctx, err, "manual routing "+item.Dirpath)
		return services.Wrap(services.ErrTransient, "librarian", "decision", "move to manual", err)
	}
	if rec, gerr := l.store.Get(ctx, item.Dirpath); gerr == nil && rec != nil {
		rec.Status = history.StatusProcessed
		if serr := l.store.Save(ctx, rec); serr != nil {
			logger.Error("history update failed", logging.Error(serr))
		}
	}
	l.queue.RemoveItem(item.ID)
	logger.Info("rejected book moved to manual", logging.String("destination", dest))
	if err := l.notifier.NotifyManual(ctx, dest); err != nil {
		logger.Warn("manual notification failed", logging.Error(err))
	}
	return nil
}
