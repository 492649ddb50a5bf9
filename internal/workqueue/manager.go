package workqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"autolib/internal/history"
	"autolib/internal/identify"
	"autolib/internal/logging"
	"autolib/internal/services"
)

// Manager is the thread-safe queue of book units. One lock serializes every
// mutation, including the synchronous write-through to the history store.
type Manager struct {
	mu     sync.Mutex
	items  map[string]*Item
	store  *history.Store
	logger *slog.Logger
}

// NewManager creates an empty queue backed by the given history store.
func NewManager(store *history.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		items:  make(map[string]*Item),
		store:  store,
		logger: logging.NewComponentLogger(logger, "workqueue"),
	}
}

// AddItem inserts or replaces the item for a directory. Unless the item is
// being restored from history at startup, the insert writes through to the
// store as a pending record.
func (m *Manager) AddItem(ctx context.Context, dirpath string, files []string, metadata *identify.Result, fromHistory bool) (*Item, error) {
	if dirpath == "" {
		return nil, services.Wrap(services.ErrValidation, "workqueue", "add item", "dirpath is empty", nil)
	}

	now := time.Now().UTC()
	item := &Item{
		ID:        StableID(dirpath),
		Dirpath:   dirpath,
		Files:     append([]string(nil), files...),
		Metadata:  metadata.Clone(),
		Status:    StatusPending,
		AddedAt:   now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[item.ID] = item
	if !fromHistory {
		if err := m.writeThroughLocked(ctx, item); err != nil {
			return nil, err
		}
	}
	return item.clone(), nil
}

// Items returns a snapshot of every queued item, deep-copied so callers
// never observe concurrent mutation, ordered by arrival time.
func (m *Manager) Items() []*Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Item, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].Dirpath < out[j].Dirpath
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}

// Item returns a copy of the item with the given id.
func (m *Manager) Item(id string) (*Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, false
	}
	return item.clone(), true
}

// Len reports the number of queued items.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Update describes a partial item mutation. Nil fields are left unchanged.
type Update struct {
	Files    []string
	Metadata *identify.Result
	Status   Status
}

// UpdateItem applies the update, recomputes the content fingerprint from the
// item's current files, and writes through to the store.
func (m *Manager) UpdateItem(ctx context.Context, id string, update Update) (*Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "workqueue", "update item", fmt.Sprintf("no item %s", id), nil)
	}

	if update.Files != nil {
		item.Files = append([]string(nil), update.Files...)
	}
	if update.Metadata != nil {
		item.Metadata = update.Metadata.Clone()
	}
	if update.Status != "" {
		if !update.Status.valid() {
			return nil, services.Wrap(services.ErrValidation, "workqueue", "update item",
				fmt.Sprintf("invalid status %q", update.Status), nil)
		}
		item.Status = update.Status
	}
	item.UpdatedAt = time.Now().UTC()

	if err := m.writeThroughLocked(ctx, item); err != nil {
		return nil, err
	}
	return item.clone(), nil
}

// RemoveItem deletes the item from memory only. The history record is left
// untouched: removal is not a terminal-state transition, callers that mean
// "done" must update the store first.
func (m *Manager) RemoveItem(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return false
	}
	delete(m.items, id)
	return true
}

// Restore rehydrates the queue from every pending history record. No store
// writes happen during restoration. Returns the number of restored items.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	records, err := m.store.AllPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("load pending records: %w", err)
	}

	restored := 0
	for _, rec := range records {
		var metadata *identify.Result
		if len(rec.Metadata) > 0 {
			metadata = &identify.Result{}
			if err := json.Unmarshal(rec.Metadata, metadata); err != nil {
				m.logger.Warn("discarding unreadable metadata snapshot",
					logging.String("dir", rec.Path),
					logging.Error(err))
				metadata = nil
			}
		}
		if _, err := m.AddItem(ctx, rec.Path, rec.Files, metadata, true); err != nil {
			return restored, err
		}
		restored++
	}
	if restored > 0 {
		m.logger.Info("queue restored from history", logging.Int("items", restored))
	}
	return restored, nil
}

// writeThroughLocked persists the item's current state. Queue statuses map
// onto the history lifecycle: completed becomes processed, everything else
// stays pending so a restart re-offers unfinished work. The attempt counter
// carries over from the stored record; only organize outcomes change it.
func (m *Manager) writeThroughLocked(ctx context.Context, item *Item) error {
	hash, err := history.CalculateHash(item.Dirpath, item.Files)
	if err != nil {
		return fmt.Errorf("fingerprint %s: %w", item.Dirpath, err)
	}

	status := history.StatusPending
	if item.Status == StatusCompleted {
		status = history.StatusProcessed
	}

	attempts := 0
	if prior, err := m.store.Get(ctx, item.Dirpath); err != nil {
		return fmt.Errorf("read prior record: %w", err)
	} else if prior != nil {
		attempts = prior.Attempts
	}

	var metadata json.RawMessage
	if item.Metadata != nil {
		encoded, err := json.Marshal(item.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		metadata = encoded
	}

	rec := &history.Record{
		Path:        item.Dirpath,
		ContentHash: hash,
		Status:      status,
		Attempts:    attempts,
		Files:       item.Files,
		Metadata:    metadata,
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("write through: %w", err)
	}
	return nil
}
