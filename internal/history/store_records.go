package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const recordColumns = "path, content_hash, status, attempts, last_updated, file_list, metadata_json"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		path       string
		hash       string
		statusStr  string
		attempts   int
		updatedRaw string
		fileList   sql.NullString
		metadata   sql.NullString
	)
	if err := scanner.Scan(&path, &hash, &statusStr, &attempts, &updatedRaw, &fileList, &metadata); err != nil {
		return nil, err
	}

	rec := &Record{
		Path:        path,
		ContentHash: hash,
		Status:      Status(statusStr),
		Attempts:    attempts,
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		rec.LastUpdated = ts
	}
	if fileList.Valid && fileList.String != "" {
		if err := json.Unmarshal([]byte(fileList.String), &rec.Files); err != nil {
			return nil, fmt.Errorf("decode file list for %s: %w", path, err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		rec.Metadata = json.RawMessage(metadata.String)
	}
	return rec, nil
}

// Get returns the record for a book directory, or nil when none exists.
func (s *Store) Get(ctx context.Context, path string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM book_history WHERE path = ?`, path)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Save upserts a record. When rec.Files or rec.Metadata is nil the existing
// stored value is kept, so callers can update status without re-reading the
// whole record first.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec == nil {
		return errors.New("record is nil")
	}
	if rec.Path == "" {
		return errors.New("record path is empty")
	}
	if !rec.Status.valid() {
		return fmt.Errorf("invalid status %q", rec.Status)
	}

	files := rec.Files
	metadata := rec.Metadata
	if files == nil || metadata == nil {
		existing, err := s.Get(ctx, rec.Path)
		if err != nil {
			return err
		}
		if existing != nil {
			if files == nil {
				files = existing.Files
			}
			if metadata == nil {
				metadata = existing.Metadata
			}
		}
	}

	var fileList any
	if files != nil {
		encoded, err := json.Marshal(files)
		if err != nil {
			return fmt.Errorf("encode file list: %w", err)
		}
		fileList = string(encoded)
	}
	var metadataJSON any
	if metadata != nil {
		metadataJSON = string(metadata)
	}

	rec.LastUpdated = time.Now().UTC()
	err := s.execWithRetry(ctx, `
        INSERT INTO book_history (path, content_hash, status, attempts, last_updated, file_list, metadata_json)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            content_hash = excluded.content_hash,
            status = excluded.status,
            attempts = excluded.attempts,
            last_updated = excluded.last_updated,
            file_list = excluded.file_list,
            metadata_json = excluded.metadata_json`,
		rec.Path,
		rec.ContentHash,
		string(rec.Status),
		rec.Attempts,
		rec.LastUpdated.Format(time.RFC3339Nano),
		fileList,
		metadataJSON,
	)
	if err != nil {
		return fmt.Errorf("save record: %w", err)
	}
	rec.Files = files
	rec.Metadata = metadata
	return nil
}

// Remove deletes the record for a book directory. Removing an absent
// record is not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := s.execWithRetry(ctx, `DELETE FROM book_history WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}
	return nil
}

// AllPending returns every record still awaiting organization, oldest first.
func (s *Store) AllPending(ctx context.Context) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM book_history WHERE status = ? ORDER BY last_updated`,
		string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("list pending records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns record counts grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM book_history GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// CheckHealth returns diagnostic information about the database file.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}
	if s.path == "" {
		return health, errors.New("history database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat history database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("history database path %q is a directory", s.path)
	}
	health.DatabaseExists = true
	health.SizeBytes = info.Size()

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM book_history`).Scan(&health.RecordCount); err != nil {
		return health, fmt.Errorf("count records: %w", err)
	}
	return health, nil
}
