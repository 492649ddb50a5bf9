package history

import (
	"encoding/json"
	"time"
)

// Status describes where a book directory sits in its lifecycle.
type Status string

const (
	// StatusPending marks a directory that was queued but not yet organized.
	StatusPending Status = "pending"
	// StatusProcessed marks a directory that was organized into the library.
	StatusProcessed Status = "processed"
	// StatusFailed marks a directory whose organization attempt failed.
	StatusFailed Status = "failed"
)

func (s Status) valid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// Record is the persisted state for one book directory.
type Record struct {
	Path        string
	ContentHash string
	Status      Status
	Attempts    int
	LastUpdated time.Time
	Files       []string
	Metadata    json.RawMessage
}

// DatabaseHealth reports diagnostic details about the history database file.
type DatabaseHealth struct {
	DBPath         string
	DatabaseExists bool
	SizeBytes      int64
	RecordCount    int
}
