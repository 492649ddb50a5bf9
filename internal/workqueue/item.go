package workqueue

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"time"

	"autolib/internal/identify"
)

// Status tracks a queue item through review and organization.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusCompleted  Status = "completed"
)

func (s Status) valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// Item is one book unit in the queue.
type Item struct {
	ID        string           `json:"id"`
	Dirpath   string           `json:"dirpath"`
	Files     []string         `json:"files"`
	Metadata  *identify.Result `json:"metadata,omitempty"`
	Status    Status           `json:"status"`
	AddedAt   time.Time        `json:"added_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (i *Item) clone() *Item {
	out := *i
	out.Files = append([]string(nil), i.Files...)
	out.Metadata = i.Metadata.Clone()
	return &out
}

// StableID derives the queue identifier for a directory. The same directory
// always maps to the same id across restarts.
func StableID(dirpath string) string {
	digest := sha256.Sum256([]byte(filepath.Clean(dirpath)))
	return hex.EncodeToString(digest[:])[:16]
}
