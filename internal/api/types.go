// Package api defines the JSON payloads exchanged between the daemon's
// HTTP interface and the CLI, plus a small client for the CLI side.
package api

import "autolib/internal/workqueue"

// DaemonStatus reports daemon runtime information.
type DaemonStatus struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	QueueLength   int            `json:"queue_length"`
	HistoryDBPath string         `json:"history_db_path"`
	LockFilePath  string         `json:"lock_file_path"`
	Ingest        IngestStats    `json:"ingest"`
	Monitor       MonitorStats   `json:"monitor"`
	History       map[string]int `json:"history"`
}

// IngestStats mirrors the ingest manager's counters.
type IngestStats struct {
	TrackedDirs      int   `json:"tracked_dirs"`
	FilesAccepted    int64 `json:"files_accepted"`
	FilesIgnored     int64 `json:"files_ignored"`
	ArchivesExpanded int64 `json:"archives_expanded"`
	GroupsEmitted    int64 `json:"groups_emitted"`
}

// MonitorStats mirrors the input directory monitor's counters.
type MonitorStats struct {
	FilesObserved int64 `json:"files_observed"`
	FilesEmitted  int64 `json:"files_emitted"`
}

// QueueListResponse wraps the queue snapshot.
type QueueListResponse struct {
	Items []*workqueue.Item `json:"items"`
}

// QueueItemResponse wraps a single queue item.
type QueueItemResponse struct {
	Item *workqueue.Item `json:"item"`
}

// DecisionResponse acknowledges an approve/reject request.
type DecisionResponse struct {
	ID       string `json:"id"`
	Decision string `json:"decision"`
}

// RemoveResponse acknowledges a queue item removal.
type RemoveResponse struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

// ErrorResponse carries an API error message.
type ErrorResponse struct {
	Error string `json:"error"`
}
