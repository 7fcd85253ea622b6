package model

import "time"

// Task sources for the unified task view.
const (
	TaskSourceJob        = "job"
	TaskSourceMigration  = "migration"
	TaskSourceBackground = "background"
)

// TaskItem is the derived, read-only unification of HistoryRecord,
// MigrationTask and BackgroundTask. ID is "<source>-<rawId>". Never
// persisted; recomputed on every read.
type TaskItem struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	Node        string     `json:"node"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Duration    string     `json:"duration"`
	Log         *string    `json:"log,omitempty"`
}
