package model

import "time"

// MigrationTask tracks a VM migration that is not necessarily driven by a
// scheduled job, e.g. one launched interactively from the API.
type MigrationTask struct {
	ID             string     `json:"id"`
	SourceServerID string     `json:"source_server_id"`
	TargetServerID string     `json:"target_server_id"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Log            *string    `json:"log,omitempty"`
}

// BackgroundTask tracks long-running internal work such as a fleet scan
// sweep. The owning process polls its own row and stops when it observes
// the cancelled status.
type BackgroundTask struct {
	ID             string     `json:"id"`
	Type           string     `json:"type"`
	Description    string     `json:"description"`
	SourceServerID *string    `json:"source_server_id,omitempty"`
	TargetServerID *string    `json:"target_server_id,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Error          *string    `json:"error,omitempty"`
}
