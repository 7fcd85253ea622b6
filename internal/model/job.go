package model

import (
	"encoding/json"
	"time"
)

// JobType identifies the handler a job dispatches to.
type JobType string

const (
	JobTypeConfig          JobType = "config"
	JobTypeScan            JobType = "scan"
	JobTypeMigration       JobType = "migration"
	JobTypeNetworkAnalysis JobType = "network_analysis"
)

// Job is a user-defined unit of recurring or one-time work. Schedule is
// either a 5-field cron expression or an RFC 3339 timestamp; a job whose
// schedule is neither never fires.
type Job struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           JobType         `json:"job_type"`
	Schedule       string          `json:"schedule"`
	SourceServerID string          `json:"source_server_id"`
	TargetServerID *string         `json:"target_server_id,omitempty"`
	Options        json.RawMessage `json:"options,omitempty"`
	Enabled        bool            `json:"enabled"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// HistoryRecord is one execution attempt of a Job. Inserted as running,
// updated exactly once to a terminal status.
type HistoryRecord struct {
	ID        string     `json:"id"`
	JobID     string     `json:"job_id"`
	Status    string     `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Log       *string    `json:"log,omitempty"`
}
