package request

import "encoding/json"

// Job types are deliberately not validated against a closed set: the
// executor carries a default arm for types it has no handler for yet, and
// the API must let those through.

type CreateJob struct {
	Name           string          `json:"name" validate:"required,min=1,max=128"`
	JobType        string          `json:"job_type" validate:"required,min=1,max=64"`
	Schedule       string          `json:"schedule" validate:"required"`
	SourceServerID string          `json:"source_server_id" validate:"required"`
	TargetServerID *string         `json:"target_server_id,omitempty"`
	Options        json.RawMessage `json:"options,omitempty"`
	Enabled        *bool           `json:"enabled,omitempty"`
}

type UpdateJob struct {
	Name           string          `json:"name" validate:"required,min=1,max=128"`
	JobType        string          `json:"job_type" validate:"required,min=1,max=64"`
	Schedule       string          `json:"schedule" validate:"required"`
	SourceServerID string          `json:"source_server_id" validate:"required"`
	TargetServerID *string         `json:"target_server_id,omitempty"`
	Options        json.RawMessage `json:"options,omitempty"`
	Enabled        bool            `json:"enabled"`
}
