package request

type StartMigration struct {
	SourceServerID string `json:"source_server_id" validate:"required"`
	TargetServerID string `json:"target_server_id" validate:"required"`
	VMID           int    `json:"vmid" validate:"required,min=1"`
	Type           string `json:"type" validate:"required,oneof=online offline"`
}
