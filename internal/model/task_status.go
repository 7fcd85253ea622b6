package model

// Execution status constants shared by job history, migration tasks and
// background tasks.
const (
	TaskRunning   = "running"
	TaskSuccess   = "success"
	TaskFailed    = "failed"
	TaskSkipped   = "skipped"
	TaskCancelled = "cancelled"
)
