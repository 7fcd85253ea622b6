package core

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/platform"
)

// BackgroundTaskService manages internal long-running work records (fleet
// scan sweeps and similar). Cancellation is cooperative: the owning process
// polls its own row via IsCancelled and stops when it observes the flag.
type BackgroundTaskService struct {
	db DB
}

func NewBackgroundTaskService(db DB) *BackgroundTaskService {
	return &BackgroundTaskService{db: db}
}

// Open inserts a running background task and returns it.
func (s *BackgroundTaskService) Open(ctx context.Context, taskType, description string, sourceServerID *string) (*model.BackgroundTask, error) {
	task := &model.BackgroundTask{
		ID:             platform.NewID(),
		Type:           taskType,
		Description:    description,
		SourceServerID: sourceServerID,
		Status:         model.TaskRunning,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO background_tasks (id, type, description, source_server_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		task.ID, task.Type, task.Description, task.SourceServerID, task.Status, task.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert background task: %w", err)
	}
	return task, nil
}

// Close moves a running background task to a terminal status. errMsg is
// stored when non-empty. Returns false when the task had already concluded.
func (s *BackgroundTaskService) Close(ctx context.Context, id, status, errMsg string) (bool, error) {
	var errVal *string
	if errMsg != "" {
		errVal = &errMsg
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE background_tasks SET status = $2, completed_at = now(), error = $3
		 WHERE id = $1 AND status = 'running'`,
		id, status, errVal,
	)
	if err != nil {
		return false, fmt.Errorf("close background task %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel marks a running background task cancelled. The owner is expected to
// observe the flag on its next IsCancelled poll and stop.
func (s *BackgroundTaskService) Cancel(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE background_tasks SET status = 'cancelled', completed_at = now()
		 WHERE id = $1 AND status = 'running'`, id)
	if err != nil {
		return false, fmt.Errorf("cancel background task %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// IsCancelled re-reads the task's status row. Long-running owners call this
// between units of work and abort when it returns true.
func (s *BackgroundTaskService) IsCancelled(ctx context.Context, id string) (bool, error) {
	var status string
	err := s.db.QueryRow(ctx,
		`SELECT status FROM background_tasks WHERE id = $1`, id).Scan(&status)
	if err != nil {
		return false, fmt.Errorf("read background task %s status: %w", id, err)
	}
	return status == model.TaskCancelled, nil
}

// List returns all background tasks, newest first.
func (s *BackgroundTaskService) List(ctx context.Context) ([]model.BackgroundTask, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, type, description, source_server_id, target_server_id, status, created_at, completed_at, error
		 FROM background_tasks ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list background tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.BackgroundTask
	for rows.Next() {
		var t model.BackgroundTask
		if err := rows.Scan(&t.ID, &t.Type, &t.Description, &t.SourceServerID,
			&t.TargetServerID, &t.Status, &t.CreatedAt, &t.CompletedAt, &t.Error); err != nil {
			return nil, fmt.Errorf("scan background task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate background tasks: %w", err)
	}
	return tasks, nil
}

func (s *BackgroundTaskService) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM background_tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count background tasks: %w", err)
	}
	return n, nil
}
