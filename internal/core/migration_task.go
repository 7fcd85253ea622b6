package core

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/platform"
)

// MigrationTaskService manages migration execution records that are not tied
// to a scheduled job.
type MigrationTaskService struct {
	db DB
}

func NewMigrationTaskService(db DB) *MigrationTaskService {
	return &MigrationTaskService{db: db}
}

// Open inserts a running migration task and returns it.
func (s *MigrationTaskService) Open(ctx context.Context, sourceServerID, targetServerID string) (*model.MigrationTask, error) {
	task := &model.MigrationTask{
		ID:             platform.NewID(),
		SourceServerID: sourceServerID,
		TargetServerID: targetServerID,
		Status:         model.TaskRunning,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO migration_tasks (id, source_server_id, target_server_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		task.ID, task.SourceServerID, task.TargetServerID, task.Status, task.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert migration task: %w", err)
	}
	return task, nil
}

// Close moves a running migration task to a terminal status. Returns false
// when the task had already been concluded, e.g. by a cancel request.
func (s *MigrationTaskService) Close(ctx context.Context, id, status, log string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE migration_tasks SET status = $2, completed_at = now(), log = $3
		 WHERE id = $1 AND status = 'running'`,
		id, status, log,
	)
	if err != nil {
		return false, fmt.Errorf("close migration task %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel marks a running migration task cancelled. The in-flight migration
// is not signalled; its eventual Close becomes a no-op.
func (s *MigrationTaskService) Cancel(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE migration_tasks SET status = 'cancelled', completed_at = now()
		 WHERE id = $1 AND status = 'running'`, id)
	if err != nil {
		return false, fmt.Errorf("cancel migration task %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// MigrationEntry is a migration task joined with its endpoint server names.
type MigrationEntry struct {
	model.MigrationTask
	SourceName string
	TargetName string
}

// ListEntries returns all migration tasks, newest first, with both server
// names joined in.
func (s *MigrationTaskService) ListEntries(ctx context.Context) ([]MigrationEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT m.id, m.source_server_id, m.target_server_id, m.status, m.created_at, m.completed_at, m.log,
		        src.name, dst.name
		 FROM migration_tasks m
		 JOIN servers src ON src.id = m.source_server_id
		 JOIN servers dst ON dst.id = m.target_server_id
		 ORDER BY m.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list migration tasks: %w", err)
	}
	defer rows.Close()

	var entries []MigrationEntry
	for rows.Next() {
		var e MigrationEntry
		if err := rows.Scan(&e.ID, &e.SourceServerID, &e.TargetServerID, &e.Status,
			&e.CreatedAt, &e.CompletedAt, &e.Log, &e.SourceName, &e.TargetName); err != nil {
			return nil, fmt.Errorf("scan migration task: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration tasks: %w", err)
	}
	return entries, nil
}

func (s *MigrationTaskService) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM migration_tasks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count migration tasks: %w", err)
	}
	return n, nil
}
