package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/vmfleet/internal/core"
	"github.com/edvin/vmfleet/internal/model"
)

// Source is one of the three execution-record shapes, adapted to a common
// read/cancel surface. The registry composes sources and never touches the
// underlying tables directly.
type Source interface {
	// Name is the TaskItem id prefix: job, migration or background.
	Name() string
	List(ctx context.Context) ([]model.TaskItem, error)
	Count(ctx context.Context) (int, error)
	// Cancel transitions the record to cancelled only if it is currently
	// running, reporting whether a row actually changed.
	Cancel(ctx context.Context, rawID string) (bool, error)
}

// ---------- Job history ----------

type JobHistorySource struct {
	svc *core.HistoryService
}

func NewJobHistorySource(svc *core.HistoryService) *JobHistorySource {
	return &JobHistorySource{svc: svc}
}

func (s *JobHistorySource) Name() string { return model.TaskSourceJob }

func (s *JobHistorySource) List(ctx context.Context) ([]model.TaskItem, error) {
	entries, err := s.svc.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]model.TaskItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, model.TaskItem{
			ID:          model.TaskSourceJob + "-" + e.ID,
			Source:      model.TaskSourceJob,
			Type:        string(e.JobType),
			Description: e.JobName,
			Node:        e.ServerName,
			Status:      e.Status,
			StartedAt:   e.StartTime,
			CompletedAt: e.EndTime,
			Duration:    FormatDuration(e.StartTime, e.EndTime, now),
			Log:         e.Log,
		})
	}
	return items, nil
}

func (s *JobHistorySource) Count(ctx context.Context) (int, error) {
	return s.svc.Count(ctx)
}

func (s *JobHistorySource) Cancel(ctx context.Context, rawID string) (bool, error) {
	return s.svc.Cancel(ctx, rawID)
}

// ---------- Migration tasks ----------

type MigrationSource struct {
	svc *core.MigrationTaskService
}

func NewMigrationSource(svc *core.MigrationTaskService) *MigrationSource {
	return &MigrationSource{svc: svc}
}

func (s *MigrationSource) Name() string { return model.TaskSourceMigration }

func (s *MigrationSource) List(ctx context.Context) ([]model.TaskItem, error) {
	entries, err := s.svc.ListEntries(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]model.TaskItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, model.TaskItem{
			ID:          model.TaskSourceMigration + "-" + e.ID,
			Source:      model.TaskSourceMigration,
			Type:        "migration",
			Description: fmt.Sprintf("Migrate %s -> %s", e.SourceName, e.TargetName),
			Node:        e.SourceName,
			Status:      e.Status,
			StartedAt:   e.CreatedAt,
			CompletedAt: e.CompletedAt,
			Duration:    FormatDuration(e.CreatedAt, e.CompletedAt, now),
			Log:         e.Log,
		})
	}
	return items, nil
}

func (s *MigrationSource) Count(ctx context.Context) (int, error) {
	return s.svc.Count(ctx)
}

func (s *MigrationSource) Cancel(ctx context.Context, rawID string) (bool, error) {
	return s.svc.Cancel(ctx, rawID)
}

// ---------- Background tasks ----------

type BackgroundSource struct {
	svc *core.BackgroundTaskService
}

func NewBackgroundSource(svc *core.BackgroundTaskService) *BackgroundSource {
	return &BackgroundSource{svc: svc}
}

func (s *BackgroundSource) Name() string { return model.TaskSourceBackground }

func (s *BackgroundSource) List(ctx context.Context) ([]model.TaskItem, error) {
	records, err := s.svc.List(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	items := make([]model.TaskItem, 0, len(records))
	for _, r := range records {
		var node string
		if r.SourceServerID != nil {
			node = *r.SourceServerID
		}
		items = append(items, model.TaskItem{
			ID:          model.TaskSourceBackground + "-" + r.ID,
			Source:      model.TaskSourceBackground,
			Type:        r.Type,
			Description: r.Description,
			Node:        node,
			Status:      r.Status,
			StartedAt:   r.CreatedAt,
			CompletedAt: r.CompletedAt,
			Duration:    FormatDuration(r.CreatedAt, r.CompletedAt, now),
			Log:         r.Error,
		})
	}
	return items, nil
}

func (s *BackgroundSource) Count(ctx context.Context) (int, error) {
	return s.svc.Count(ctx)
}

func (s *BackgroundSource) Cancel(ctx context.Context, rawID string) (bool, error) {
	return s.svc.Cancel(ctx, rawID)
}
