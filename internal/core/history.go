package core

import (
	"context"
	"fmt"
	"time"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/platform"
)

// HistoryService manages job execution records.
type HistoryService struct {
	db DB
}

func NewHistoryService(db DB) *HistoryService {
	return &HistoryService{db: db}
}

// Open inserts a running history record for the given job and returns it.
func (s *HistoryService) Open(ctx context.Context, jobID string) (*model.HistoryRecord, error) {
	rec := &model.HistoryRecord{
		ID:        platform.NewID(),
		JobID:     jobID,
		Status:    model.TaskRunning,
		StartTime: time.Now().UTC(),
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO history (id, job_id, status, start_time) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.JobID, rec.Status, rec.StartTime,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history record: %w", err)
	}
	return rec, nil
}

// Close moves a running record to a terminal status. It returns false when
// the record was no longer running, which means someone else (a cancel
// request) concluded it first; the caller must not overwrite that outcome.
func (s *HistoryService) Close(ctx context.Context, id, status, log string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE history SET status = $2, end_time = now(), log = $3
		 WHERE id = $1 AND status = 'running'`,
		id, status, log,
	)
	if err != nil {
		return false, fmt.Errorf("close history record %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Cancel marks a running record cancelled. Returns false if the record was
// not running (or does not exist), leaving terminal rows untouched.
func (s *HistoryService) Cancel(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE history SET status = 'cancelled', end_time = now()
		 WHERE id = $1 AND status = 'running'`, id)
	if err != nil {
		return false, fmt.Errorf("cancel history record %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// HistoryEntry is a history record joined with its owning job and source
// server names for display.
type HistoryEntry struct {
	model.HistoryRecord
	JobName    string
	JobType    model.JobType
	ServerName string
}

// ListEntries returns all history records, newest first, with job and server
// context joined in.
func (s *HistoryService) ListEntries(ctx context.Context) ([]HistoryEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT h.id, h.job_id, h.status, h.start_time, h.end_time, h.log, j.name, j.job_type, srv.name
		 FROM history h
		 JOIN jobs j ON j.id = h.job_id
		 JOIN servers srv ON srv.id = j.source_server_id
		 ORDER BY h.start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("list history entries: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.JobID, &e.Status, &e.StartTime, &e.EndTime,
			&e.Log, &e.JobName, &e.JobType, &e.ServerName); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return entries, nil
}

func (s *HistoryService) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history records: %w", err)
	}
	return n, nil
}
