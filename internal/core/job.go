package core

import (
	"context"
	"fmt"

	"github.com/edvin/vmfleet/internal/model"
)

// JobService manages schedule-bound job definitions.
type JobService struct {
	db DB
}

func NewJobService(db DB) *JobService {
	return &JobService{db: db}
}

const jobColumns = `id, name, job_type, schedule, source_server_id, target_server_id, options, enabled, created_at, updated_at`

func (s *JobService) Create(ctx context.Context, job *model.Job) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO jobs (id, name, job_type, schedule, source_server_id, target_server_id, options, enabled, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		job.ID, job.Name, job.Type, job.Schedule, job.SourceServerID,
		job.TargetServerID, job.Options, job.Enabled, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func (s *JobService) GetByID(ctx context.Context, id string) (*model.Job, error) {
	row := s.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &job, nil
}

func (s *JobService) List(ctx context.Context) ([]model.Job, error) {
	return s.list(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY name`)
}

// ListEnabled returns all jobs eligible for trigger registration.
func (s *JobService) ListEnabled(ctx context.Context) ([]model.Job, error) {
	return s.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE enabled ORDER BY name`)
}

func (s *JobService) list(ctx context.Context, query string) ([]model.Job, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return jobs, nil
}

func (s *JobService) Update(ctx context.Context, job *model.Job) error {
	_, err := s.db.Exec(ctx,
		`UPDATE jobs SET name = $1, job_type = $2, schedule = $3, source_server_id = $4,
		 target_server_id = $5, options = $6, enabled = $7, updated_at = now() WHERE id = $8`,
		job.Name, job.Type, job.Schedule, job.SourceServerID,
		job.TargetServerID, job.Options, job.Enabled, job.ID,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	return nil
}

// SetEnabled flips the enabled flag. One-time jobs are disabled, never
// deleted, after their single execution so their history linkage survives.
func (s *JobService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := s.db.Exec(ctx,
		`UPDATE jobs SET enabled = $1, updated_at = now() WHERE id = $2`, enabled, id)
	if err != nil {
		return fmt.Errorf("set job %s enabled=%t: %w", id, enabled, err)
	}
	return nil
}

// Delete removes a job and its history rows.
func (s *JobService) Delete(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM history WHERE job_id = $1`, id); err != nil {
		return fmt.Errorf("delete history for job %s: %w", id, err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	return nil
}

// ExistsByNameAndType reports whether a job with the given name and type is
// already present. Used by default-job provisioning to stay idempotent.
func (s *JobService) ExistsByNameAndType(ctx context.Context, name string, jobType model.JobType) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM jobs WHERE name = $1 AND job_type = $2)`,
		name, jobType,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check job %q exists: %w", name, err)
	}
	return exists, nil
}

func scanJob(row interface{ Scan(dest ...any) error }) (model.Job, error) {
	var j model.Job
	err := row.Scan(&j.ID, &j.Name, &j.Type, &j.Schedule, &j.SourceServerID,
		&j.TargetServerID, &j.Options, &j.Enabled, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}
