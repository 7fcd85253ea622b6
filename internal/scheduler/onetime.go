package scheduler

import (
	"context"
	"time"

	"github.com/edvin/vmfleet/internal/model"
)

// oneTimePollInterval is the resolution of the one-time trigger. One-time
// scheduling here is specifically "migrate later", so minute granularity is
// plenty.
const oneTimePollInterval = 60 * time.Second

func (s *Scheduler) oneTimeLoop(ctx context.Context) {
	ticker := time.NewTicker(oneTimePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOneTimePass(ctx)
		}
	}
}

// runOneTimePass executes every enabled migration job whose schedule is an
// elapsed timestamp, then disables it. Only migration jobs are considered:
// a generic one-time job of unknown semantics must not fire by accident.
func (s *Scheduler) runOneTimePass(ctx context.Context) {
	jobs, err := s.jobs.ListEnabled(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("one-time trigger: failed to list jobs")
		return
	}

	now := time.Now()
	for _, job := range jobs {
		if job.Type != model.JobTypeMigration || IsCron(job.Schedule) {
			continue
		}

		due, err := ParseOneTime(job.Schedule)
		if err != nil {
			// Already reported once at load time; stay quiet per tick.
			continue
		}
		if due.After(now) {
			continue
		}

		s.logger.Info().Str("job_id", job.ID).Str("schedule", job.Schedule).Msg("one-time job due, executing")
		job := job
		s.executor.RunJob(ctx, &job)

		// Disable regardless of outcome; the job ran its one shot and the
		// history row keeps the result.
		if err := s.jobs.SetEnabled(ctx, job.ID, false); err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to disable one-time job")
		}
	}
}
