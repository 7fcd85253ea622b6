package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/platform"
)

// defaultAnalysisSchedule is the cron expression for the auto-provisioned
// nightly network analysis jobs.
const defaultAnalysisSchedule = "0 2 * * *"

// Scheduler owns process-wide scheduling lifecycle: it loads job
// definitions into the recurring trigger, runs the one-time trigger poll
// loop and the background tickers, and exposes reload and run-now entry
// points to the rest of the system.
type Scheduler struct {
	logger   zerolog.Logger
	jobs     JobStore
	servers  ServerStore
	executor *Executor
	tickers  *Tickers

	// mu guards the cron instance and its registrations. Reload replaces
	// the whole set: stop-all, then register-all. A timer mid-fire when
	// Reload runs completes normally; only future fires see the new set.
	mu      sync.Mutex
	cron    *cron.Cron
	entries map[string]cron.EntryID

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(logger zerolog.Logger, jobs JobStore, servers ServerStore, executor *Executor, tickers *Tickers) *Scheduler {
	return &Scheduler{
		logger:   logger.With().Str("component", "scheduler").Logger(),
		jobs:     jobs,
		servers:  servers,
		executor: executor,
		tickers:  tickers,
		entries:  map[string]cron.EntryID{},
	}
}

// Initialize provisions default jobs, loads enabled jobs into the recurring
// trigger, starts the one-time poll loop and the background tickers, and
// fires one immediate fleet scan and stats refresh so dashboards are
// populated before the first periodic tick.
func (s *Scheduler) Initialize(ctx context.Context) error {
	if err := s.ensureDefaultJobs(ctx); err != nil {
		return fmt.Errorf("provision default jobs: %w", err)
	}

	if err := s.Reload(ctx); err != nil {
		return fmt.Errorf("load jobs: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.oneTimeLoop(runCtx)
	}()

	s.tickers.Start(runCtx, &s.wg)

	return nil
}

// Stop halts the recurring trigger and the poll loops. In-flight job
// executions are not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
	}
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Reload re-reads enabled jobs and replaces all recurring trigger
// registrations. Call after every job create, update or delete.
func (s *Scheduler) Reload(ctx context.Context) error {
	jobs, err := s.jobs.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("list enabled jobs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		s.cron.Stop()
	}
	s.cron = cron.New()
	s.entries = make(map[string]cron.EntryID, len(jobs))

	for _, job := range jobs {
		if !IsCron(job.Schedule) {
			if _, err := ParseOneTime(job.Schedule); err != nil {
				s.logger.Warn().
					Str("job_id", job.ID).
					Str("schedule", job.Schedule).
					Msg("schedule is neither cron nor a timestamp, job will never fire")
			}
			// One-time schedules belong to the poll loop.
			continue
		}

		job := job
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.executor.RunJob(context.Background(), &job)
		})
		if err != nil {
			s.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to register cron entry")
			continue
		}
		s.entries[job.ID] = entryID
	}

	s.cron.Start()
	cronEntriesActive.Set(float64(len(s.entries)))
	s.logger.Info().Int("entries", len(s.entries)).Msg("recurring trigger reloaded")
	return nil
}

// RunNow executes a single job outside of its schedule. Fire and forget:
// the caller does not block and handler errors end up in the history
// record, never here.
func (s *Scheduler) RunNow(job *model.Job) {
	go s.executor.RunJob(context.Background(), job)
}

// Registrations returns the job IDs currently registered in the recurring
// trigger.
func (s *Scheduler) Registrations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// ensureDefaultJobs creates one nightly network analysis job per known
// host, skipping any host that already has one.
func (s *Scheduler) ensureDefaultJobs(ctx context.Context) error {
	servers, err := s.servers.List(ctx)
	if err != nil {
		return fmt.Errorf("list servers: %w", err)
	}

	for _, server := range servers {
		name := "Nightly network analysis - " + server.Name
		exists, err := s.jobs.ExistsByNameAndType(ctx, name, model.JobTypeNetworkAnalysis)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		now := time.Now().UTC()
		job := &model.Job{
			ID:             platform.NewID(),
			Name:           name,
			Type:           model.JobTypeNetworkAnalysis,
			Schedule:       defaultAnalysisSchedule,
			SourceServerID: server.ID,
			Enabled:        true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			return fmt.Errorf("create default job for %s: %w", server.Name, err)
		}
		s.logger.Info().Str("server", server.Name).Msg("created default network analysis job")
	}
	return nil
}
