package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/vmfleet/internal/model"
)

// Executor is the single funnel every scheduled or manually triggered job
// execution passes through. It opens a history record, dispatches by job
// type and closes the record with a terminal status. Nothing a handler does
// — error return or panic — escapes RunJob; a misbehaving job must never
// take down the trigger loops.
type Executor struct {
	logger   zerolog.Logger
	history  HistoryStore
	servers  ServerStore
	handlers Handlers
}

func NewExecutor(logger zerolog.Logger, history HistoryStore, servers ServerStore, handlers Handlers) *Executor {
	return &Executor{
		logger:   logger.With().Str("component", "executor").Logger(),
		history:  history,
		servers:  servers,
		handlers: handlers,
	}
}

// RunJob executes one attempt of the job. Concurrent invocations of the
// same job each get their own history record; there is intentionally no
// per-job mutual exclusion here.
func (e *Executor) RunJob(ctx context.Context, job *model.Job) {
	rec, err := e.history.Open(ctx, job.ID)
	if err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("failed to open history record")
		return
	}

	status, logText := e.dispatch(ctx, job)

	closed, err := e.history.Close(ctx, rec.ID, status, logText)
	if err != nil {
		e.logger.Error().Err(err).Str("history_id", rec.ID).Msg("failed to close history record")
		return
	}
	if !closed {
		// The record left the running state while we worked — a cancel
		// request concluded it. Its outcome stands; ours is dropped.
		e.logger.Debug().Str("history_id", rec.ID).Msg("history record already concluded, keeping its status")
		return
	}

	jobRunsTotal.WithLabelValues(string(job.Type), status).Inc()
	e.logger.Info().
		Str("job_id", job.ID).
		Str("job_type", string(job.Type)).
		Str("status", status).
		Msg("job finished")
}

// dispatch runs the handler for the job's type and returns the terminal
// status plus the log text. Panics are recovered into a failed status.
func (e *Executor) dispatch(ctx context.Context, job *model.Job) (status, logText string) {
	defer func() {
		if r := recover(); r != nil {
			status = model.TaskFailed
			logText = fmt.Sprintf("handler panic: %v", r)
		}
	}()

	switch job.Type {
	case model.JobTypeConfig:
		return e.runConfigBackup(ctx, job)
	case model.JobTypeScan:
		return e.runScan(ctx, job)
	case model.JobTypeMigration:
		return e.runMigration(ctx, job)
	case model.JobTypeNetworkAnalysis:
		return e.runNetworkAnalysis(ctx, job)
	default:
		// Placeholder arm for future job types.
		time.Sleep(100 * time.Millisecond)
		return model.TaskSuccess, fmt.Sprintf("no handler for job type %q, nothing to do", job.Type)
	}
}

func (e *Executor) runConfigBackup(ctx context.Context, job *model.Job) (string, string) {
	server, err := e.servers.GetByID(ctx, job.SourceServerID)
	if err != nil {
		return model.TaskFailed, fmt.Sprintf("look up server %s: %v", job.SourceServerID, err)
	}

	backupID, err := e.handlers.Backup.BackupConfig(ctx, server)
	if err != nil {
		return model.TaskFailed, fmt.Sprintf("config backup on %s: %v", server.Name, err)
	}
	return model.TaskSuccess, fmt.Sprintf("config backup of %s stored as %s", server.Name, backupID)
}

func (e *Executor) runScan(ctx context.Context, job *model.Job) (string, string) {
	if err := e.handlers.Scan.ScanHost(ctx, job.SourceServerID); err != nil {
		return model.TaskFailed, fmt.Sprintf("host scan: %v", err)
	}
	count, err := e.handlers.Scan.ScanAllVMs(ctx, job.SourceServerID)
	if err != nil {
		return model.TaskFailed, fmt.Sprintf("vm scan: %v", err)
	}
	return model.TaskSuccess, fmt.Sprintf("host scan ok, scanned %d VMs", count)
}

// migrationOptions is the expected shape of a migration job's options
// payload.
type migrationOptions struct {
	VMID int    `json:"vmid"`
	Type string `json:"type"`
}

func (e *Executor) runMigration(ctx context.Context, job *model.Job) (string, string) {
	var opts migrationOptions
	if len(job.Options) > 0 {
		if err := json.Unmarshal(job.Options, &opts); err != nil {
			return model.TaskFailed, fmt.Sprintf("parse migration options: %v", err)
		}
	}
	if opts.VMID == 0 {
		return model.TaskFailed, "migration options missing vmid"
	}
	if opts.Type == "" {
		return model.TaskFailed, "migration options missing type"
	}
	if job.TargetServerID == nil || *job.TargetServerID == "" {
		return model.TaskFailed, "migration job has no target server"
	}

	var lines strings.Builder
	onLog := func(line string) {
		fmt.Fprintf(&lines, "[%s] %s\n", time.Now().UTC().Format(time.RFC3339), line)
	}

	ok, message, err := e.handlers.Migrate.Migrate(ctx, job.SourceServerID, *job.TargetServerID, opts.VMID, opts.Type, onLog)
	if err != nil {
		lines.WriteString(fmt.Sprintf("migration error: %v", err))
		return model.TaskFailed, lines.String()
	}

	lines.WriteString(message)
	if !ok {
		return model.TaskFailed, lines.String()
	}
	return model.TaskSuccess, lines.String()
}

func (e *Executor) runNetworkAnalysis(ctx context.Context, job *model.Job) (string, string) {
	if e.handlers.AI == nil || !e.handlers.AI.Configured() {
		// Expected condition, not an error: dashboards must not alarm on it.
		return model.TaskSkipped, "No AI Model configured, skipping network analysis"
	}

	result, err := e.handlers.Analyze.AnalyzeNetwork(ctx, job.SourceServerID)
	if err != nil {
		return model.TaskFailed, fmt.Sprintf("network analysis: %v", err)
	}
	return model.TaskSuccess, fmt.Sprintf("network analysis complete (%d chars, model %s)", len(result), e.handlers.AI.Model())
}
