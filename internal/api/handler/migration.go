package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/edvin/vmfleet/internal/api/request"
	"github.com/edvin/vmfleet/internal/api/response"
	"github.com/edvin/vmfleet/internal/core"
	"github.com/edvin/vmfleet/internal/model"
	"github.com/rs/zerolog"
)

// VMMigrator drives a VM move between two hosts and streams progress
// lines through onLog.
type VMMigrator interface {
	Migrate(ctx context.Context, sourceServerID, targetServerID string, vmid int, migrationType string, onLog func(string)) (bool, string, error)
}

// migrationTimeout bounds an interactively started migration.
const migrationTimeout = 2 * time.Hour

type Migration struct {
	logger   zerolog.Logger
	svc      *core.MigrationTaskService
	services *core.Services
	migrator VMMigrator
}

func NewMigration(logger zerolog.Logger, services *core.Services, migrator VMMigrator) *Migration {
	return &Migration{
		logger:   logger.With().Str("component", "migration-handler").Logger(),
		svc:      services.MigrationTask,
		services: services,
		migrator: migrator,
	}
}

// List godoc
//
//	@Summary		List migrations
//	@Description	Returns all migration tasks with source and target host names, newest first.
//	@Tags			Migrations
//	@Success		200 {array} core.MigrationEntry
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/migrations [get]
func (h *Migration) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.ListEntries(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, entries)
}

// Start godoc
//
//	@Summary		Start a VM migration
//	@Description	Starts a VM migration between two hosts. Async — returns 202 with the tracking task; progress and outcome land on the task record.
//	@Tags			Migrations
//	@Param			body body request.StartMigration true "Migration details"
//	@Success		202 {object} model.MigrationTask
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/migrations [post]
func (h *Migration) Start(w http.ResponseWriter, r *http.Request) {
	var req request.StartMigration
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	source, err := h.services.Server.GetByID(r.Context(), req.SourceServerID)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "source server not found")
		return
	}
	if source.Type != model.ServerTypePVE {
		response.WriteError(w, http.StatusBadRequest, "source server is not a hypervisor")
		return
	}
	if _, err := h.services.Server.GetByID(r.Context(), req.TargetServerID); err != nil {
		response.WriteError(w, http.StatusBadRequest, "target server not found")
		return
	}

	task, err := h.svc.Open(r.Context(), req.SourceServerID, req.TargetServerID)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	go h.runMigration(task, req)

	response.WriteJSON(w, http.StatusAccepted, task)
}

// runMigration drives the migration to completion in the background. The
// tracking row is concluded conditionally, so a concurrent cancel wins.
func (h *Migration) runMigration(task *model.MigrationTask, req request.StartMigration) {
	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()

	var log strings.Builder
	onLog := func(line string) {
		log.WriteString(fmt.Sprintf("[%s] %s\n", time.Now().UTC().Format(time.RFC3339), line))
	}

	ok, message, err := h.migrator.Migrate(ctx, req.SourceServerID, req.TargetServerID, req.VMID, req.Type, onLog)

	status := model.TaskSuccess
	switch {
	case err != nil:
		status = model.TaskFailed
		onLog(err.Error())
	case !ok:
		status = model.TaskFailed
		onLog(message)
	default:
		onLog(message)
	}

	// Conclude with a fresh context: ctx may already be expired.
	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()

	closed, err := h.svc.Close(closeCtx, task.ID, status, log.String())
	if err != nil {
		h.logger.Error().Err(err).Str("task_id", task.ID).Msg("failed to conclude migration task")
		return
	}
	if !closed {
		h.logger.Info().Str("task_id", task.ID).Msg("migration task already concluded, keeping its status")
		return
	}

	h.logger.Info().
		Str("task_id", task.ID).
		Int("vmid", req.VMID).
		Str("status", status).
		Msg("migration finished")
}
