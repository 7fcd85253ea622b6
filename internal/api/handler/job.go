package handler

import (
	"net/http"
	"time"

	"github.com/edvin/vmfleet/internal/api/request"
	"github.com/edvin/vmfleet/internal/api/response"
	"github.com/edvin/vmfleet/internal/core"
	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/platform"
	"github.com/edvin/vmfleet/internal/scheduler"
	"github.com/go-chi/chi/v5"
)

type Job struct {
	svc      *core.JobService
	services *core.Services
	sched    *scheduler.Scheduler
}

func NewJob(services *core.Services, sched *scheduler.Scheduler) *Job {
	return &Job{svc: services.Job, services: services, sched: sched}
}

// validSchedule reports whether a schedule is a parseable cron expression
// or an RFC 3339 timestamp. Anything else would register as inert.
func validSchedule(schedule string) bool {
	if scheduler.IsCron(schedule) {
		return true
	}
	_, err := scheduler.ParseOneTime(schedule)
	return err == nil
}

// List godoc
//
//	@Summary		List jobs
//	@Description	Returns all jobs, enabled and disabled.
//	@Tags			Jobs
//	@Success		200 {array} model.Job
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/jobs [get]
func (h *Job) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.List(r.Context())
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	response.WriteJSON(w, http.StatusOK, jobs)
}

// Create godoc
//
//	@Summary		Create a job
//	@Description	Creates a job and re-registers scheduler triggers. Schedule must be a 5-field cron expression or an RFC 3339 timestamp.
//	@Tags			Jobs
//	@Param			body body request.CreateJob true "Job details"
//	@Success		201 {object} model.Job
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/jobs [post]
func (h *Job) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !validSchedule(req.Schedule) {
		response.WriteError(w, http.StatusBadRequest, "invalid schedule: must be a cron expression or an RFC 3339 timestamp")
		return
	}

	if _, err := h.services.Server.GetByID(r.Context(), req.SourceServerID); err != nil {
		response.WriteError(w, http.StatusBadRequest, "source server not found")
		return
	}
	if req.TargetServerID != nil {
		if _, err := h.services.Server.GetByID(r.Context(), *req.TargetServerID); err != nil {
			response.WriteError(w, http.StatusBadRequest, "target server not found")
			return
		}
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	now := time.Now().UTC()
	job := &model.Job{
		ID:             platform.NewID(),
		Name:           req.Name,
		Type:           model.JobType(req.JobType),
		Schedule:       req.Schedule,
		SourceServerID: req.SourceServerID,
		TargetServerID: req.TargetServerID,
		Options:        req.Options,
		Enabled:        enabled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.svc.Create(r.Context(), job); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.sched.Reload(r.Context()); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusCreated, job)
}

// Get godoc
//
//	@Summary		Get a job
//	@Description	Returns a single job by ID.
//	@Tags			Jobs
//	@Param			id path string true "Job ID"
//	@Success		200 {object} model.Job
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/jobs/{id} [get]
func (h *Job) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, job)
}

// Update godoc
//
//	@Summary		Update a job
//	@Description	Replaces a job's definition and re-registers scheduler triggers.
//	@Tags			Jobs
//	@Param			id path string true "Job ID"
//	@Param			body body request.UpdateJob true "Job updates"
//	@Success		200 {object} model.Job
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/jobs/{id} [put]
func (h *Job) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateJob
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !validSchedule(req.Schedule) {
		response.WriteError(w, http.StatusBadRequest, "invalid schedule: must be a cron expression or an RFC 3339 timestamp")
		return
	}

	job, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if _, err := h.services.Server.GetByID(r.Context(), req.SourceServerID); err != nil {
		response.WriteError(w, http.StatusBadRequest, "source server not found")
		return
	}
	if req.TargetServerID != nil {
		if _, err := h.services.Server.GetByID(r.Context(), *req.TargetServerID); err != nil {
			response.WriteError(w, http.StatusBadRequest, "target server not found")
			return
		}
	}

	job.Name = req.Name
	job.Type = model.JobType(req.JobType)
	job.Schedule = req.Schedule
	job.SourceServerID = req.SourceServerID
	job.TargetServerID = req.TargetServerID
	job.Options = req.Options
	job.Enabled = req.Enabled

	if err := h.svc.Update(r.Context(), job); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.sched.Reload(r.Context()); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, job)
}

// Delete godoc
//
//	@Summary		Delete a job
//	@Description	Deletes a job and its execution history, then re-registers scheduler triggers.
//	@Tags			Jobs
//	@Param			id path string true "Job ID"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/jobs/{id} [delete]
func (h *Job) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.GetByID(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.sched.Reload(r.Context()); err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Run godoc
//
//	@Summary		Run a job now
//	@Description	Fires a job immediately, outside its schedule. Async — returns 202; the outcome lands in the job's history.
//	@Tags			Jobs
//	@Param			id path string true "Job ID"
//	@Success		202
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/jobs/{id}/run [post]
func (h *Job) Run(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	h.sched.RunNow(job)
	w.WriteHeader(http.StatusAccepted)
}
