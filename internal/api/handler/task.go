package handler

import (
	"errors"
	"net/http"

	"github.com/edvin/vmfleet/internal/api/request"
	"github.com/edvin/vmfleet/internal/api/response"
	"github.com/edvin/vmfleet/internal/tasks"
	"github.com/go-chi/chi/v5"
)

type Task struct {
	registry *tasks.Registry
}

func NewTask(registry *tasks.Registry) *Task {
	return &Task{registry: registry}
}

// List godoc
//
//	@Summary		List tasks
//	@Description	Returns the unified task view across job history, migrations and background work, newest first.
//	@Tags			Tasks
//	@Param			limit query int false "Page size" default(50)
//	@Param			offset query int false "Offset into the result set"
//	@Param			type query string false "Filter by task type"
//	@Param			status query string false "Filter by status"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.TaskItem}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/tasks [get]
func (h *Task) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	filterType := r.URL.Query().Get("type")
	filterStatus := r.URL.Query().Get("status")

	result, err := h.registry.ListTasks(r.Context(), pg.Limit, pg.Offset, filterType, filterStatus)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WritePaginated(w, http.StatusOK, result.Items, result.Total, result.HasMore)
}

// Cancel godoc
//
//	@Summary		Cancel a running task
//	@Description	Requests cancellation of a running task. Background work stops cooperatively at its next checkpoint.
//	@Tags			Tasks
//	@Param			id path string true "Task ID, formatted as <source>-<rawId>"
//	@Success		204
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/tasks/{id}/cancel [post]
func (h *Task) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.registry.CancelTask(r.Context(), id)
	switch {
	case errors.Is(err, tasks.ErrInvalidTaskID):
		response.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tasks.ErrNotRunning):
		response.WriteError(w, http.StatusConflict, err.Error())
	case err != nil:
		response.WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
