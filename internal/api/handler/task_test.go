package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/vmfleet/internal/api/response"
	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/tasks"
)

type stubSource struct {
	name     string
	items    []model.TaskItem
	cancelOK bool
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) List(ctx context.Context) ([]model.TaskItem, error) { return s.items, nil }

func (s *stubSource) Count(ctx context.Context) (int, error) { return len(s.items), nil }

func (s *stubSource) Cancel(ctx context.Context, rawID string) (bool, error) {
	return s.cancelOK, nil
}

func newTaskHandler(cancelOK bool) *Task {
	start := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	src := &stubSource{
		name: model.TaskSourceJob,
		items: []model.TaskItem{
			{ID: "job-h1", Source: "job", Type: "scan", Status: model.TaskSuccess, StartedAt: start},
			{ID: "job-h2", Source: "job", Type: "config", Status: model.TaskRunning, StartedAt: start.Add(time.Minute)},
		},
		cancelOK: cancelOK,
	}
	return NewTask(tasks.NewRegistry(zerolog.Nop(), src))
}

func TestTaskList(t *testing.T) {
	h := newTaskHandler(false)
	rec := httptest.NewRecorder()

	h.List(rec, newRequest(http.MethodGet, "/tasks", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body response.PaginatedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.False(t, body.HasMore)
}

func TestTaskList_Pagination(t *testing.T) {
	h := newTaskHandler(false)
	rec := httptest.NewRecorder()

	h.List(rec, newRequest(http.MethodGet, "/tasks?limit=1&offset=0", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items   []model.TaskItem `json:"items"`
		Total   int              `json:"total"`
		HasMore bool             `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "job-h2", body.Items[0].ID)
	assert.True(t, body.HasMore)
}

func TestTaskList_StatusFilter(t *testing.T) {
	h := newTaskHandler(false)
	rec := httptest.NewRecorder()

	h.List(rec, newRequest(http.MethodGet, "/tasks?status=running", nil))

	var body struct {
		Items []model.TaskItem `json:"items"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "job-h2", body.Items[0].ID)
	assert.Equal(t, 1, body.Total)
}

func TestTaskCancel(t *testing.T) {
	h := newTaskHandler(true)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodPost, "/tasks/job-h2/cancel", nil), "id", "job-h2")

	h.Cancel(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTaskCancel_NotRunning(t *testing.T) {
	h := newTaskHandler(false)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodPost, "/tasks/job-h1/cancel", nil), "id", "job-h1")

	h.Cancel(rec, r)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTaskCancel_InvalidID(t *testing.T) {
	h := newTaskHandler(true)
	rec := httptest.NewRecorder()
	r := withChiURLParam(newRequest(http.MethodPost, "/tasks/bogus/cancel", nil), "id", "bogus")

	h.Cancel(rec, r)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
