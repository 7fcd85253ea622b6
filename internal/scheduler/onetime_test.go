package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/vmfleet/internal/model"
)

func TestRunOneTimePass(t *testing.T) {
	past := time.Now().Add(-5 * time.Minute).Format(time.RFC3339)
	future := time.Now().Add(24 * time.Hour).Format(time.RFC3339)

	jobs := &fakeJobStore{jobs: []model.Job{
		{
			ID: "due", Type: model.JobTypeMigration, Schedule: past, Enabled: true,
			SourceServerID: "srv-1", TargetServerID: strPtr("srv-2"),
			Options: []byte(`{"vmid":105,"type":"online"}`),
		},
		{ID: "not-yet", Type: model.JobTypeMigration, Schedule: future, Enabled: true},
		{ID: "recurring", Type: model.JobTypeMigration, Schedule: "0 2 * * *", Enabled: true},
		{ID: "wrong-type", Type: model.JobTypeScan, Schedule: past, Enabled: true},
		{ID: "inert", Type: model.JobTypeMigration, Schedule: "garbage", Enabled: true},
	}}

	history := newFakeHistoryStore()
	handler := &fakeMigrationHandler{ok: true, message: "done"}
	executor := NewExecutor(zerolog.Nop(), history, &fakeServerStore{}, Handlers{Migrate: handler})
	tickers := NewTickers(zerolog.Nop(), &fakeServerStore{}, &fakeStatsStore{}, &fakeRemote{}, &fakeScanHandler{})
	s := New(zerolog.Nop(), jobs, &fakeServerStore{}, executor, tickers)

	s.runOneTimePass(context.Background())

	// Only the elapsed migration job ran, and it was disabled afterwards.
	require.Equal(t, []string{"due"}, history.opened)
	assert.Equal(t, []string{"due"}, jobs.disabled)
	require.Len(t, handler.calls, 1)
	assert.Equal(t, migrationCall{"srv-1", "srv-2", 105, "online"}, handler.calls[0])
}

func TestRunOneTimePassDisablesFailedJob(t *testing.T) {
	past := time.Now().Add(-time.Minute).Format(time.RFC3339)
	jobs := &fakeJobStore{jobs: []model.Job{
		{
			ID: "due", Type: model.JobTypeMigration, Schedule: past, Enabled: true,
			SourceServerID: "srv-1", TargetServerID: strPtr("srv-2"),
			Options: []byte(`{"vmid":105,"type":"online"}`),
		},
	}}

	history := newFakeHistoryStore()
	handler := &fakeMigrationHandler{ok: false, message: "target refused"}
	executor := NewExecutor(zerolog.Nop(), history, &fakeServerStore{}, Handlers{Migrate: handler})
	tickers := NewTickers(zerolog.Nop(), &fakeServerStore{}, &fakeStatsStore{}, &fakeRemote{}, &fakeScanHandler{})
	s := New(zerolog.Nop(), jobs, &fakeServerStore{}, executor, tickers)

	s.runOneTimePass(context.Background())

	// One shot is one shot: a failed run still disables the job.
	assert.Equal(t, model.TaskFailed, history.lastStatus())
	assert.Equal(t, []string{"due"}, jobs.disabled)
}

func TestRunOneTimePassSecondPassFindsNothing(t *testing.T) {
	past := time.Now().Add(-time.Minute).Format(time.RFC3339)
	jobs := &fakeJobStore{jobs: []model.Job{
		{
			ID: "due", Type: model.JobTypeMigration, Schedule: past, Enabled: true,
			SourceServerID: "srv-1", TargetServerID: strPtr("srv-2"),
			Options: []byte(`{"vmid":105,"type":"online"}`),
		},
	}}

	history := newFakeHistoryStore()
	executor := NewExecutor(zerolog.Nop(), history, &fakeServerStore{}, Handlers{Migrate: &fakeMigrationHandler{ok: true}})
	tickers := NewTickers(zerolog.Nop(), &fakeServerStore{}, &fakeStatsStore{}, &fakeRemote{}, &fakeScanHandler{})
	s := New(zerolog.Nop(), jobs, &fakeServerStore{}, executor, tickers)

	s.runOneTimePass(context.Background())
	s.runOneTimePass(context.Background())

	assert.Equal(t, []string{"due"}, history.opened)
}
