package ops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/pve"
)

func fastPoll(t *testing.T) {
	t.Helper()
	old := migratePollInterval
	migratePollInterval = 5 * time.Millisecond
	t.Cleanup(func() { migratePollInterval = old })
}

func migrationServers() *fakeServers {
	return &fakeServers{servers: []model.Server{
		{ID: "srv-1", Name: "pve01", Type: model.ServerTypePVE},
		{ID: "srv-2", Name: "pve02", Type: model.ServerTypePVE},
	}}
}

func TestMigrateSucceeds(t *testing.T) {
	fastPoll(t)
	cp := &fakeControlPlane{
		upid: "UPID:pve01:000A:0B:0C:qmigrate:105:root@pam:",
		taskStates: []pve.TaskStatus{
			{Status: "running"},
			{Status: "running"},
			{Status: "stopped", ExitStatus: "OK"},
		},
	}

	var lines []string
	m := NewMigrator(zerolog.Nop(), migrationServers(), cp)
	ok, message, err := m.Migrate(context.Background(), "srv-1", "srv-2", 105, "online", func(l string) { lines = append(lines, l) })

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "VM 105 migrated to pve02", message)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "starting online migration of VM 105 from pve01 to pve02")
	assert.Contains(t, lines[1], cp.upid)
}

func TestMigrateTaskFails(t *testing.T) {
	fastPoll(t)
	cp := &fakeControlPlane{
		upid:       "UPID:x",
		taskStates: []pve.TaskStatus{{Status: "stopped", ExitStatus: "migration aborted"}},
	}

	m := NewMigrator(zerolog.Nop(), migrationServers(), cp)
	ok, message, err := m.Migrate(context.Background(), "srv-1", "srv-2", 105, "online", func(string) {})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, message, "migration aborted")
}

func TestMigrateStartFailure(t *testing.T) {
	fastPoll(t)
	cp := &fakeControlPlane{startErr: errors.New("no such vm")}

	m := NewMigrator(zerolog.Nop(), migrationServers(), cp)
	_, _, err := m.Migrate(context.Background(), "srv-1", "srv-2", 105, "online", func(string) {})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "start migration")
}

func TestMigrateUnknownServers(t *testing.T) {
	m := NewMigrator(zerolog.Nop(), migrationServers(), &fakeControlPlane{})

	_, _, err := m.Migrate(context.Background(), "missing", "srv-2", 105, "online", func(string) {})
	assert.Error(t, err)

	_, _, err = m.Migrate(context.Background(), "srv-1", "missing", 105, "online", func(string) {})
	assert.Error(t, err)
}

func TestMigrateContextCancelled(t *testing.T) {
	fastPoll(t)
	cp := &fakeControlPlane{
		upid:       "UPID:x",
		taskStates: []pve.TaskStatus{{Status: "running"}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	m := NewMigrator(zerolog.Nop(), migrationServers(), cp)
	_, _, err := m.Migrate(ctx, "srv-1", "srv-2", 105, "online", func(string) {})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMigrateSurvivesPollErrors(t *testing.T) {
	fastPoll(t)
	cp := &fakeControlPlane{
		upid: "UPID:x",
		taskStates: []pve.TaskStatus{
			{Status: "stopped", ExitStatus: "OK"},
		},
	}
	cp.taskErr = errors.New("flaky api")

	// Clear the error after a few failed polls; the loop keeps polling.
	go func() {
		time.Sleep(20 * time.Millisecond)
		cp.mu.Lock()
		cp.taskErr = nil
		cp.mu.Unlock()
	}()

	m := NewMigrator(zerolog.Nop(), migrationServers(), cp)
	ok, _, err := m.Migrate(context.Background(), "srv-1", "srv-2", 105, "online", func(string) {})

	require.NoError(t, err)
	assert.True(t, ok)
}
