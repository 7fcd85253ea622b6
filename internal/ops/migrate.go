package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/pve"
)

var migratePollInterval = 5 * time.Second

// MigrationControlPlane is the subset of the virtualization API migrations
// need.
type MigrationControlPlane interface {
	StartMigration(ctx context.Context, server *model.Server, vmid int, targetNode, migrationType string) (string, error)
	GetTaskStatus(ctx context.Context, server *model.Server, upid string) (*pve.TaskStatus, error)
}

// Migrator drives VM migrations through the control plane, reporting
// progress via the caller's log callback. The control plane's own exit
// status, not the Migrator, decides success.
type Migrator struct {
	logger  zerolog.Logger
	servers ServerLookup
	cp      MigrationControlPlane
}

func NewMigrator(logger zerolog.Logger, servers ServerLookup, cp MigrationControlPlane) *Migrator {
	return &Migrator{
		logger:  logger.With().Str("component", "migrator").Logger(),
		servers: servers,
		cp:      cp,
	}
}

// Migrate starts the migration and polls the resulting control-plane task
// until it concludes. ok reflects the task's exit status.
func (m *Migrator) Migrate(ctx context.Context, sourceServerID, targetServerID string, vmid int, migrationType string, onLog func(string)) (bool, string, error) {
	source, err := m.servers.GetByID(ctx, sourceServerID)
	if err != nil {
		return false, "", fmt.Errorf("look up source server %s: %w", sourceServerID, err)
	}
	target, err := m.servers.GetByID(ctx, targetServerID)
	if err != nil {
		return false, "", fmt.Errorf("look up target server %s: %w", targetServerID, err)
	}

	onLog(fmt.Sprintf("starting %s migration of VM %d from %s to %s", migrationType, vmid, source.Name, target.Name))

	upid, err := m.cp.StartMigration(ctx, source, vmid, target.Name, migrationType)
	if err != nil {
		return false, "", fmt.Errorf("start migration: %w", err)
	}
	onLog("migration task " + upid + " started")

	ticker := time.NewTicker(migratePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, "", fmt.Errorf("poll migration task: %w", ctx.Err())
		case <-ticker.C:
		}

		status, err := m.cp.GetTaskStatus(ctx, source, upid)
		if err != nil {
			onLog(fmt.Sprintf("status poll failed: %v", err))
			continue
		}
		if status.Status != "stopped" {
			onLog("migration in progress")
			continue
		}

		if status.ExitStatus == "OK" {
			return true, fmt.Sprintf("VM %d migrated to %s", vmid, target.Name), nil
		}
		return false, fmt.Sprintf("migration task ended with %q", status.ExitStatus), nil
	}
}
