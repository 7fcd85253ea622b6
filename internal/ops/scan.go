package ops

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/pve"
)

// BackgroundTracker records long-running sweeps and answers cooperative
// cancellation polls. core.BackgroundTaskService satisfies it.
type BackgroundTracker interface {
	Open(ctx context.Context, taskType, description string, sourceServerID *string) (*model.BackgroundTask, error)
	Close(ctx context.Context, id, status, errMsg string) (bool, error)
	IsCancelled(ctx context.Context, id string) (bool, error)
}

// ControlPlane is the subset of the virtualization API the scanner needs.
type ControlPlane interface {
	GetNodeStatus(ctx context.Context, server *model.Server) (*pve.NodeStatus, error)
	ListVMs(ctx context.Context, server *model.Server) ([]pve.VM, error)
}

// Scanner checks host and guest health through the control-plane API, with
// a plain SSH liveness probe for hosts outside the control plane.
type Scanner struct {
	logger  zerolog.Logger
	servers ServerLookup
	cp      ControlPlane
	remote  Remote
	tracker BackgroundTracker
}

func NewScanner(logger zerolog.Logger, servers ServerLookup, cp ControlPlane, remote Remote, tracker BackgroundTracker) *Scanner {
	return &Scanner{
		logger:  logger.With().Str("component", "scanner").Logger(),
		servers: servers,
		cp:      cp,
		remote:  remote,
		tracker: tracker,
	}
}

// ScanHost verifies the host is alive and its control plane answers.
func (s *Scanner) ScanHost(ctx context.Context, serverID string) error {
	server, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		return fmt.Errorf("look up server %s: %w", serverID, err)
	}

	switch server.Type {
	case model.ServerTypePVE, model.ServerTypePBS:
		if _, err := s.cp.GetNodeStatus(ctx, server); err != nil {
			return fmt.Errorf("node status: %w", err)
		}
	default:
		if _, err := s.remote.Run(ctx, server, "uptime"); err != nil {
			return fmt.Errorf("liveness probe: %w", err)
		}
	}
	return nil
}

// ScanAllVMs lists the guests on the host and returns how many were seen.
// Hosts without a hypervisor control plane report zero guests.
func (s *Scanner) ScanAllVMs(ctx context.Context, serverID string) (int, error) {
	server, err := s.servers.GetByID(ctx, serverID)
	if err != nil {
		return 0, fmt.Errorf("look up server %s: %w", serverID, err)
	}
	if server.Type != model.ServerTypePVE {
		return 0, nil
	}

	vms, err := s.cp.ListVMs(ctx, server)
	if err != nil {
		return 0, fmt.Errorf("list vms: %w", err)
	}
	return len(vms), nil
}

// ScanEntireInfrastructure sweeps every known host under a background task
// row. Cancellation is cooperative: the sweep re-reads its own row between
// hosts and stops when it observes cancelled. Per-host failures are logged
// and do not abort the sweep.
func (s *Scanner) ScanEntireInfrastructure(ctx context.Context) {
	servers, err := s.servers.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("fleet scan: failed to list servers")
		return
	}

	task, err := s.tracker.Open(ctx, "scan", fmt.Sprintf("Infrastructure scan of %d hosts", len(servers)), nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("fleet scan: failed to open background task")
		return
	}

	var failures int
	for _, server := range servers {
		cancelled, err := s.tracker.IsCancelled(ctx, task.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("task_id", task.ID).Msg("fleet scan: cancellation poll failed")
		} else if cancelled {
			s.logger.Info().Str("task_id", task.ID).Msg("fleet scan: cancelled, stopping sweep")
			return
		}

		if err := s.ScanHost(ctx, server.ID); err != nil {
			failures++
			s.logger.Warn().Err(err).Str("server", server.Name).Msg("fleet scan: host scan failed")
			continue
		}
		if _, err := s.ScanAllVMs(ctx, server.ID); err != nil {
			failures++
			s.logger.Warn().Err(err).Str("server", server.Name).Msg("fleet scan: vm scan failed")
		}
	}

	status := model.TaskSuccess
	errMsg := ""
	if failures > 0 {
		status = model.TaskFailed
		errMsg = fmt.Sprintf("%d of %d hosts failed", failures, len(servers))
	}
	if _, err := s.tracker.Close(ctx, task.ID, status, errMsg); err != nil {
		s.logger.Error().Err(err).Str("task_id", task.ID).Msg("fleet scan: failed to close background task")
	}
}
