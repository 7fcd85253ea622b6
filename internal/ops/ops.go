// Package ops contains the concrete job-type handlers the scheduler
// dispatches to: config backup, host/VM scanning, VM migration and
// AI-assisted network analysis.
package ops

import (
	"context"

	"github.com/edvin/vmfleet/internal/model"
)

// ServerLookup resolves managed hosts. core.ServerService satisfies it.
type ServerLookup interface {
	GetByID(ctx context.Context, id string) (*model.Server, error)
	List(ctx context.Context) ([]model.Server, error)
}

// Remote executes commands on managed hosts. sshexec.Client satisfies it.
type Remote interface {
	Run(ctx context.Context, server *model.Server, command string) (string, error)
}
