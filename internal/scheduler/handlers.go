package scheduler

import (
	"context"

	"github.com/edvin/vmfleet/internal/model"
)

// Store interfaces narrowed to what the scheduler needs. The core services
// satisfy them.

type JobStore interface {
	ListEnabled(ctx context.Context) ([]model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	Create(ctx context.Context, job *model.Job) error
	SetEnabled(ctx context.Context, id string, enabled bool) error
	ExistsByNameAndType(ctx context.Context, name string, jobType model.JobType) (bool, error)
}

type HistoryStore interface {
	Open(ctx context.Context, jobID string) (*model.HistoryRecord, error)
	Close(ctx context.Context, id, status, log string) (bool, error)
}

type ServerStore interface {
	List(ctx context.Context) ([]model.Server, error)
	GetByID(ctx context.Context, id string) (*model.Server, error)
}

type StatsStore interface {
	Upsert(ctx context.Context, stats *model.NodeStats) error
	MarkOffline(ctx context.Context, serverID string) error
}

// Remote executes a command on a managed host. sshexec.Client satisfies it.
type Remote interface {
	Run(ctx context.Context, server *model.Server, command string) (string, error)
}

// Job-type handlers. The executor dispatches to these and is the only code
// that interprets their results; handler bodies are deliberately opaque to
// the scheduling layer.

// BackupHandler backs up a host's configuration and returns the stored
// artifact's identifier.
type BackupHandler interface {
	BackupConfig(ctx context.Context, server *model.Server) (backupID string, err error)
}

// ScanHandler checks host and guest health.
type ScanHandler interface {
	ScanHost(ctx context.Context, serverID string) error
	ScanAllVMs(ctx context.Context, serverID string) (count int, err error)
	ScanEntireInfrastructure(ctx context.Context)
}

// MigrationHandler moves a VM between hosts. The handler, not the executor,
// decides success; onLog receives progress lines as they happen.
type MigrationHandler interface {
	Migrate(ctx context.Context, sourceServerID, targetServerID string, vmid int, migrationType string, onLog func(string)) (ok bool, message string, err error)
}

// NetworkAnalyzer produces an AI assessment of a host's network state.
type NetworkAnalyzer interface {
	AnalyzeNetwork(ctx context.Context, serverID string) (string, error)
}

// AIBackend gates network analysis jobs: when no model is configured the
// executor records a skip instead of running the analyzer.
type AIBackend interface {
	Configured() bool
	Model() string
}

// Handlers bundles the job-type handlers the executor dispatches to.
type Handlers struct {
	Backup  BackupHandler
	Scan    ScanHandler
	Migrate MigrationHandler
	Analyze NetworkAnalyzer
	AI      AIBackend
}
