package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/edvin/vmfleet/internal/model"
)

// Hand-rolled fakes for the scheduler's store and handler interfaces.
// Everything is mutex-guarded because cron fires and the poll loops run on
// their own goroutines.

type fakeJobStore struct {
	mu      sync.Mutex
	jobs    []model.Job
	listErr error

	created  []model.Job
	disabled []string
	existing map[string]bool
}

func (f *fakeJobStore) ListEnabled(ctx context.Context) ([]model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		if j.Enabled {
			out = append(out, j)
		}
	}
	return out, nil
}

func (f *fakeJobStore) GetByID(ctx context.Context, id string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			j := f.jobs[i]
			return &j, nil
		}
	}
	return nil, fmt.Errorf("job not found")
}

func (f *fakeJobStore) Create(ctx context.Context, job *model.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *job)
	f.jobs = append(f.jobs, *job)
	return nil
}

func (f *fakeJobStore) SetEnabled(ctx context.Context, id string, enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !enabled {
		f.disabled = append(f.disabled, id)
	}
	for i := range f.jobs {
		if f.jobs[i].ID == id {
			f.jobs[i].Enabled = enabled
		}
	}
	return nil
}

func (f *fakeJobStore) ExistsByNameAndType(ctx context.Context, name string, jobType model.JobType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[name], nil
}

type fakeHistoryStore struct {
	mu      sync.Mutex
	openErr error
	// closed=false simulates a record concluded by a concurrent cancel.
	closeResult bool

	opened   []string
	statuses []string
	logs     []string
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{closeResult: true}
}

func (f *fakeHistoryStore) Open(ctx context.Context, jobID string) (*model.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, jobID)
	return &model.HistoryRecord{ID: "hist-" + jobID, JobID: jobID, Status: model.TaskRunning}, nil
}

func (f *fakeHistoryStore) Close(ctx context.Context, id, status, log string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	f.logs = append(f.logs, log)
	return f.closeResult, nil
}

func (f *fakeHistoryStore) lastStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return ""
	}
	return f.statuses[len(f.statuses)-1]
}

func (f *fakeHistoryStore) lastLog() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.logs) == 0 {
		return ""
	}
	return f.logs[len(f.logs)-1]
}

type fakeServerStore struct {
	mu      sync.Mutex
	servers []model.Server
	err     error
}

func (f *fakeServerStore) List(ctx context.Context) ([]model.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.servers, nil
}

func (f *fakeServerStore) GetByID(ctx context.Context, id string) (*model.Server, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.servers {
		if f.servers[i].ID == id {
			s := f.servers[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("server not found")
}

type fakeStatsStore struct {
	mu       sync.Mutex
	upserted []model.NodeStats
	offline  []string
}

func (f *fakeStatsStore) Upsert(ctx context.Context, stats *model.NodeStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, *stats)
	return nil
}

func (f *fakeStatsStore) MarkOffline(ctx context.Context, serverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = append(f.offline, serverID)
	return nil
}

type fakeRemote struct {
	mu      sync.Mutex
	outputs map[string]string
	errs    map[string]error
	ran     []string
}

func (f *fakeRemote) Run(ctx context.Context, server *model.Server, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, server.ID)
	if err, ok := f.errs[server.ID]; ok {
		return "", err
	}
	return f.outputs[server.ID], nil
}

type fakeBackupHandler struct {
	backupID string
	err      error
	panics   bool
}

func (f *fakeBackupHandler) BackupConfig(ctx context.Context, server *model.Server) (string, error) {
	if f.panics {
		panic("backup handler exploded")
	}
	return f.backupID, f.err
}

type fakeScanHandler struct {
	mu         sync.Mutex
	hostErr    error
	vmCount    int
	vmErr      error
	fleetScans int
}

func (f *fakeScanHandler) ScanHost(ctx context.Context, serverID string) error {
	return f.hostErr
}

func (f *fakeScanHandler) ScanAllVMs(ctx context.Context, serverID string) (int, error) {
	return f.vmCount, f.vmErr
}

func (f *fakeScanHandler) ScanEntireInfrastructure(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fleetScans++
}

type fakeMigrationHandler struct {
	ok      bool
	message string
	err     error

	mu    sync.Mutex
	calls []migrationCall
}

type migrationCall struct {
	source, target string
	vmid           int
	migrationType  string
}

func (f *fakeMigrationHandler) Migrate(ctx context.Context, sourceServerID, targetServerID string, vmid int, migrationType string, onLog func(string)) (bool, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, migrationCall{sourceServerID, targetServerID, vmid, migrationType})
	f.mu.Unlock()
	onLog("migration progress")
	return f.ok, f.message, f.err
}

type fakeAnalyzer struct {
	result string
	err    error
}

func (f *fakeAnalyzer) AnalyzeNetwork(ctx context.Context, serverID string) (string, error) {
	return f.result, f.err
}

type fakeAI struct {
	configured bool
	model      string
}

func (f *fakeAI) Configured() bool { return f.configured }
func (f *fakeAI) Model() string    { return f.model }
