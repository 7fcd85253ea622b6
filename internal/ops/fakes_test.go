package ops

import (
	"context"
	"fmt"
	"sync"

	"github.com/edvin/vmfleet/internal/model"
	"github.com/edvin/vmfleet/internal/pve"
)

type fakeServers struct {
	servers []model.Server
	listErr error
}

func (f *fakeServers) GetByID(ctx context.Context, id string) (*model.Server, error) {
	for i := range f.servers {
		if f.servers[i].ID == id {
			s := f.servers[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("server not found")
}

func (f *fakeServers) List(ctx context.Context) ([]model.Server, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.servers, nil
}

type fakeRemote struct {
	mu       sync.Mutex
	commands []string
	outputs  map[string]string
	errs     map[string]error
}

func (f *fakeRemote) Run(ctx context.Context, server *model.Server, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if err, ok := f.errs[server.ID]; ok {
		return "", err
	}
	return f.outputs[server.ID], nil
}

type fakeControlPlane struct {
	mu         sync.Mutex
	statusErr  error
	statusFor  []string
	vms        []pve.VM
	vmsErr     error
	vmsListed  []string
	upid       string
	startErr   error
	taskStates []pve.TaskStatus
	taskErr    error
	polls      int
}

func (f *fakeControlPlane) GetNodeStatus(ctx context.Context, server *model.Server) (*pve.NodeStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusFor = append(f.statusFor, server.ID)
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	return &pve.NodeStatus{}, nil
}

func (f *fakeControlPlane) ListVMs(ctx context.Context, server *model.Server) ([]pve.VM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vmsListed = append(f.vmsListed, server.ID)
	if f.vmsErr != nil {
		return nil, f.vmsErr
	}
	return f.vms, nil
}

func (f *fakeControlPlane) StartMigration(ctx context.Context, server *model.Server, vmid int, targetNode, migrationType string) (string, error) {
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.upid, nil
}

// GetTaskStatus replays taskStates in order, repeating the last entry.
func (f *fakeControlPlane) GetTaskStatus(ctx context.Context, server *model.Server, upid string) (*pve.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taskErr != nil {
		return nil, f.taskErr
	}
	i := f.polls
	if i >= len(f.taskStates) {
		i = len(f.taskStates) - 1
	}
	f.polls++
	st := f.taskStates[i]
	return &st, nil
}

type fakeTracker struct {
	mu            sync.Mutex
	openErr       error
	task          *model.BackgroundTask
	cancelAfter   int // polls before IsCancelled reports true; -1 = never
	polls         int
	closedStatus  string
	closedErrMsg  string
	closeObserved bool
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{cancelAfter: -1}
}

func (f *fakeTracker) Open(ctx context.Context, taskType, description string, sourceServerID *string) (*model.BackgroundTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.task = &model.BackgroundTask{ID: "bg-1", Type: taskType, Description: description, Status: model.TaskRunning}
	return f.task, nil
}

func (f *fakeTracker) Close(ctx context.Context, id, status, errMsg string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedStatus = status
	f.closedErrMsg = errMsg
	f.closeObserved = true
	return true, nil
}

func (f *fakeTracker) IsCancelled(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cancelled := f.cancelAfter >= 0 && f.polls >= f.cancelAfter
	f.polls++
	return cancelled, nil
}
