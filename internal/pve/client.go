package pve

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edvin/vmfleet/internal/model"
)

// Client talks to the virtualization control-plane REST API of a hypervisor
// or backup-server node. Authentication uses the server's stored API token.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a control-plane client. verifyTLS off accepts the
// self-signed certificates hypervisors ship with by default.
func NewClient(verifyTLS bool) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !verifyTLS},
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

// NodeStatus is the subset of node status fields the scanner records.
type NodeStatus struct {
	Uptime  int64   `json:"uptime"`
	CPU     float64 `json:"cpu"`
	LoadAvg []any   `json:"loadavg"`
}

// VM is a guest as reported by the control plane.
type VM struct {
	VMID   int    `json:"vmid"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// TaskStatus reports an asynchronous control-plane task.
type TaskStatus struct {
	Status     string `json:"status"`
	ExitStatus string `json:"exitstatus"`
}

// GetNodeStatus fetches /nodes/{node}/status for the server.
func (c *Client) GetNodeStatus(ctx context.Context, server *model.Server) (*NodeStatus, error) {
	var status NodeStatus
	path := fmt.Sprintf("/api2/json/nodes/%s/status", url.PathEscape(server.Name))
	if err := c.get(ctx, server, path, &status); err != nil {
		return nil, fmt.Errorf("get node status for %s: %w", server.Name, err)
	}
	return &status, nil
}

// ListVMs fetches the guest list of the server's node.
func (c *Client) ListVMs(ctx context.Context, server *model.Server) ([]VM, error) {
	var vms []VM
	path := fmt.Sprintf("/api2/json/nodes/%s/qemu", url.PathEscape(server.Name))
	if err := c.get(ctx, server, path, &vms); err != nil {
		return nil, fmt.Errorf("list vms on %s: %w", server.Name, err)
	}
	return vms, nil
}

// StartMigration asks the control plane to migrate a VM to the target node
// and returns the task identifier (UPID) tracking it.
func (c *Client) StartMigration(ctx context.Context, server *model.Server, vmid int, targetNode, migrationType string) (string, error) {
	form := url.Values{}
	form.Set("target", targetNode)
	if migrationType == "online" {
		form.Set("online", "1")
	}

	path := fmt.Sprintf("/api2/json/nodes/%s/qemu/%d/migrate", url.PathEscape(server.Name), vmid)
	req, err := c.newRequest(ctx, server, http.MethodPost, path, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var upid string
	if err := c.do(req, &upid); err != nil {
		return "", fmt.Errorf("start migration of vm %d on %s: %w", vmid, server.Name, err)
	}
	return upid, nil
}

// GetTaskStatus fetches the status of a control-plane task. The task has
// concluded when Status is "stopped"; ExitStatus "OK" marks success.
func (c *Client) GetTaskStatus(ctx context.Context, server *model.Server, upid string) (*TaskStatus, error) {
	var status TaskStatus
	path := fmt.Sprintf("/api2/json/nodes/%s/tasks/%s/status", url.PathEscape(server.Name), url.PathEscape(upid))
	if err := c.get(ctx, server, path, &status); err != nil {
		return nil, fmt.Errorf("get task status %s on %s: %w", upid, server.Name, err)
	}
	return &status, nil
}

func (c *Client) get(ctx context.Context, server *model.Server, path string, out any) error {
	req, err := c.newRequest(ctx, server, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, server *model.Server, method, path string, body io.Reader) (*http.Request, error) {
	// A host with an explicit port overrides the control plane default.
	base := fmt.Sprintf("https://%s:8006", server.Host)
	if strings.Contains(server.Host, ":") {
		base = "https://" + server.Host
	}
	req, err := http.NewRequestWithContext(ctx, method, base+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	if server.APIToken != nil && *server.APIToken != "" {
		req.Header.Set("Authorization", "PVEAPIToken="+*server.APIToken)
	}
	return req, nil
}

// do executes the request and unmarshals the control plane's {"data": ...}
// envelope into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request %s: status %d: %s", req.URL.Path, resp.StatusCode, string(respBody))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response %s: %w", req.URL.Path, err)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("unmarshal response %s: %w", req.URL.Path, err)
		}
	}
	return nil
}
