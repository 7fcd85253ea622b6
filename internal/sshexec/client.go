package sshexec

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/edvin/vmfleet/internal/model"
)

// Client executes commands on managed hosts over SSH. Each Run dials a
// fresh connection; callers treat a timeout as "host unreachable", not as a
// protocol violation.
type Client struct {
	user    string
	keyPath string
	timeout time.Duration
}

// NewClient creates an SSH exec client. user is the fallback login when a
// server has no ssh_user of its own.
func NewClient(user, keyPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{user: user, keyPath: keyPath, timeout: timeout}
}

// Run connects to the server, executes command and returns its combined
// output. The connection is closed before returning.
func (c *Client) Run(ctx context.Context, server *model.Server, command string) (string, error) {
	signer, err := c.signer()
	if err != nil {
		return "", err
	}

	user := server.SSHUser
	if user == "" {
		user = c.user
	}

	addr := net.JoinHostPort(server.Host, fmt.Sprintf("%d", server.Port))
	tcpConn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		return "", fmt.Errorf("dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.timeout,
	})
	if err != nil {
		tcpConn.Close()
		return "", fmt.Errorf("ssh handshake with %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("open ssh session on %s: %w", addr, err)
	}
	defer session.Close()

	type result struct {
		output []byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		out, runErr := session.CombinedOutput(command)
		done <- result{output: out, err: runErr}
	}()

	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			return string(res.output), fmt.Errorf("exec on %s: %w", addr, res.err)
		}
		return string(res.output), nil
	case <-deadline.C:
		// Closing the session unblocks CombinedOutput.
		session.Close()
		return "", fmt.Errorf("exec on %s: timed out after %s", addr, c.timeout)
	case <-ctx.Done():
		session.Close()
		return "", fmt.Errorf("exec on %s: %w", addr, ctx.Err())
	}
}

func (c *Client) signer() (ssh.Signer, error) {
	if c.keyPath == "" {
		return nil, fmt.Errorf("ssh key path not configured")
	}
	keyBytes, err := os.ReadFile(c.keyPath)
	if err != nil {
		return nil, fmt.Errorf("read ssh key %s: %w", c.keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse ssh key %s: %w", c.keyPath, err)
	}
	return signer, nil
}
