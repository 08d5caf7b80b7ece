package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"
)

// Client sends requests to a running keyboard. Each call uses its own
// connection.
type Client struct {
	socketPath string
	timeout    time.Duration
	nextID     atomic.Uint32
}

// NewClient creates a client for socketPath.
func NewClient(socketPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{socketPath: socketPath, timeout: timeout}
}

// Do sends req and waits for its response. Dial failures are reported as
// ErrNotRunning.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	req.Version = ProtocolVersion
	req.ID = c.nextID.Add(1)
	if err := WriteMessage(conn, req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	scanner := NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return nil, fmt.Errorf("read response: %w", io.ErrUnexpectedEOF)
	}
	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.ID != req.ID && resp.ID != 0 {
		return nil, fmt.Errorf("response id %d does not match request %d", resp.ID, req.ID)
	}
	return &resp, resp.Err()
}

func (c *Client) simple(ctx context.Context, cmd Command) error {
	_, err := c.Do(ctx, Request{Command: cmd})
	return err
}

// Ping checks that an instance answers.
func (c *Client) Ping(ctx context.Context) error { return c.simple(ctx, CmdPing) }

// Show restores the keyboard.
func (c *Client) Show(ctx context.Context) error { return c.simple(ctx, CmdShow) }

// Hide minimizes the keyboard.
func (c *Client) Hide(ctx context.Context) error { return c.simple(ctx, CmdHide) }

// Toggle flips visibility.
func (c *Client) Toggle(ctx context.Context) error { return c.simple(ctx, CmdToggle) }

// Reload asks the instance to re-read its configuration file.
func (c *Client) Reload(ctx context.Context) error { return c.simple(ctx, CmdReload) }

// Status returns the running keyboard's state.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	resp, err := c.Do(ctx, Request{Command: CmdStatus})
	if err != nil {
		return nil, err
	}
	if resp.Status == nil {
		return nil, errors.New("ipc: status missing from response")
	}
	return resp.Status, nil
}

// History returns up to limit journal entries, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	resp, err := c.Do(ctx, Request{Command: CmdHistory, Limit: limit})
	if err != nil {
		return nil, err
	}
	return resp.History, nil
}
