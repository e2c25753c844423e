package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"image"
	"net"
	"time"

	"github.com/1broseidon/riotile/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default daemon socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for the daemon listening on socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    requestTimeout + 5*time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}
	return &resp, nil
}

func (c *Client) do(cmd CommandType, payload any, out any) error {
	req, err := NewRequest(cmd, payload)
	if err != nil {
		return err
	}
	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("failed to parse %s data: %w", cmd, err)
		}
	}
	return nil
}

// New asks the daemon for a new window.
func (c *Client) New(p NewPayload) (*WindowInfo, error) {
	var info WindowInfo
	if err := c.do(CommandNew, p, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// List returns every live window.
func (c *Client) List() ([]WindowInfo, error) {
	var data WindowsData
	if err := c.do(CommandList, nil, &data); err != nil {
		return nil, err
	}
	return data.Windows, nil
}

func (c *Client) Resize(id int, r image.Rectangle) error {
	return c.do(CommandResize, ResizePayload{ID: id, Rect: FromImage(r)}, nil)
}

func (c *Client) Move(id int, p image.Point) error {
	return c.do(CommandMove, MovePayload{ID: id, X: p.X, Y: p.Y}, nil)
}

func (c *Client) Delete(id int) error {
	return c.do(CommandDelete, WindowPayload{ID: id}, nil)
}

func (c *Client) Hide(id int) error {
	return c.do(CommandHide, WindowPayload{ID: id}, nil)
}

func (c *Client) Unhide(id int) error {
	return c.do(CommandUnhide, WindowPayload{ID: id}, nil)
}

// Top raises and focuses a window, unhiding it if needed.
func (c *Client) Top(id int) error {
	return c.do(CommandTop, WindowPayload{ID: id}, nil)
}

// Tile lays out every window in a grid.
func (c *Client) Tile() error {
	return c.do(CommandTile, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.do(CommandStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
