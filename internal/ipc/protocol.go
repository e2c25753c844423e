package ipc

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/1broseidon/riotile/internal/wm"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandNew    CommandType = "NEW"
	CommandList   CommandType = "LIST"
	CommandResize CommandType = "RESIZE"
	CommandMove   CommandType = "MOVE"
	CommandDelete CommandType = "DELETE"
	CommandHide   CommandType = "HIDE"
	CommandUnhide CommandType = "UNHIDE"
	CommandTop    CommandType = "TOP"
	CommandTile   CommandType = "TILE"
	CommandStatus CommandType = "STATUS"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Rect is a rectangle on the wire: origin plus size.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FromImage converts an image rectangle.
func FromImage(r image.Rectangle) Rect {
	return Rect{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

// Image converts back to an image rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Validate rejects a rectangle whose width or height is not positive.
func (r Rect) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("invalid rect %dx%d: width and height must be positive", r.Width, r.Height)
	}
	return nil
}

// NewPayload is the payload of NEW. A nil Rect lets the window manager
// choose; a zero Pid starts Command (or the shell) instead of adopting.
type NewPayload struct {
	Rect      *Rect    `json:"rect,omitempty"`
	Hidden    bool     `json:"hidden,omitempty"`
	Scrolling bool     `json:"scrolling,omitempty"`
	Pid       int      `json:"pid,omitempty"`
	Dir       string   `json:"dir,omitempty"`
	Command   string   `json:"command,omitempty"`
	Args      []string `json:"args,omitempty"`
	Label     string   `json:"label,omitempty"`
}

// WindowPayload names a window for DELETE, HIDE, UNHIDE and TOP.
type WindowPayload struct {
	ID int `json:"id"`
}

type ResizePayload struct {
	ID   int  `json:"id"`
	Rect Rect `json:"rect"`
}

type MovePayload struct {
	ID int `json:"id"`
	X  int `json:"x"`
	Y  int `json:"y"`
}

// WindowInfo describes one window in LIST and NEW responses.
type WindowInfo struct {
	ID        int    `json:"id"`
	Pid       int    `json:"pid"`
	Label     string `json:"label"`
	Dir       string `json:"dir,omitempty"`
	Rect      Rect   `json:"rect"`
	Topped    int    `json:"topped"`
	Hidden    bool   `json:"hidden"`
	Current   bool   `json:"current"`
	Scrolling bool   `json:"scrolling"`
}

func windowInfo(in wm.Info) WindowInfo {
	return WindowInfo{
		ID:        in.ID,
		Pid:       in.Pid,
		Label:     in.Label,
		Dir:       in.Dir,
		Rect:      FromImage(in.Rect),
		Topped:    in.Topped,
		Hidden:    in.Hidden,
		Current:   in.Current,
		Scrolling: in.Scrolling,
	}
}

// WindowsData represents the data returned by LIST
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// StatusData represents the data returned by STATUS
type StatusData struct {
	Screen        Rect   `json:"screen"`
	Windows       int    `json:"windows"`
	Hidden        int    `json:"hidden"`
	HiddenCap     int    `json:"hidden_cap"`
	Input         int    `json:"input,omitempty"`
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// NewRequest builds a request with a marshaled payload.
func NewRequest(cmd CommandType, payload any) (*Request, error) {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}
	return req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
