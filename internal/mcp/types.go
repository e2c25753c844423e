package mcp

import "github.com/1broseidon/riotile/internal/ipc"

// RectInput is a rectangle in screen coordinates.
type RectInput struct {
	X      int `json:"x" jsonschema:"required,Left edge"`
	Y      int `json:"y" jsonschema:"required,Top edge"`
	Width  int `json:"width" jsonschema:"required,Width in screen units"`
	Height int `json:"height" jsonschema:"required,Height in screen units"`
}

func (r RectInput) ipc() ipc.Rect {
	return ipc.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// WindowInput names a single window.
type WindowInput struct {
	ID int `json:"id" jsonschema:"required,Window id as reported by list_windows"`
}

// NewWindowInput is the input for the new_window tool.
type NewWindowInput struct {
	Command   string     `json:"command,omitempty" jsonschema:"Program to run (default: the configured shell)"`
	Args      []string   `json:"args,omitempty" jsonschema:"Arguments for command"`
	Dir       string     `json:"dir,omitempty" jsonschema:"Working directory for the client"`
	Label     string     `json:"label,omitempty" jsonschema:"Window label (default: the command name)"`
	Rect      *RectInput `json:"rect,omitempty" jsonschema:"Window rectangle; omitted means the window manager chooses"`
	Hidden    bool       `json:"hidden,omitempty" jsonschema:"Create the window hidden"`
	Scrolling bool       `json:"scrolling,omitempty" jsonschema:"Follow output as it arrives"`
}

// ResizeWindowInput is the input for the resize_window tool.
type ResizeWindowInput struct {
	ID   int       `json:"id" jsonschema:"required,Window id"`
	Rect RectInput `json:"rect" jsonschema:"required,New rectangle"`
}

// MoveWindowInput is the input for the move_window tool.
type MoveWindowInput struct {
	ID int `json:"id" jsonschema:"required,Window id"`
	X  int `json:"x" jsonschema:"required,New left edge"`
	Y  int `json:"y" jsonschema:"required,New top edge"`
}

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// WindowOutput wraps a single window description.
type WindowOutput struct {
	Window ipc.WindowInfo `json:"window"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []ipc.WindowInfo `json:"windows"`
	Count   int              `json:"count"`
}

// ActionOutput reports a completed action on one window.
type ActionOutput struct {
	ID int    `json:"id,omitempty"`
	OK bool   `json:"ok"`
	Op string `json:"op"`
}

// StatusOutput is the output for the status tool.
type StatusOutput struct {
	Status ipc.StatusData `json:"status"`
}
