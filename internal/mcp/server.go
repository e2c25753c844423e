package mcp

import (
	"context"
	"image"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/riotile/internal/ipc"
)

const (
	ServerName    = "riotile"
	ServerVersion = "0.1.0"
)

// Controller is the part of the daemon client the tools drive.
type Controller interface {
	New(p ipc.NewPayload) (*ipc.WindowInfo, error)
	List() ([]ipc.WindowInfo, error)
	Resize(id int, r image.Rectangle) error
	Move(id int, p image.Point) error
	Delete(id int) error
	Hide(id int) error
	Unhide(id int) error
	Top(id int) error
	Tile() error
	GetStatus() (*ipc.StatusData, error)
}

// Server exposes the window manager's control operations as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	ctl       Controller
	log       *slog.Logger
}

// NewServer creates a server that forwards every tool call to ctl.
func NewServer(ctl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{ctl: ctl, log: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List every window with its id, label, rectangle, hidden flag and whether it holds the keyboard.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "new_window",
		Description: "Create a window running a command (the configured shell by default). Omit the rectangle to let the window manager place it.",
	}, s.handleNewWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "resize_window",
		Description: "Give a window a new rectangle in screen coordinates. Rectangles smaller than the minimum window size are rejected.",
	}, s.handleResizeWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_window",
		Description: "Move a window so its top-left corner is at x,y, keeping its size.",
	}, s.handleMoveWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "delete_window",
		Description: "Close a window. Its client is hung up and killed if it does not exit within the grace period.",
	}, s.handleDeleteWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_window",
		Description: "Hide a window. It keeps running and can be brought back with unhide_window or top_window.",
	}, s.handleHideWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "unhide_window",
		Description: "Show a hidden window at its remembered rectangle.",
	}, s.handleUnhideWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "top_window",
		Description: "Raise a window and give it the keyboard, unhiding it first if needed.",
	}, s.handleTopWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tile_windows",
		Description: "Lay out every window, hidden ones included, in a near-square grid filling the screen.",
	}, s.handleTileWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "status",
		Description: "Report the screen rectangle, window counts, the input state and daemon uptime.",
	}, s.handleStatus)
}
