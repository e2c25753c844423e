package mcp

import (
	"context"
	"fmt"
	"image"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/riotile/internal/ipc"
)

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.ctl.List()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("list windows: %w", err)
	}
	if windows == nil {
		windows = []ipc.WindowInfo{}
	}
	return nil, ListWindowsOutput{Windows: windows, Count: len(windows)}, nil
}

func (s *Server) handleNewWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args NewWindowInput) (*mcpsdk.CallToolResult, WindowOutput, error) {
	p := ipc.NewPayload{
		Hidden:    args.Hidden,
		Scrolling: args.Scrolling,
		Dir:       args.Dir,
		Command:   args.Command,
		Args:      args.Args,
		Label:     args.Label,
	}
	if args.Rect != nil {
		r := args.Rect.ipc()
		if r.Width <= 0 || r.Height <= 0 {
			return nil, WindowOutput{}, fmt.Errorf("rect must have positive width and height, got %dx%d", r.Width, r.Height)
		}
		p.Rect = &r
	}
	info, err := s.ctl.New(p)
	if err != nil {
		s.log.Warn("new_window failed", "command", args.Command, "err", err)
		return nil, WindowOutput{}, fmt.Errorf("new window: %w", err)
	}
	s.log.Info("new_window", "id", info.ID, "label", info.Label)
	return nil, WindowOutput{Window: *info}, nil
}

func (s *Server) handleResizeWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args ResizeWindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	r := args.Rect.ipc()
	if r.Width <= 0 || r.Height <= 0 {
		return nil, ActionOutput{}, fmt.Errorf("rect must have positive width and height, got %dx%d", r.Width, r.Height)
	}
	return s.action("resize", args.ID, func() error { return s.ctl.Resize(args.ID, r.Image()) })
}

func (s *Server) handleMoveWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveWindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action("move", args.ID, func() error { return s.ctl.Move(args.ID, image.Pt(args.X, args.Y)) })
}

func (s *Server) handleDeleteWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action("delete", args.ID, func() error { return s.ctl.Delete(args.ID) })
}

func (s *Server) handleHideWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action("hide", args.ID, func() error { return s.ctl.Hide(args.ID) })
}

func (s *Server) handleUnhideWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action("unhide", args.ID, func() error { return s.ctl.Unhide(args.ID) })
}

func (s *Server) handleTopWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action("top", args.ID, func() error { return s.ctl.Top(args.ID) })
}

func (s *Server) handleTileWindows(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.action("tile", 0, s.ctl.Tile)
}

func (s *Server) handleStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	st, err := s.ctl.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("status: %w", err)
	}
	return nil, StatusOutput{Status: *st}, nil
}

func (s *Server) action(op string, id int, fn func() error) (*mcpsdk.CallToolResult, ActionOutput, error) {
	if err := fn(); err != nil {
		s.log.Warn("window action failed", "op", op, "id", id, "err", err)
		if id != 0 {
			return nil, ActionOutput{}, fmt.Errorf("%s window %d: %w", op, id, err)
		}
		return nil, ActionOutput{}, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("window action", "op", op, "id", id)
	return nil, ActionOutput{ID: id, OK: true, Op: op}, nil
}
