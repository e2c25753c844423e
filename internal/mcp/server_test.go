package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/riotile/internal/ipc"
)

type fakeController struct {
	mu      sync.Mutex
	windows []ipc.WindowInfo
	calls   []string
	news    []ipc.NewPayload
	resized image.Rectangle
	moved   image.Point
	err     error
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) New(p ipc.NewPayload) (*ipc.WindowInfo, error) {
	if err := f.record("new"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.news = append(f.news, p)
	info := ipc.WindowInfo{ID: len(f.windows) + 1, Label: p.Label}
	if p.Rect != nil {
		info.Rect = *p.Rect
	}
	f.windows = append(f.windows, info)
	return &info, nil
}

func (f *fakeController) List() ([]ipc.WindowInfo, error) {
	if err := f.record("list"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ipc.WindowInfo(nil), f.windows...), nil
}

func (f *fakeController) Resize(id int, r image.Rectangle) error {
	f.resized = r
	return f.record("resize")
}

func (f *fakeController) Move(id int, p image.Point) error {
	f.moved = p
	return f.record("move")
}

func (f *fakeController) Delete(id int) error { return f.record("delete") }
func (f *fakeController) Hide(id int) error   { return f.record("hide") }
func (f *fakeController) Unhide(id int) error { return f.record("unhide") }
func (f *fakeController) Top(id int) error    { return f.record("top") }
func (f *fakeController) Tile() error         { return f.record("tile") }

func (f *fakeController) GetStatus() (*ipc.StatusData, error) {
	if err := f.record("status"); err != nil {
		return nil, err
	}
	return &ipc.StatusData{Windows: len(f.windows), State: "idle", DaemonRunning: true}, nil
}

func TestHandleListWindows_EmptyIsNotNil(t *testing.T) {
	s := NewServer(&fakeController{}, nil)
	_, out, err := s.handleListWindows(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("handleListWindows error: %v", err)
	}
	if out.Windows == nil || out.Count != 0 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestHandleNewWindow(t *testing.T) {
	tests := []struct {
		name    string
		in      NewWindowInput
		wantErr bool
		wantNil bool
	}{
		{"default placement", NewWindowInput{Label: "rc"}, false, true},
		{"explicit rect", NewWindowInput{Rect: &RectInput{X: 10, Y: 20, Width: 300, Height: 200}}, false, false},
		{"empty rect", NewWindowInput{Rect: &RectInput{X: 10, Y: 20}}, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := &fakeController{}
			s := NewServer(ctl, nil)
			_, out, err := s.handleNewWindow(context.Background(), nil, tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if len(ctl.news) != 0 {
					t.Fatal("invalid request reached the daemon")
				}
				return
			}
			if err != nil {
				t.Fatalf("handleNewWindow error: %v", err)
			}
			if out.Window.ID != 1 {
				t.Errorf("window id = %d, want 1", out.Window.ID)
			}
			if got := ctl.news[0].Rect == nil; got != tt.wantNil {
				t.Errorf("payload rect nil = %v, want %v", got, tt.wantNil)
			}
		})
	}
}

func TestHandleResizeAndMove(t *testing.T) {
	ctl := &fakeController{}
	s := NewServer(ctl, nil)

	_, out, err := s.handleResizeWindow(context.Background(), nil, ResizeWindowInput{
		ID:   3,
		Rect: RectInput{X: 10, Y: 20, Width: 100, Height: 50},
	})
	if err != nil {
		t.Fatalf("resize error: %v", err)
	}
	if !out.OK || out.Op != "resize" || out.ID != 3 {
		t.Fatalf("unexpected output %+v", out)
	}
	if ctl.resized != image.Rect(10, 20, 110, 70) {
		t.Fatalf("resized to %v", ctl.resized)
	}

	if _, _, err := s.handleMoveWindow(context.Background(), nil, MoveWindowInput{ID: 3, X: 5, Y: 6}); err != nil {
		t.Fatalf("move error: %v", err)
	}
	if ctl.moved != image.Pt(5, 6) {
		t.Fatalf("moved to %v", ctl.moved)
	}

	if _, _, err := s.handleResizeWindow(context.Background(), nil, ResizeWindowInput{ID: 3}); err == nil {
		t.Fatal("expected error for empty rect")
	}
}

func TestWindowActions(t *testing.T) {
	tests := []struct {
		op     string
		handle func(*Server) (ActionOutput, error)
	}{
		{"delete", func(s *Server) (ActionOutput, error) {
			_, out, err := s.handleDeleteWindow(context.Background(), nil, WindowInput{ID: 7})
			return out, err
		}},
		{"hide", func(s *Server) (ActionOutput, error) {
			_, out, err := s.handleHideWindow(context.Background(), nil, WindowInput{ID: 7})
			return out, err
		}},
		{"unhide", func(s *Server) (ActionOutput, error) {
			_, out, err := s.handleUnhideWindow(context.Background(), nil, WindowInput{ID: 7})
			return out, err
		}},
		{"top", func(s *Server) (ActionOutput, error) {
			_, out, err := s.handleTopWindow(context.Background(), nil, WindowInput{ID: 7})
			return out, err
		}},
		{"tile", func(s *Server) (ActionOutput, error) {
			_, out, err := s.handleTileWindows(context.Background(), nil, EmptyInput{})
			return out, err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			ctl := &fakeController{}
			out, err := tt.handle(NewServer(ctl, nil))
			if err != nil {
				t.Fatalf("%s error: %v", tt.op, err)
			}
			if !out.OK || out.Op != tt.op {
				t.Fatalf("unexpected output %+v", out)
			}
			if len(ctl.calls) != 1 || ctl.calls[0] != tt.op {
				t.Fatalf("calls = %v, want [%s]", ctl.calls, tt.op)
			}

			ctl = &fakeController{err: errors.New("no such window")}
			if _, err := tt.handle(NewServer(ctl, nil)); err == nil || !strings.Contains(err.Error(), "no such window") {
				t.Fatalf("expected wrapped daemon error, got %v", err)
			}
		})
	}
}

func TestServer_ToolCallOverSession(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctl := &fakeController{windows: []ipc.WindowInfo{{ID: 1, Label: "rc"}}}
	s := NewServer(ctl, nil)
	serverTransport, clientTransport := mcpsdk.NewInMemoryTransports()
	ss, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	defer ss.Close()

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer cs.Close()

	res, err := cs.CallTool(ctx, &mcpsdk.CallToolParams{Name: "list_windows"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError {
		t.Fatalf("list_windows reported an error: %+v", res.Content)
	}
	text, ok := res.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	var out ListWindowsOutput
	if err := json.Unmarshal([]byte(text.Text), &out); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if out.Count != 1 || out.Windows[0].Label != "rc" {
		t.Fatalf("unexpected windows %+v", out)
	}

	ctl.err = errors.New("daemon gone")
	res, err = cs.CallTool(ctx, &mcpsdk.CallToolParams{Name: "top_window", Arguments: map[string]any{"id": 1}})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected tool error result")
	}
}
