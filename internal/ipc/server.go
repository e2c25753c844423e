package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/riotile/internal/runtimepath"
	"github.com/1broseidon/riotile/internal/wm"
)

// requestTimeout bounds how long a command may wait for the dispatcher.
const requestTimeout = 10 * time.Second

// Controller is the window manager as the protocol sees it.
type Controller interface {
	List(ctx context.Context) ([]wm.Info, error)
	Create(ctx context.Context, req wm.NewWindowRequest) (wm.Info, error)
	Resize(ctx context.Context, id int, r image.Rectangle) error
	Move(ctx context.Context, id int, p image.Point) error
	Delete(ctx context.Context, id int) error
	Hide(ctx context.Context, id int) error
	Unhide(ctx context.Context, id int) error
	Top(ctx context.Context, id int) error
	TileWindows(ctx context.Context) error
	Status(ctx context.Context) (wm.Status, error)
}

// Server handles IPC requests from clients
type Server struct {
	socketPath string
	listener   net.Listener
	ctl        Controller
	log        *slog.Logger
	startTime  time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server for ctl on socketPath, or on the default
// runtime socket when socketPath is empty.
func NewServer(ctl Controller, socketPath string, logger *slog.Logger) (*Server, error) {
	if socketPath == "" {
		p, err := runtimepath.SocketPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
		}
		socketPath = p
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// Remove a stale socket from a previous run.
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		ctl:        ctl,
		log:        logger,
		startTime:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.log.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.log.Warn("IPC accept error", "error", err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one request: a single JSON line in, one out.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(requestTimeout))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.log.Debug("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		s.log.Warn("failed to marshal IPC response", "command", req.Command, "error", err)
		return
	}
	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.log.Debug("failed to send IPC response", "error", err)
	}
}

func (s *Server) handleCommand(req *Request) *Response {
	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()

	s.log.Debug("IPC command", "command", req.Command)
	switch req.Command {
	case CommandNew:
		return s.handleNew(ctx, req.Payload)
	case CommandList:
		return s.handleList(ctx)
	case CommandResize:
		var p ResizePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		if err := p.Rect.Validate(); err != nil {
			return NewErrorResponse(err.Error())
		}
		return s.result(s.ctl.Resize(ctx, p.ID, p.Rect.Image()))
	case CommandMove:
		var p MovePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		return s.result(s.ctl.Move(ctx, p.ID, image.Pt(p.X, p.Y)))
	case CommandDelete:
		return s.withWindow(ctx, req.Payload, s.ctl.Delete)
	case CommandHide:
		return s.withWindow(ctx, req.Payload, s.ctl.Hide)
	case CommandUnhide:
		return s.withWindow(ctx, req.Payload, s.ctl.Unhide)
	case CommandTop:
		return s.withWindow(ctx, req.Payload, s.ctl.Top)
	case CommandTile:
		return s.result(s.ctl.TileWindows(ctx))
	case CommandStatus:
		return s.handleStatus(ctx)
	default:
		return NewErrorResponse(fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func decodePayload(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func (s *Server) result(err error) *Response {
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) withWindow(ctx context.Context, raw json.RawMessage, fn func(context.Context, int) error) *Response {
	var p WindowPayload
	if err := decodePayload(raw, &p); err != nil {
		return NewErrorResponse(err.Error())
	}
	return s.result(fn(ctx, p.ID))
}

func (s *Server) handleNew(ctx context.Context, raw json.RawMessage) *Response {
	var p NewPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return NewErrorResponse(fmt.Sprintf("invalid payload: %v", err))
		}
	}
	req := wm.NewWindowRequest{
		Hidden:    p.Hidden,
		Scrolling: p.Scrolling,
		Label:     p.Label,
		Command: wm.Command{
			Pid:  p.Pid,
			Path: p.Command,
			Args: p.Args,
			Dir:  p.Dir,
		},
	}
	if p.Rect == nil {
		req.AutoRect = true
	} else {
		if err := p.Rect.Validate(); err != nil {
			return NewErrorResponse(err.Error())
		}
		req.Rect = p.Rect.Image()
	}
	in, err := s.ctl.Create(ctx, req)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	s.log.Info("IPC created window", "window", in.ID, "pid", in.Pid)
	resp, err := NewOKResponse(windowInfo(in))
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleList(ctx context.Context) *Response {
	infos, err := s.ctl.List(ctx)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	data := WindowsData{Windows: make([]WindowInfo, 0, len(infos))}
	for _, in := range infos {
		data.Windows = append(data.Windows, windowInfo(in))
	}
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) handleStatus(ctx context.Context) *Response {
	st, err := s.ctl.Status(ctx)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, err := NewOKResponse(StatusData{
		Screen:        FromImage(st.Screen),
		Windows:       st.Windows,
		Hidden:        st.Hidden,
		HiddenCap:     st.HiddenCap,
		Input:         st.Input,
		State:         st.State.String(),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		DaemonRunning: true,
	})
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener, cancels commands in flight and waits for open
// connections to finish.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
