package client

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
	"github.com/1broseidon/riotile/internal/wm"
)

// wheelLines is how far one wheel step scrolls.
const wheelLines = 3

// Spawner starts window programs on pseudo-terminals.
type Spawner struct {
	Metrics geom.Metrics
	// CharWidth is the width of one column in display units.
	CharWidth int
	MaxLines  int
	Env       []string
	Logger    *slog.Logger
}

// Spawn starts cmd for w, or adopts cmd.Pid when it is set.
func (s *Spawner) Spawn(w *wm.Window, cmd wm.Command) (wm.Client, error) {
	return s.start(w.ID(), cmd)
}

func (s *Spawner) start(id int, cmd wm.Command) (wm.Client, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("window", id)
	if cmd.Pid != 0 {
		return adopt(cmd.Pid, s.newView(), logger)
	}

	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), "TERM=dumb", "RIOTILE_WINDOW="+strconv.Itoa(id))
	c.Env = append(c.Env, s.Env...)
	// pty.Start puts the child in its own session, so its pid is also its
	// process group.
	f, err := pty.StartWithSize(c, &pty.Winsize{Rows: 24, Cols: 80})
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	p := &Pty{
		view:    s.newView(),
		cmd:     c,
		f:       f,
		log:     logger,
		updated: make(chan struct{}, 1),
		exited:  make(chan struct{}),
	}
	go p.readLoop()
	logger.Debug("program started", "pid", c.Process.Pid, "command", cmd.Path)
	return p, nil
}

func (s *Spawner) newView() *view {
	cw := s.CharWidth
	if cw <= 0 {
		cw = max(1, s.Metrics.FontHeight/2)
	}
	return &view{Text: NewText(s.MaxLines), metrics: s.Metrics, charWidth: cw}
}

// view maps window geometry and pointer samples onto a Text.
type view struct {
	*Text
	metrics   geom.Metrics
	charWidth int

	mu        sync.Mutex
	rect      image.Rectangle
	selecting bool
	anchor    int
}

func (v *view) cells(r image.Rectangle) (cols, rows int) {
	m := v.metrics
	fh := max(1, m.FontHeight)
	inner := r.Inset(m.Border)
	cols = max(1, (inner.Dx()-m.ScrollWidth)/v.charWidth)
	rows = max(1, inner.Dy()/fh)
	return cols, rows
}

func (v *view) resize(r image.Rectangle) (cols, rows int) {
	v.mu.Lock()
	v.rect = r
	v.mu.Unlock()
	cols, rows = v.cells(r)
	v.SetRows(rows)
	return cols, rows
}

// lineAt returns the scrollback line under screen row y.
func (v *view) lineAt(y int) int {
	v.mu.Lock()
	r := v.rect
	v.mu.Unlock()
	row := (y - r.Min.Y - v.metrics.Border) / max(1, v.metrics.FontHeight)
	return v.Origin() + max(0, row)
}

// mouse applies a pointer sample: the wheel scrolls, button 1 sweeps a
// line selection. It reports whether the view changed.
func (v *view) mouse(m display.Mouse) bool {
	switch {
	case m.Buttons&display.ScrollUp != 0:
		v.Scroll(-wheelLines)
		return true
	case m.Buttons&display.ScrollDown != 0:
		v.Scroll(wheelLines)
		return true
	}
	v.mu.Lock()
	selecting := v.selecting
	v.mu.Unlock()
	if m.Buttons&display.Button1 == 0 {
		v.mu.Lock()
		v.selecting = false
		v.mu.Unlock()
		return false
	}
	line := v.lineAt(m.Y)
	v.mu.Lock()
	if !selecting {
		v.selecting = true
		v.anchor = line
	}
	anchor := v.anchor
	v.mu.Unlock()
	if line >= anchor {
		v.Select(anchor, line+1)
	} else {
		v.Select(line, anchor+1)
	}
	return true
}

// Pty is a program running on a pseudo-terminal.
type Pty struct {
	*view
	cmd *exec.Cmd
	f   *os.File
	log *slog.Logger

	updated   chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
}

func (p *Pty) readLoop() {
	defer close(p.exited)
	var esc escFilter
	buf := make([]byte, 4096)
	for {
		n, err := p.f.Read(buf)
		if n > 0 {
			p.Append(string(esc.filter(buf[:n])))
			p.notify()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				p.log.Debug("pty read", "error", err)
			}
			break
		}
	}
	if err := p.cmd.Wait(); err != nil {
		p.log.Debug("program exited", "error", err)
	}
}

func (p *Pty) notify() {
	select {
	case p.updated <- struct{}{}:
	default:
	}
}

func (p *Pty) Pid() int { return p.cmd.Process.Pid }

// Rawing reports whether the program turned off canonical input.
func (p *Pty) Rawing() bool {
	raw := false
	conn, err := p.f.SyscallConn()
	if err != nil {
		return false
	}
	_ = conn.Control(func(fd uintptr) {
		t, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
		if err == nil {
			raw = t.Lflag&unix.ICANON == 0
		}
	})
	return raw
}

// MouseOpen is false: programs on a pty see no pointer events.
func (p *Pty) MouseOpen() bool { return false }

func (p *Pty) Send(s string) {
	if _, err := io.WriteString(p.f, s); err != nil {
		p.log.Debug("pty write", "error", err)
	}
}

func (p *Pty) Key(k display.Key) {
	if b := encodeKey(k); len(b) > 0 {
		if _, err := p.f.Write(b); err != nil {
			p.log.Debug("pty write", "error", err)
		}
	}
}

func (p *Pty) Mouse(m display.Mouse) {
	if p.mouse(m) {
		p.notify()
	}
}

func (p *Pty) Resize(r image.Rectangle) {
	cols, rows := p.resize(r)
	if err := pty.Setsize(p.f, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)}); err != nil {
		p.log.Debug("pty resize", "error", err)
	}
}

func (p *Pty) Updated() <-chan struct{} { return p.updated }
func (p *Pty) Exited() <-chan struct{}  { return p.exited }

// Hangup sends SIGHUP to the program's process group.
func (p *Pty) Hangup() error {
	return wm.Terminate(p.Pid())
}

func (p *Pty) Close() error {
	var err error
	p.closeOnce.Do(func() { err = p.f.Close() })
	return err
}

// Adopted is a window for a process started elsewhere. It has no terminal:
// input is dropped and the process is polled until it exits.
type Adopted struct {
	*view
	pid  int
	log  *slog.Logger
	poll time.Duration

	updated   chan struct{}
	exited    chan struct{}
	stop      chan struct{}
	closeOnce sync.Once
}

func adopt(pid int, v *view, logger *slog.Logger) (*Adopted, error) {
	if err := unix.Kill(pid, 0); err != nil && !errors.Is(err, unix.EPERM) {
		return nil, fmt.Errorf("failed to adopt pid %d: %w", pid, err)
	}
	a := &Adopted{
		view:    v,
		pid:     pid,
		log:     logger,
		poll:    time.Second,
		updated: make(chan struct{}, 1),
		exited:  make(chan struct{}),
		stop:    make(chan struct{}),
	}
	go a.watch()
	return a, nil
}

func (a *Adopted) watch() {
	t := time.NewTicker(a.poll)
	defer t.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-t.C:
			if err := unix.Kill(a.pid, 0); errors.Is(err, unix.ESRCH) {
				a.log.Debug("adopted process gone", "pid", a.pid)
				close(a.exited)
				return
			}
		}
	}
}

func (a *Adopted) Pid() int                 { return a.pid }
func (a *Adopted) Rawing() bool             { return false }
func (a *Adopted) MouseOpen() bool          { return false }
func (a *Adopted) Send(string)              {}
func (a *Adopted) Key(display.Key)          {}
func (a *Adopted) Resize(r image.Rectangle) { a.resize(r) }

func (a *Adopted) Mouse(m display.Mouse) {
	if a.mouse(m) {
		select {
		case a.updated <- struct{}{}:
		default:
		}
	}
}

func (a *Adopted) Updated() <-chan struct{} { return a.updated }
func (a *Adopted) Exited() <-chan struct{}  { return a.exited }

func (a *Adopted) Hangup() error {
	return wm.Terminate(a.pid)
}

func (a *Adopted) Close() error {
	a.closeOnce.Do(func() { close(a.stop) })
	return nil
}
