package wm

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
)

// Command describes the program to run in a new window. A non-zero Pid
// adopts a running process instead of starting one.
type Command struct {
	Pid  int
	Path string
	Args []string
	Dir  string
}

// Spawner starts the program behind a window.
type Spawner interface {
	Spawn(w *Window, cmd Command) (Client, error)
}

// Snarfer is the system clipboard.
type Snarfer interface {
	Get() string
	Put(s string)
}

// Plumber forwards a selection to other applications.
type Plumber interface {
	Plumb(text, dir string) error
}

// Options configure an Engine.
type Options struct {
	Shell      string
	ShellArgs  []string
	Scrolling  bool
	EnableExit bool
	HiddenCap  int
	// DeleteGrace is how long a deleted window may stay on screen before
	// its surface is moved off it.
	DeleteGrace time.Duration
}

// Engine is the dispatcher: it owns the registry, the input focus and every
// geometry decision, and serializes them on one goroutine.
type Engine struct {
	log     *slog.Logger
	disp    display.Display
	mc      *display.Mousectl
	metrics geom.Metrics
	opts    Options

	reg     *Registry
	spawner Spawner
	snarf   Snarfer
	plumb   Plumber
	down    *Shutdown

	reqc    chan request
	closec  chan *Window
	stopped chan struct{}

	view   image.Rectangle
	nextID int

	state     State
	sending   bool
	scrolling bool
	moving    bool
	wkeyboard *Window
}

type request struct {
	fn   func() error
	errc chan error
}

// Deps are the collaborators of an Engine.
type Deps struct {
	Display  display.Display
	Mouse    *display.Mousectl
	Spawner  Spawner
	Snarf    Snarfer
	Plumb    Plumber
	Shutdown *Shutdown
	Logger   *slog.Logger
}

// NewEngine builds an engine over a display.
func NewEngine(d Deps, opts Options) *Engine {
	if opts.HiddenCap <= 0 {
		opts.HiddenCap = 32
	}
	if opts.Shell == "" {
		opts.Shell = "/bin/sh"
	}
	if opts.DeleteGrace <= 0 {
		opts.DeleteGrace = 750 * time.Millisecond
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		log:     logger,
		disp:    d.Display,
		mc:      d.Mouse,
		metrics: d.Display.Metrics(),
		opts:    opts,
		reg:     NewRegistry(opts.HiddenCap),
		spawner: d.Spawner,
		snarf:   d.Snarf,
		plumb:   d.Plumb,
		down:    d.Shutdown,
		reqc:    make(chan request),
		closec:  make(chan *Window, 64),
		stopped: make(chan struct{}),
		view:    d.Display.Bounds(),
	}
	if e.down != nil {
		e.down.reg = e.reg
	}
	return e
}

// Registry returns the engine's window registry.
func (e *Engine) Registry() *Registry {
	return e.reg
}

// Run dispatches pointer, resize and control events until ctx is done or
// the pointer feed ends. A failure to reattach the display is returned and
// is fatal to the caller.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)
	e.log.Info("dispatcher started", "screen", e.view)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.mc.Resize:
			if err := e.resized(); err != nil {
				return err
			}
		case m, ok := <-e.mc.C:
			if !ok {
				return nil
			}
			e.mc.Mouse = m
			e.handleMouse()
		case req := <-e.reqc:
			req.errc <- req.fn()
		case w := <-e.closec:
			e.unlink(w)
		}
	}
}

// Exec runs fn on the dispatcher and returns its error. ctx only bounds
// the wait for the dispatcher to accept fn: once accepted, fn runs to
// completion and Exec reports its result.
func (e *Engine) Exec(ctx context.Context, fn func() error) error {
	req := request{fn: fn, errc: make(chan error, 1)}
	select {
	case e.reqc <- req:
	case <-e.stopped:
		return ErrShuttingDown
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-req.errc
}

func (e *Engine) flush() {
	if err := e.disp.Flush(); err != nil {
		e.log.Warn("flush display", "error", err)
	}
}

// sendCtl records the window's new geometry and hands it the surface.
func (e *Engine) sendCtl(w *Window, kind MsgKind, r image.Rectangle, s display.Surface) {
	switch kind {
	case Reshaped, Moved:
		w.screenr = r
		w.surf = s
		if r.Empty() && e.reg.Input() == w {
			e.reg.SetInput(nil)
		}
	}
	w.sendCtl(CtlMsg{Kind: kind, Rect: r, Surface: s})
}

// restack raises the onscreen surfaces in z-order so the display agrees
// with the topped ranks after surfaces were reallocated in bulk.
func (e *Engine) restack() {
	ws := e.reg.Windows()
	slices.SortStableFunc(ws, func(a, b *Window) int { return a.topped - b.topped })
	for _, w := range ws {
		if w.surf != nil && !w.screenr.Empty() && !w.Deleted() {
			e.disp.Raise(w.surf)
		}
	}
}

// geometry returns the rectangle of w's current surface, which is kept
// while the window is hidden.
func (w *Window) geometry() image.Rectangle {
	if w.surf == nil {
		return w.screenr
	}
	return w.surf.Rect()
}

// current moves the input focus to w and wakes the old and new holders.
func (e *Engine) current(w *Window) {
	if e.wkeyboard != nil && w == e.wkeyboard {
		return
	}
	old := e.reg.Input()
	e.reg.SetInput(w)
	if old != nil && old != w && !old.Deleted() {
		old.Borrow(func(old *Window) { old.sendCtl(CtlMsg{Kind: Wakeup}) })
	}
	if w != nil && w != old {
		w.Borrow(func(w *Window) { w.sendCtl(CtlMsg{Kind: Wakeup}) })
	}
}

// topMe raises w above every other window.
func (e *Engine) topMe(w *Window) {
	if w == nil || w.screenr.Empty() || e.reg.Topmost(w) {
		return
	}
	e.reg.Raise(w)
	if w.surf != nil {
		e.disp.Raise(w.surf)
	}
	e.flush()
}

// top raises and focuses the window under p.
func (e *Engine) top(p image.Point) *Window {
	w := e.reg.PointTo(p)
	if w != nil {
		e.topMe(w)
		e.current(w)
	}
	return w
}

// NewWindowRequest is everything needed to create a window.
type NewWindowRequest struct {
	Rect image.Rectangle
	// AutoRect places the window at the default rectangle and ignores Rect.
	AutoRect  bool
	Hidden    bool
	Scrolling bool
	Command   Command
	Label     string
}

// NewWindow creates a window at r, starts its actor and its program, and
// focuses it unless hidden. On failure the partially built window is torn
// down through the normal delete path.
func (e *Engine) NewWindow(req NewWindowRequest) (*Window, error) {
	if req.Hidden && e.reg.HiddenFull() {
		return nil, ErrHiddenFull
	}
	s, err := e.disp.Alloc(req.Rect, !req.Hidden)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSurface, err)
	}
	e.nextID++
	w := newWindow(e, e.nextID, req.Scrolling)
	w.label = req.Label
	w.surf = s
	e.reg.Register(w)
	e.reg.Raise(w)
	if req.Hidden {
		_ = e.reg.Hide(w)
	} else {
		w.screenr = req.Rect
	}
	go w.serve(s, w.screenr)
	if !req.Hidden {
		e.current(w)
	}

	cmd := req.Command
	if cmd.Pid == 0 && cmd.Path == "" {
		cmd.Path = e.opts.Shell
		if cmd.Args == nil {
			cmd.Args = e.opts.ShellArgs
		}
	}
	if e.spawner == nil {
		err = errors.New("no spawner")
	} else {
		var c Client
		c, err = e.spawner.Spawn(w, cmd)
		if err == nil {
			w.attach(c, c.Pid(), filepath.Base(cmd.Path), cmd.Dir)
			// The actor picks up the client's channels on its next turn.
			w.sendCtl(CtlMsg{Kind: Wakeup})
		}
	}
	if err != nil {
		e.log.Warn("start window program", "window", w.id, "command", cmd.Path, "error", err)
		w.sendCtl(CtlMsg{Kind: Deleted})
		return nil, fmt.Errorf("start %s: %w", cmd.Path, err)
	}
	e.log.Info("window created", "window", w.id, "pid", w.Pid(), "rect", req.Rect, "hidden", req.Hidden)
	e.flush()
	return w, nil
}

// StartKeyboard creates the keyboard helper window at the top left corner
// of the screen, running cmd through the shell.
func (e *Engine) StartKeyboard(cmd string) error {
	w, err := e.NewWindow(NewWindowRequest{
		Rect:      e.defaultRect(),
		Scrolling: e.opts.Scrolling,
		Command:   Command{Path: e.opts.Shell, Args: []string{"-c", cmd}},
		Label:     "keyboard",
	})
	if err != nil {
		return err
	}
	e.wkeyboard = w
	return nil
}

// hide moves w into the hidden set with a detached surface.
func (e *Engine) hide(w *Window) error {
	if e.reg.IsHidden(w) {
		return ErrAlreadyHidden
	}
	if e.reg.HiddenFull() {
		return ErrHiddenFull
	}
	var err error
	w.Borrow(func(w *Window) {
		var s display.Surface
		s, err = e.disp.Alloc(w.geometry(), false)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrNoSurface, err)
			return
		}
		if err = e.reg.Hide(w); err != nil {
			e.disp.Free(s)
			return
		}
		e.sendCtl(w, Reshaped, image.Rectangle{}, s)
	})
	e.flush()
	return err
}

// unhide returns w from the hidden set to the rectangle it last had.
func (e *Engine) unhide(w *Window) error {
	if !e.reg.IsHidden(w) {
		return ErrNotHidden
	}
	var err error
	w.Borrow(func(w *Window) {
		r := w.geometry()
		var s display.Surface
		s, err = e.disp.Alloc(r, true)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrNoSurface, err)
			return
		}
		_ = e.reg.Unhide(w)
		e.sendCtl(w, Reshaped, r, s)
		e.topMe(w)
		e.current(w)
	})
	e.flush()
	return err
}

// unlinkLater asks the dispatcher to drop a deleted window.
func (e *Engine) unlinkLater(w *Window) {
	select {
	case e.closec <- w:
		return
	default:
	}
	go func() {
		select {
		case e.closec <- w:
		case <-e.stopped:
		}
	}()
}

// unlink removes a deleted window from the registry and drops the
// registry's reference. If the window's program still holds the surface
// after the grace delay, the surface is moved off screen.
func (e *Engine) unlink(w *Window) {
	if e.reg.Lookup(w.id) != w {
		return
	}
	if e.wkeyboard == w {
		e.wkeyboard = nil
	}
	e.reg.Unregister(w)
	if w.surf != nil && !w.screenr.Empty() {
		name := w.surf.Name()
		time.AfterFunc(e.opts.DeleteGrace, func() {
			if e.disp.Offscreen(name) {
				e.flush()
			}
		})
	}
	e.log.Info("window deleted", "window", w.id, "pid", w.Pid())
	w.Release()
}

// resized reattaches the display after a screen change and rescales every
// window to the new bounds.
func (e *Engine) resized() error {
	nr, err := e.disp.Reattach()
	if err != nil {
		return fmt.Errorf("failed to re-attach display: %w", err)
	}
	o := e.view.Size()
	n := nr.Size()
	e.reg.SortByTopped()
	for _, w := range e.reg.Windows() {
		if w.Deleted() {
			continue
		}
		w.Borrow(func(w *Window) {
			old := w.geometry().Sub(e.view.Min)
			r := geom.Scale(old, o, n).Add(nr.Min)
			if !geom.GoodRect(r, nr, e.metrics) {
				r = old.Add(nr.Min)
			}
			hidden := e.reg.IsHidden(w)
			s, err := e.disp.Alloc(r, !hidden)
			if err != nil {
				e.log.Warn("reshape: allocate surface", "window", w.id, "error", err)
				return
			}
			if hidden {
				r = image.Rectangle{}
			}
			e.sendCtl(w, Reshaped, r, s)
		})
	}
	e.log.Info("display reattached", "from", e.view, "to", nr)
	e.view = nr
	e.restack()
	e.flush()
	return nil
}
