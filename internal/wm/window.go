package wm

import (
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/riotile/internal/display"
)

// MsgKind names a window control message.
type MsgKind int

const (
	// Reshaped gives the window a new rectangle and surface. An empty
	// rectangle means the window is hidden and the surface is detached.
	Reshaped MsgKind = iota
	// Moved is Reshaped for a pure translation.
	Moved
	// Deleted asks the window to close.
	Deleted
	// Wakeup asks the window to redraw after a change it cannot see.
	Wakeup
	// exited is sent when the last reference is released.
	exited
)

func (k MsgKind) String() string {
	switch k {
	case Reshaped:
		return "reshaped"
	case Moved:
		return "moved"
	case Deleted:
		return "deleted"
	case Wakeup:
		return "wakeup"
	case exited:
		return "exited"
	default:
		return fmt.Sprintf("MsgKind(%d)", int(k))
	}
}

// CtlMsg is one message on a window's control channel. The surface, when
// present, belongs to the window once sent.
type CtlMsg struct {
	Kind    MsgKind
	Rect    image.Rectangle
	Surface display.Surface
}

// ctlDepth bounds the control channel; a full channel blocks the sender.
const ctlDepth = 4

// Content is the text of a window as operated on by the button 2 menu.
type Content interface {
	Selection() string
	// Cut removes the selection and returns it.
	Cut() string
	// Paste replaces the selection with s.
	Paste(s string)
	// Send delivers s to the program at the end of the text, raw when the
	// program reads raw input.
	Send(s string)
	// Look selects the next occurrence of the selection and reports whether
	// one was found.
	Look() bool
	SetScrolling(on bool)
}

// Client is the program attached to a window together with its text.
type Client interface {
	Content
	Pid() int
	Rawing() bool
	// MouseOpen reports whether the program asked for raw pointer events.
	MouseOpen() bool
	Key(k display.Key)
	// Mouse receives a pointer sample in window coordinates.
	Mouse(m display.Mouse)
	Resize(r image.Rectangle)
	Frame() display.Frame
	// Updated fires when the content changed and the window should redraw.
	Updated() <-chan struct{}
	// Exited is closed when the program is gone.
	Exited() <-chan struct{}
	Hangup() error
	Close() error
}

// Window is one managed window. Geometry, z-order and surface bookkeeping
// belong to the dispatcher; the window's actor owns the client and the
// surface it was last sent.
type Window struct {
	id  int
	eng *Engine

	ctl   chan CtlMsg
	kbd   chan display.Key
	mouse chan display.Mouse
	done  chan struct{}

	refs    atomic.Int32
	deleted atomic.Bool

	// Dispatcher state.
	topped  int
	screenr image.Rectangle
	surf    display.Surface

	mu        sync.Mutex
	pid       int
	label     string
	dir       string
	scrolling bool
	client    Client
}

func newWindow(e *Engine, id int, scrolling bool) *Window {
	w := &Window{
		id:        id,
		eng:       e,
		ctl:       make(chan CtlMsg, ctlDepth),
		kbd:       make(chan display.Key, 32),
		mouse:     make(chan display.Mouse, 32),
		done:      make(chan struct{}),
		scrolling: scrolling,
	}
	w.refs.Store(1)
	return w
}

// ID returns the window's identifier.
func (w *Window) ID() int { return w.id }

func (w *Window) Pid() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pid
}

func (w *Window) Label() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.label
}

// SetLabel renames the window.
func (w *Window) SetLabel(label string) {
	w.mu.Lock()
	w.label = label
	w.mu.Unlock()
}

func (w *Window) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

func (w *Window) Scrolling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scrolling
}

// Client returns the attached client, or nil before the program started.
func (w *Window) Client() Client {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.client
}

func (w *Window) attach(c Client, pid int, label, dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.client = c
	w.pid = pid
	if w.label == "" {
		w.label = label
	}
	w.dir = dir
	c.SetScrolling(w.scrolling)
}

// MouseOpen reports whether the program reads raw pointer events.
func (w *Window) MouseOpen() bool {
	c := w.Client()
	return c != nil && c.MouseOpen()
}

// Rawing reports whether the program reads raw keyboard input.
func (w *Window) Rawing() bool {
	c := w.Client()
	return c != nil && c.Rawing()
}

// Deleted reports whether the window has started closing.
func (w *Window) Deleted() bool {
	return w.deleted.Load()
}

// Refs returns the current reference count.
func (w *Window) Refs() int {
	return int(w.refs.Load())
}

// Acquire takes a reference. The caller must already hold one, directly or
// through the registry.
func (w *Window) Acquire() {
	if w.refs.Add(1) <= 1 {
		panic(fmt.Sprintf("wm: acquire of released window %d", w.id))
	}
}

// Release drops a reference and reports whether it was the last one. The
// last release tells the window's actor to free its surface and exit.
func (w *Window) Release() bool {
	n := w.refs.Add(-1)
	if n < 0 {
		panic(fmt.Sprintf("wm: negative reference count on window %d", w.id))
	}
	if n == 0 {
		w.sendCtl(CtlMsg{Kind: exited})
		return true
	}
	return false
}

// Borrow runs fn holding an extra reference.
func (w *Window) Borrow(fn func(*Window)) {
	w.Acquire()
	defer w.Release()
	fn(w)
}

// Done is closed when the window's actor has exited.
func (w *Window) Done() <-chan struct{} {
	return w.done
}

func (w *Window) sendCtl(m CtlMsg) {
	select {
	case <-w.done:
		w.eng.disp.Free(m.Surface)
		return
	default:
	}
	select {
	case w.ctl <- m:
	case <-w.done:
		w.eng.disp.Free(m.Surface)
	}
}

// SendKey delivers a keystroke to the window's program.
func (w *Window) SendKey(k display.Key) {
	select {
	case w.kbd <- k:
	case <-w.done:
	}
}

func (w *Window) sendMouse(m display.Mouse) {
	select {
	case w.mouse <- m:
	case <-w.done:
	}
}
