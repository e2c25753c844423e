// Package tty implements the display backend on a text terminal with
// tcell. Every unit is one character cell: surfaces are regions of the
// terminal, composited bottom to top on each change.
package tty

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
)

// DefaultMetrics are the sizes used on a terminal, in cells.
func DefaultMetrics() geom.Metrics {
	return geom.Metrics{
		Border:      1,
		Band:        2,
		MinWidth:    12,
		MinLines:    3,
		ScrollWidth: 1,
		FontHeight:  1,
	}
}

// Options configures the terminal backend.
type Options struct {
	Metrics geom.Metrics
	Logger  *slog.Logger
}

// Display is the terminal backend.
type Display struct {
	screen tcell.Screen
	log    *slog.Logger

	mu      sync.Mutex
	bounds  image.Rectangle
	metrics geom.Metrics
	// order holds every live surface, bottom first.
	order   []*surface
	nextID  int
	outline image.Rectangle
	popup   *popup
	cursor  display.Cursor
	pointer image.Point
	lastHit map[int]int

	mouse     chan display.Mouse
	keys      chan display.Key
	resize    chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ display.Backend = (*Display)(nil)

// Open takes over the controlling terminal.
func Open(opts Options) (*Display, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("open terminal: %w", err)
	}
	return New(s, opts)
}

// New runs the backend on an uninitialized screen.
func New(s tcell.Screen, opts Options) (*Display, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("init terminal: %w", err)
	}
	s.EnableMouse(tcell.MouseMotionEvents | tcell.MouseDragEvents | tcell.MouseButtonEvents)
	s.HideCursor()

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	m := opts.Metrics
	if m == (geom.Metrics{}) {
		m = DefaultMetrics()
	}
	w, h := s.Size()
	d := &Display{
		screen:  s,
		log:     logger,
		bounds:  image.Rect(0, 0, w, h),
		metrics: m,
		lastHit: make(map[int]int),
		mouse:   make(chan display.Mouse, 64),
		keys:    make(chan display.Key, 16),
		resize:  make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	d.mu.Lock()
	d.redraw()
	d.mu.Unlock()
	go d.loop()
	logger.Info("terminal display opened", "bounds", d.bounds)
	return d, nil
}

func (d *Display) loop() {
	defer func() {
		close(d.mouse)
		close(d.keys)
		close(d.done)
	}()
	for {
		switch ev := d.screen.PollEvent().(type) {
		case nil:
			return
		case *tcell.EventResize:
			select {
			case d.resize <- struct{}{}:
			default:
			}
		case *tcell.EventKey:
			k, ok := keyFromEvent(ev)
			if !ok {
				continue
			}
			select {
			case d.keys <- k:
			case <-d.quit:
				return
			}
		case *tcell.EventMouse:
			x, y := ev.Position()
			m := display.Mouse{
				Point:   image.Pt(x, y),
				Buttons: buttons(ev.Buttons()),
				Msec:    uint32(ev.When().UnixMilli()),
			}
			d.mu.Lock()
			d.pointer = m.Point
			d.showCursor()
			d.mu.Unlock()
			select {
			case d.mouse <- m:
			case <-d.quit:
				return
			}
		}
	}
}

func (d *Display) Mouse() <-chan display.Mouse { return d.mouse }
func (d *Display) Keys() <-chan display.Key    { return d.keys }
func (d *Display) Resize() <-chan struct{}     { return d.resize }

func (d *Display) Bounds() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bounds
}

func (d *Display) Metrics() geom.Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metrics
}

// CharWidth is one cell.
func (d *Display) CharWidth() int { return 1 }

func (d *Display) Alloc(r image.Rectangle, onscreen bool) (display.Surface, error) {
	if r.Empty() {
		return nil, fmt.Errorf("alloc %v: empty rectangle", r)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	s := &surface{
		d:        d,
		rect:     r,
		name:     fmt.Sprintf("tty.%d", d.nextID),
		onscreen: onscreen,
	}
	d.order = append(d.order, s)
	if onscreen {
		d.redraw()
	}
	return s, nil
}

func (d *Display) Free(ds display.Surface) {
	s, ok := ds.(*surface)
	if !ok || s == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.Index(d.order, s)
	if i < 0 {
		return
	}
	d.order = slices.Delete(d.order, i, i+1)
	if s.onscreen {
		d.redraw()
	}
}

func (d *Display) Raise(ds display.Surface) {
	s, ok := ds.(*surface)
	if !ok || s == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := slices.Index(d.order, s)
	if i < 0 || i == len(d.order)-1 {
		return
	}
	d.order = append(slices.Delete(d.order, i, i+1), s)
	if s.onscreen {
		d.redraw()
	}
}

func (d *Display) Offscreen(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.order {
		if s.name == name {
			if s.onscreen {
				s.onscreen = false
				d.redraw()
			}
			return true
		}
	}
	return false
}

func (d *Display) Outline(r image.Rectangle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if r == d.outline {
		return
	}
	d.outline = r
	d.redraw()
}

func (d *Display) SetCursor(c display.Cursor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = c
	d.showCursor()
}

// MoveCursor moves the cell cursor; a terminal cannot warp the real
// pointer.
func (d *Display) MoveCursor(p image.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pointer = p
	d.showCursor()
}

func (d *Display) showCursor() {
	style, visible := cursorStyle(d.cursor)
	if !visible {
		d.screen.HideCursor()
		return
	}
	d.screen.SetCursorStyle(style)
	d.screen.ShowCursor(d.pointer.X, d.pointer.Y)
}

func (d *Display) Flush() error {
	select {
	case <-d.quit:
		return display.ErrClosed
	default:
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screen.Show()
	return nil
}

// Reattach picks up the terminal's new size.
func (d *Display) Reattach() (image.Rectangle, error) {
	select {
	case <-d.quit:
		return image.Rectangle{}, display.ErrClosed
	default:
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.screen.Sync()
	w, h := d.screen.Size()
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, fmt.Errorf("reattach: terminal size %dx%d", w, h)
	}
	d.bounds = image.Rect(0, 0, w, h)
	d.redraw()
	return d.bounds, nil
}

// Close restores the terminal. The mouse and key channels are closed once
// the event loop has exited.
func (d *Display) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.quit)
		d.screen.Fini()
		select {
		case <-d.done:
		case <-time.After(2 * time.Second):
			err = errors.New("terminal event loop did not stop")
		}
	})
	return err
}
