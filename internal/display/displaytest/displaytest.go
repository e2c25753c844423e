// Package displaytest provides an in-memory display and scripted pointer
// input for exercising the window manager without a screen.
package displaytest

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
)

// ErrAllocFailed is returned by Alloc when allocation failure is armed.
var ErrAllocFailed = errors.New("displaytest: allocation failed")

// Surface is an in-memory surface.
type Surface struct {
	name     string
	rect     image.Rectangle
	onscreen bool

	mu        sync.Mutex
	offscreen bool
	frames    int
	last      display.Frame
}

func (s *Surface) Rect() image.Rectangle { return s.rect }
func (s *Surface) Name() string          { return s.name }
func (s *Surface) Onscreen() bool        { return s.onscreen }

func (s *Surface) Draw(f display.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	s.last = f
	return nil
}

// LastFrame returns the most recently drawn frame and the number of draws.
func (s *Surface) LastFrame() (display.Frame, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.frames
}

// Display records every call made by the window manager.
type Display struct {
	mu       sync.Mutex
	bounds   image.Rectangle
	metrics  geom.Metrics
	serial   int
	live     map[string]*Surface
	frees    map[string]int
	stack    []string
	failNext int

	Outlines []image.Rectangle
	Cursors  []display.Cursor
	Moves    []image.Point
	Flushes  int
	Menus    [][]string

	menuChoices []int
	reattach    []image.Rectangle
	reattachErr error
}

// New returns a display of the given bounds with default pixel metrics.
func New(bounds image.Rectangle) *Display {
	return &Display{
		bounds:  bounds,
		metrics: geom.DefaultMetrics(),
		live:    make(map[string]*Surface),
		frees:   make(map[string]int),
	}
}

// SetMetrics replaces the display metrics.
func (d *Display) SetMetrics(m geom.Metrics) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.metrics = m
}

// FailAllocs makes the next n allocations fail.
func (d *Display) FailAllocs(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
}

// ChooseMenu queues the results of the next Menu calls.
func (d *Display) ChooseMenu(choices ...int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.menuChoices = append(d.menuChoices, choices...)
}

// QueueReattach sets the bounds returned by the next Reattach.
func (d *Display) QueueReattach(r image.Rectangle, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reattach = append(d.reattach, r)
	d.reattachErr = err
}

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

func (d *Display) Alloc(r image.Rectangle, onscreen bool) (display.Surface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failNext > 0 {
		d.failNext--
		return nil, ErrAllocFailed
	}
	d.serial++
	s := &Surface{name: fmt.Sprintf("s%d", d.serial), rect: r, onscreen: onscreen}
	d.live[s.name] = s
	if onscreen {
		d.stack = append(d.stack, s.name)
	}
	return s, nil
}

func (d *Display) Free(ds display.Surface) {
	s, ok := ds.(*Surface)
	if !ok || s == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frees[s.Name()]++
	delete(d.live, s.Name())
	d.unstack(s.Name())
}

func (d *Display) unstack(name string) {
	for i, n := range d.stack {
		if n == name {
			d.stack = append(d.stack[:i], d.stack[i+1:]...)
			return
		}
	}
}

func (d *Display) Raise(s display.Surface) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.live[s.Name()]; !ok || !s.Onscreen() {
		return
	}
	d.unstack(s.Name())
	d.stack = append(d.stack, s.Name())
}

func (d *Display) Offscreen(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.live[name]
	if !ok {
		return false
	}
	s.mu.Lock()
	s.offscreen = true
	s.mu.Unlock()
	return true
}

func (d *Display) Outline(r image.Rectangle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Outlines = append(d.Outlines, r)
}

func (d *Display) SetCursor(c display.Cursor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Cursors = append(d.Cursors, c)
}

func (d *Display) MoveCursor(p image.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Moves = append(d.Moves, p)
}

func (d *Display) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Flushes++
	return nil
}

func (d *Display) Reattach() (image.Rectangle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.reattachErr != nil {
		return image.Rectangle{}, d.reattachErr
	}
	if len(d.reattach) > 0 {
		d.bounds = d.reattach[0]
		d.reattach = d.reattach[1:]
	}
	return d.bounds, nil
}

// Menu returns the next queued choice, or -1. Like a real menu it consumes
// pointer samples until the buttons are released.
func (d *Display) Menu(button int, mc *display.Mousectl, items []string) int {
	d.mu.Lock()
	d.Menus = append(d.Menus, append([]string(nil), items...))
	choice := -1
	if len(d.menuChoices) > 0 {
		choice = d.menuChoices[0]
		d.menuChoices = d.menuChoices[1:]
	}
	d.mu.Unlock()
	mc.Drain()
	if choice >= len(items) {
		return -1
	}
	return choice
}

// Frees returns how many times the named surface was freed.
func (d *Display) Frees(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frees[name]
}

// Live returns the number of allocated, unfreed surfaces.
func (d *Display) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.live)
}

// IsOffscreen reports whether the named surface was moved off the screen.
func (d *Display) IsOffscreen(name string) bool {
	d.mu.Lock()
	s, ok := d.live[name]
	d.mu.Unlock()
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offscreen
}

// Stack returns the onscreen surfaces bottom to top.
func (d *Display) Stack() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.stack...)
}

// LastCursor returns the most recently set cursor.
func (d *Display) LastCursor() display.Cursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Cursors) == 0 {
		return display.CursorDefault
	}
	return d.Cursors[len(d.Cursors)-1]
}

// Script returns a pointer feed that yields the given samples and then
// ends. The first sample is already current.
func Script(samples ...display.Mouse) *display.Mousectl {
	c := make(chan display.Mouse, len(samples))
	for _, m := range samples[min(1, len(samples)):] {
		c <- m
	}
	close(c)
	mc := display.NewMousectl(c, nil)
	if len(samples) > 0 {
		mc.Mouse = samples[0]
	}
	return mc
}

// M builds a pointer sample.
func M(x, y, buttons int) display.Mouse {
	return display.Mouse{Point: image.Pt(x, y), Buttons: buttons}
}
