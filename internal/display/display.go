// Package display defines the narrow interfaces between the window manager
// engine and a concrete screen: surfaces, the pointer and keyboard feeds,
// cursors and popup menus.
package display

import (
	"errors"
	"image"

	"github.com/1broseidon/riotile/internal/geom"
)

// Pointer button masks.
const (
	Button1    = 1 << 0
	Button2    = 1 << 1
	Button3    = 1 << 2
	ScrollUp   = 1 << 3
	ScrollDown = 1 << 4
	// ButtonKeyboard toggles the keyboard helper window.
	ButtonKeyboard = 1 << 5
)

// ErrClosed is returned by backends after Close.
var ErrClosed = errors.New("display closed")

// Mouse is one pointer sample in screen coordinates.
type Mouse struct {
	image.Point
	Buttons int
	Msec    uint32
}

// Mod is a keyboard modifier mask.
type Mod uint16

const (
	ModShift Mod = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Key is a decoded keystroke. Rune is zero for keys without a text
// representation; Name always holds the key's symbolic name.
type Key struct {
	Rune rune
	Name string
	Mods Mod
}

// Cursor selects one of the pointer images the window manager uses.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorCross
	CursorBox
	CursorSight
	// CursorCorner0 is the first of nine border cursors, indexed like
	// geom.TopLeft..geom.BottomRight.
	CursorCorner0
)

// CornerCursor returns the resize cursor for a border zone. The center zone
// maps to the default cursor.
func CornerCursor(which int) Cursor {
	if which < 0 || which > 8 || which == geom.Center {
		return CursorDefault
	}
	return CursorCorner0 + Cursor(which)
}

func (c Cursor) String() string {
	switch c {
	case CursorDefault:
		return "default"
	case CursorCross:
		return "cross"
	case CursorBox:
		return "box"
	case CursorSight:
		return "sight"
	}
	if c >= CursorCorner0 && c <= CursorCorner0+8 {
		return [...]string{"top-left", "top", "top-right", "left", "center", "right", "bottom-left", "bottom", "bottom-right"}[c-CursorCorner0]
	}
	return "unknown"
}

// Frame is what a window actor asks its surface to show.
type Frame struct {
	Label   string
	Lines   []string
	Current bool
	// Selected is the selected line range, end exclusive; equal values mean
	// no selection.
	SelStart, SelEnd int
}

// Surface is a backing image for one window. An onscreen surface is
// composited at Rect; a detached one keeps its contents off the screen.
type Surface interface {
	Rect() image.Rectangle
	Name() string
	Onscreen() bool
	Draw(f Frame) error
}

// Display is the process-wide screen. Implementations must be safe for use
// from several goroutines: the dispatcher allocates and raises surfaces while
// window actors draw into and free their own.
type Display interface {
	Bounds() image.Rectangle
	Metrics() geom.Metrics

	Alloc(r image.Rectangle, onscreen bool) (Surface, error)
	// Free releases s; a nil surface is ignored.
	Free(s Surface)
	Raise(s Surface)
	// Offscreen moves the named surface off the visible screen. It reports
	// false if no live surface has that name.
	Offscreen(name string) bool

	// Outline shows the rubber-band rectangle of a modal operation; an empty
	// rectangle removes it.
	Outline(r image.Rectangle)
	SetCursor(c Cursor)
	MoveCursor(p image.Point)
	Flush() error

	// Reattach re-acquires the screen after a resize and returns its new
	// bounds.
	Reattach() (image.Rectangle, error)

	// Menu shows a popup menu for the given button and returns the selected
	// index or -1. It may read pointer samples from mc and must leave mc
	// holding the state after the menu closed.
	Menu(button int, mc *Mousectl, items []string) int
}

// Backend is a Display plus its input feeds.
type Backend interface {
	Display
	Mouse() <-chan Mouse
	Keys() <-chan Key
	Resize() <-chan struct{}
	Close() error
}
