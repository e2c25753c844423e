package x11

import (
	"fmt"
	"image"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/riotile/internal/display"
)

// Colors, as 24-bit pixels on a TrueColor visual.
const (
	colorBackground    = 0x777777
	colorPaper         = 0xffffea
	colorText          = 0x000000
	colorBorderCurrent = 0x2e5f5f
	colorBorder        = 0x9eaeae
	colorScroll        = 0x99994c
	colorSelection     = 0xeeee9e
	colorOutline       = 0xcc3333
)

// textPad separates the scroll bar from the text.
const textPad = 4

// surface is a child window of the canvas.
type surface struct {
	d    *Display
	win  xproto.Window
	rect image.Rectangle
	name string

	mu       sync.Mutex
	onscreen bool
	frame    display.Frame
	drawn    bool
	label    string
}

func (s *surface) Rect() image.Rectangle { return s.rect }
func (s *surface) Name() string          { return s.name }

func (s *surface) Onscreen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onscreen
}

func (s *surface) setOnscreen(on bool) {
	s.mu.Lock()
	s.onscreen = on
	s.mu.Unlock()
}

// Draw records f and paints it. An unmapped surface repaints on its next
// Expose.
func (s *surface) Draw(f display.Frame) error {
	s.mu.Lock()
	s.frame = f
	s.drawn = true
	on := s.onscreen
	relabel := f.Label != s.label
	s.label = f.Label
	s.mu.Unlock()

	if relabel {
		if err := ewmh.WmNameSet(s.d.conn.XUtil, s.win, f.Label); err != nil {
			return fmt.Errorf("label %s: %w", s.name, err)
		}
	}
	if !on {
		return nil
	}
	s.paint()
	return nil
}

func (s *surface) expose(_ *xgbutil.XUtil, ev xevent.ExposeEvent) {
	// Only the last of a burst of exposures repaints.
	if ev.Count == 0 {
		s.paint()
	}
}

func (s *surface) paint() {
	s.mu.Lock()
	f, drawn := s.frame, s.drawn
	s.mu.Unlock()
	if !drawn {
		return
	}
	s.d.paintFrame(s.win, s.rect.Size(), f)
}

// borderRects returns the four border strips of a window of the given size.
func borderRects(size image.Point, width int) []image.Rectangle {
	if width <= 0 {
		return nil
	}
	return []image.Rectangle{
		image.Rect(0, 0, size.X, width),
		image.Rect(0, size.Y-width, size.X, size.Y),
		image.Rect(0, width, width, size.Y-width),
		image.Rect(size.X-width, width, size.X, size.Y-width),
	}
}

// latin1 converts s for ImageText8: at most n single-byte characters, with
// tabs as spaces and anything outside Latin-1 as '?'.
func latin1(s string, n int) string {
	n = min(n, 255)
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, min(len(s), n))
	for _, r := range s {
		if len(out) == n {
			break
		}
		switch {
		case r == '\t':
			out = append(out, ' ')
		case r < 0x20 || r == 0x7f:
			out = append(out, '?')
		case r < 0x100:
			out = append(out, byte(r))
		default:
			out = append(out, '?')
		}
	}
	return string(out)
}

func xrects(rs []image.Rectangle) []xproto.Rectangle {
	out := make([]xproto.Rectangle, 0, len(rs))
	for _, r := range rs {
		if r.Empty() {
			continue
		}
		out = append(out, xproto.Rectangle{
			X:      int16(r.Min.X),
			Y:      int16(r.Min.Y),
			Width:  uint16(r.Dx()),
			Height: uint16(r.Dy()),
		})
	}
	return out
}

// paintFrame draws f into win: border, scroll bar, then the visible lines
// with the selection highlighted.
func (d *Display) paintFrame(win xproto.Window, size image.Point, f display.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn := d.conn.XUtil.Conn()
	m := d.metrics

	xproto.ClearArea(conn, false, win, 0, 0, 0, 0)

	border := uint32(colorBorder)
	if f.Current {
		border = colorBorderCurrent
	}
	d.fill(win, border, borderRects(size, m.Border)...)
	d.fill(win, colorScroll, image.Rect(m.Border, m.Border, m.Border+m.ScrollWidth, size.Y-m.Border))

	x0 := m.Border + m.ScrollWidth + textPad
	cols := (size.X - x0 - m.Border) / max(d.charWidth, 1)
	rows := (size.Y - 2*m.Border) / max(m.FontHeight, 1)
	for i, line := range f.Lines {
		if i >= rows {
			break
		}
		y := m.Border + i*m.FontHeight
		bg := uint32(colorPaper)
		if i >= f.SelStart && i < f.SelEnd {
			bg = colorSelection
			d.fill(win, bg, image.Rect(x0, y, size.X-m.Border, y+m.FontHeight))
		}
		d.text(win, bg, x0, y+d.ascent, latin1(line, cols))
	}
}

func (d *Display) fill(win xproto.Window, color uint32, rs ...image.Rectangle) {
	xr := xrects(rs)
	if len(xr) == 0 {
		return
	}
	conn := d.conn.XUtil.Conn()
	xproto.ChangeGC(conn, d.gc, xproto.GcForeground, []uint32{color})
	xproto.PolyFillRectangle(conn, xproto.Drawable(win), d.gc, xr)
}

func (d *Display) text(win xproto.Window, bg uint32, x, y int, s string) {
	if s == "" {
		return
	}
	conn := d.conn.XUtil.Conn()
	xproto.ChangeGC(conn, d.gc, xproto.GcForeground|xproto.GcBackground, []uint32{colorText, bg})
	xproto.ImageText8(conn, byte(len(s)), xproto.Drawable(win), d.gc, int16(x), int16(y), s)
}
