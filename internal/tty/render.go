package tty

import (
	"image"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/1broseidon/riotile/internal/display"
)

var (
	stylePaper         = tcell.StyleDefault
	styleBorder        = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleBorderCurrent = tcell.StyleDefault.Foreground(tcell.ColorTeal).Bold(true)
	styleScroll        = tcell.StyleDefault.Background(tcell.ColorOlive)
	styleSelection     = tcell.StyleDefault.Reverse(true)
	styleOutline       = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleMenu          = tcell.StyleDefault.Reverse(true)
	styleMenuHit       = tcell.StyleDefault.Background(tcell.ColorTeal).Foreground(tcell.ColorWhite)
)

// surface is a region of the terminal. Its contents live in the last frame
// drawn into it.
type surface struct {
	d        *Display
	rect     image.Rectangle
	name     string
	onscreen bool
	frame    display.Frame
}

func (s *surface) Rect() image.Rectangle { return s.rect }
func (s *surface) Name() string          { return s.name }

func (s *surface) Onscreen() bool {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.onscreen
}

func (s *surface) Draw(f display.Frame) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.frame = f
	if s.onscreen {
		s.d.redraw()
	}
	return nil
}

type popup struct {
	layout display.MenuLayout
	items  []string
	sel    int
}

// redraw composites the whole screen. d.mu must be held.
func (d *Display) redraw() {
	d.screen.Clear()
	for _, s := range d.order {
		if s.onscreen {
			d.drawSurface(s)
		}
	}
	if !d.outline.Empty() {
		d.box(d.outline, styleOutline)
	}
	if d.popup != nil {
		d.drawPopup(d.popup)
	}
	d.screen.Show()
}

func (d *Display) set(x, y int, r rune, style tcell.Style) {
	if image.Pt(x, y).In(d.bounds) {
		d.screen.SetContent(x, y, r, nil, style)
	}
}

func (d *Display) fill(r image.Rectangle, style tcell.Style) {
	r = r.Intersect(d.bounds)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

// box draws a one-cell frame just inside r.
func (d *Display) box(r image.Rectangle, style tcell.Style) {
	if r.Dx() < 2 || r.Dy() < 2 {
		d.fill(r, style.Reverse(true))
		return
	}
	x0, y0, x1, y1 := r.Min.X, r.Min.Y, r.Max.X-1, r.Max.Y-1
	for x := x0 + 1; x < x1; x++ {
		d.set(x, y0, tcell.RuneHLine, style)
		d.set(x, y1, tcell.RuneHLine, style)
	}
	for y := y0 + 1; y < y1; y++ {
		d.set(x0, y, tcell.RuneVLine, style)
		d.set(x1, y, tcell.RuneVLine, style)
	}
	d.set(x0, y0, tcell.RuneULCorner, style)
	d.set(x1, y0, tcell.RuneURCorner, style)
	d.set(x0, y1, tcell.RuneLLCorner, style)
	d.set(x1, y1, tcell.RuneLRCorner, style)
}

// text writes s from (x, y), clipped to width cells, and returns the
// number of cells used.
func (d *Display) text(x, y, width int, s string, style tcell.Style) int {
	col := 0
	for _, r := range s {
		if r == '\t' {
			r = ' '
		}
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if col+w > width {
			break
		}
		d.set(x+col, y, r, style)
		col += w
	}
	return col
}

func (d *Display) drawSurface(s *surface) {
	m := d.metrics
	r := s.rect
	f := s.frame

	d.fill(r, stylePaper)
	if m.Border > 0 {
		style := styleBorder
		if f.Current {
			style = styleBorderCurrent
		}
		d.box(r, style)
		if f.Label != "" && r.Dx() > 4 {
			label := runewidth.Truncate(" "+f.Label+" ", r.Dx()-4, "…")
			d.text(r.Min.X+2, r.Min.Y, r.Dx()-4, label, style)
		}
	}

	inner := r.Inset(m.Border)
	if inner.Empty() {
		return
	}
	d.fill(image.Rect(inner.Min.X, inner.Min.Y, min(inner.Min.X+m.ScrollWidth, inner.Max.X), inner.Max.Y), styleScroll)

	x0 := inner.Min.X + m.ScrollWidth
	width := inner.Max.X - x0
	if width <= 0 {
		return
	}
	rows := inner.Dy() / max(m.FontHeight, 1)
	for i, line := range f.Lines {
		if i >= rows {
			break
		}
		y := inner.Min.Y + i*m.FontHeight
		style := stylePaper
		if i >= f.SelStart && i < f.SelEnd {
			style = styleSelection
			d.fill(image.Rect(x0, y, inner.Max.X, y+1), style)
		}
		d.text(x0, y, width, line, style)
	}
}

func (d *Display) drawPopup(p *popup) {
	l := p.layout
	d.fill(l.Rect, styleMenu)
	width := l.Rect.Dx() - 2*l.Pad
	for i, it := range p.items {
		row := l.Row(i).Add(l.Rect.Min)
		style := styleMenu
		if i == p.sel {
			style = styleMenuHit
			d.fill(row, style)
		}
		label := runewidth.Truncate(it, width, "…")
		// Center the label like rio's menus.
		x := row.Min.X + l.Pad + (width-runewidth.StringWidth(label))/2
		d.text(x, row.Min.Y, width, label, style)
	}
}

// Menu shows the items in a popup drawn over the surfaces while button is
// held and returns the row released on.
func (d *Display) Menu(button int, mc *display.Mousectl, items []string) int {
	if len(items) == 0 {
		mc.Drain()
		return -1
	}
	d.mu.Lock()
	width := 0
	for _, it := range items {
		width = max(width, runewidth.StringWidth(it))
	}
	width = min(width, max(d.bounds.Dx()-2, 1))
	layout := display.NewMenuLayout(width, len(items), mc.Point, d.lastHit[button], 1, 1, d.bounds)
	p := &popup{layout: layout, items: items, sel: -1}
	d.popup = p
	d.mu.Unlock()

	sel := display.TrackMenu(button, mc, layout, func(sel int) {
		d.mu.Lock()
		defer d.mu.Unlock()
		p.sel = sel
		d.redraw()
	})

	d.mu.Lock()
	defer d.mu.Unlock()
	d.popup = nil
	if sel >= 0 {
		d.lastHit[button] = sel
	}
	d.redraw()
	return sel
}
