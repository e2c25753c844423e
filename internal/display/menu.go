package display

import "image"

// MenuLayout places a popup menu of n rows so that the previously chosen
// row lies under the pointer, shifted to stay inside the screen.
type MenuLayout struct {
	Rect      image.Rectangle
	RowHeight int
	Pad       int
	N         int
}

// NewMenuLayout lays out n rows of the given content width around p.
func NewMenuLayout(width, n int, p image.Point, lastHit, rowHeight, pad int, bounds image.Rectangle) MenuLayout {
	w := width + 2*pad
	h := n*rowHeight + 2*pad
	if lastHit < 0 || lastHit >= n {
		lastHit = 0
	}

	r := image.Rect(0, 0, w, h).Add(image.Pt(p.X-w/2, p.Y-pad-lastHit*rowHeight-rowHeight/2))
	if r.Max.X > bounds.Max.X {
		r = r.Sub(image.Pt(r.Max.X-bounds.Max.X, 0))
	}
	if r.Max.Y > bounds.Max.Y {
		r = r.Sub(image.Pt(0, r.Max.Y-bounds.Max.Y))
	}
	if r.Min.X < bounds.Min.X {
		r = r.Add(image.Pt(bounds.Min.X-r.Min.X, 0))
	}
	if r.Min.Y < bounds.Min.Y {
		r = r.Add(image.Pt(0, bounds.Min.Y-r.Min.Y))
	}
	return MenuLayout{Rect: r, RowHeight: rowHeight, Pad: pad, N: n}
}

// Hit returns the row under p, or -1.
func (l MenuLayout) Hit(p image.Point) int {
	if !p.In(l.Rect) || l.RowHeight <= 0 {
		return -1
	}
	y := p.Y - l.Rect.Min.Y - l.Pad
	if y < 0 {
		return -1
	}
	i := y / l.RowHeight
	if i >= l.N {
		return -1
	}
	return i
}

// Row returns row i's rectangle relative to the menu's origin.
func (l MenuLayout) Row(i int) image.Rectangle {
	y := l.Pad + i*l.RowHeight
	return image.Rect(0, y, l.Rect.Dx(), y+l.RowHeight)
}

// TrackMenu follows the pointer while button is held, calling paint
// whenever the highlighted row changes, and returns the row under the
// pointer when the button is released. Pressing another button or losing
// the pointer feed cancels with -1.
func TrackMenu(button int, mc *Mousectl, l MenuLayout, paint func(sel int)) int {
	sel := l.Hit(mc.Point)
	paint(sel)
	for mc.Buttons&button != 0 {
		if !mc.Read() {
			return -1
		}
		if mc.Buttons&^button != 0 {
			mc.Drain()
			return -1
		}
		if h := l.Hit(mc.Point); h != sel {
			sel = h
			paint(sel)
		}
	}
	return sel
}
