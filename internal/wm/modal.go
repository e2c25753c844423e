package wm

import (
	"image"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
)

// The modal operations below block the dispatcher and sample the pointer
// directly until the gesture ends. Each returns the committed rectangle and
// true, or false when the gesture was cancelled; a cancelled gesture drains
// the pointer until every button is up.

// cornerCursor shows the resize cursor for p's border zone of w, or the
// default cursor off any border.
func (e *Engine) cornerCursor(w *Window, p image.Point) {
	if w != nil && geom.OnBorder(w.screenr, p, e.metrics.Border) {
		e.disp.SetCursor(display.CornerCursor(geom.WhichCorner(w.screenr, p, e.metrics.Band)))
		return
	}
	e.disp.SetCursor(display.CursorDefault)
}

// sweep lets the user drag out a new rectangle with button 3.
func (e *Engine) sweep() (image.Rectangle, bool) {
	mc := e.mc
	e.state = Moving
	e.disp.SetCursor(display.CursorCross)
	for mc.Buttons == 0 {
		if !mc.Read() {
			return e.cancelModal()
		}
	}
	p0 := geom.Onscreen(mc.Point, e.view)
	p := p0
	var shown image.Rectangle
	for mc.Buttons == display.Button3 {
		if !mc.Read() {
			break
		}
		if mc.Buttons != display.Button3 && mc.Buttons != 0 {
			break
		}
		if mc.Point != p {
			p = geom.Onscreen(mc.Point, e.view)
			r := geom.Rect(p0, p)
			if r.Dx() > 5 && r.Dy() > 5 {
				shown = r
				e.disp.Outline(r)
				e.flush()
			}
		}
	}
	e.disp.Outline(image.Rectangle{})
	if mc.Buttons != 0 || mc.Closed() || shown.Empty() ||
		shown.Dx() < e.metrics.MinWidth || shown.Dy() < e.metrics.MinHeight() {
		return e.cancelModal()
	}
	e.cornerCursor(e.reg.Input(), mc.Point)
	e.flush()
	return shown, true
}

func (e *Engine) cancelModal() (image.Rectangle, bool) {
	e.disp.Outline(image.Rectangle{})
	e.cornerCursor(e.reg.Input(), e.mc.Point)
	e.state = Draining
	e.mc.Drain()
	e.flush()
	return image.Rectangle{}, false
}

// drag moves w rigidly with the pointer while button 3 is held.
func (e *Engine) drag(w *Window) (image.Rectangle, bool) {
	mc := e.mc
	e.state = Moving
	om := mc.Point
	e.disp.SetCursor(display.CursorBox)
	dm := mc.Point.Sub(w.screenr.Min)
	d := w.screenr.Size()
	op := mc.Point.Sub(dm)
	e.disp.Outline(image.Rectangle{Min: op, Max: op.Add(d)})
	e.flush()
	for mc.Buttons == display.Button3 {
		p := geom.Onscreen(mc.Point, e.view).Sub(dm)
		if p != op {
			e.disp.Outline(image.Rectangle{Min: p, Max: p.Add(d)})
			e.flush()
			op = p
		}
		if !mc.Read() {
			break
		}
	}
	r := image.Rectangle{Min: op, Max: op.Add(d)}
	e.disp.Outline(image.Rectangle{})
	e.cornerCursor(w, mc.Point)
	e.flush()
	if mc.Buttons != 0 || mc.Closed() {
		e.disp.MoveCursor(om)
		return e.cancelModal()
	}
	if r == w.screenr {
		return image.Rectangle{}, false
	}
	return r, true
}

// bandSize resizes w by the corner or edge under the pointer while the
// pressed buttons stay down. The opposite edges stay put.
func (e *Engine) bandSize(w *Window) (image.Rectangle, bool) {
	mc := e.mc
	e.state = Moving
	but := mc.Buttons
	which := geom.WhichCorner(w.screenr, mc.Point, e.metrics.Band)
	p := geom.CornerPoint(w.screenr, mc.Point, which)
	e.disp.MoveCursor(p)
	mc.Read()
	r := geom.WhichRect(w.screenr, p, which)
	e.disp.Outline(r)
	e.flush()
	or := r
	startp := p
	cursor := display.CornerCursor(which)
	e.disp.SetCursor(cursor)
	for mc.Buttons == but {
		p = geom.Onscreen(mc.Point, e.view)
		r = geom.WhichRect(w.screenr, p, which)
		if r != or && geom.GoodRect(r, e.view, e.metrics) {
			e.disp.Outline(r)
			e.flush()
			or = r
		}
		if c := display.CornerCursor(flipCorner(w.screenr, p, which)); c != cursor {
			cursor = c
			e.disp.SetCursor(c)
		}
		if !mc.Read() {
			break
		}
	}
	p = mc.Point
	e.disp.Outline(image.Rectangle{})
	e.disp.SetCursor(display.CursorDefault)
	e.flush()
	if mc.Buttons != 0 || mc.Closed() || or.Dx() < e.metrics.MinWidth || or.Dy() < e.metrics.MinHeight() {
		return e.cancelModal()
	}
	if or == w.screenr || abs(p.X-startp.X)+abs(p.Y-startp.Y) <= 1 {
		return image.Rectangle{}, false
	}
	return or, true
}

// flipCorner returns the zone being dragged once the pointer has crossed
// the anchored edge opposite it.
func flipCorner(r image.Rectangle, p image.Point, which int) int {
	col, row := which%3, which/3
	switch {
	case col == 0 && p.X > r.Max.X:
		col = 2
	case col == 2 && p.X < r.Min.X:
		col = 0
	}
	switch {
	case row == 0 && p.Y > r.Max.Y:
		row = 2
	case row == 2 && p.Y < r.Min.Y:
		row = 0
	}
	return 3*row + col
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// pointTo asks the user to pick a window with button 3. Any other button
// cancels. With wait, the button must also be released over the same
// window.
func (e *Engine) pointTo(wait bool) *Window {
	mc := e.mc
	e.disp.SetCursor(display.CursorSight)
	for mc.Buttons == 0 {
		if !mc.Read() {
			e.disp.SetCursor(display.CursorDefault)
			return nil
		}
	}
	var w *Window
	if mc.Buttons == display.Button3 {
		w = e.reg.PointTo(mc.Point)
	}
	if wait {
		for mc.Buttons != 0 {
			if mc.Buttons != display.Button3 && w != nil {
				e.cornerCursor(e.reg.Input(), mc.Point)
				w = nil
			}
			if !mc.Read() {
				w = nil
				break
			}
		}
		if w != nil && e.reg.PointTo(mc.Point) != w {
			w = nil
		}
	}
	e.cornerCursor(e.reg.Input(), mc.Point)
	return w
}
