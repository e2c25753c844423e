package wm

import (
	"image"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
)

// State is the dispatcher's pointer routing state.
type State int

const (
	// Idle means no gesture is in progress.
	Idle State = iota
	// Sending means samples are forwarded to the focused window.
	Sending
	// Moving means a modal geometry operation owns the pointer.
	Moving
	// Draining means samples are discarded until the buttons are released.
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Moving:
		return "moving"
	case Draining:
		return "draining"
	default:
		return "unknown"
	}
}

// route is the outcome of evaluating one pointer sample.
type route int

const (
	routeDone route = iota
	routeAgain
	routeDrain
)

// handleMouse routes the current pointer sample.
func (e *Engine) handleMouse() {
	if e.wkeyboard != nil && e.mc.Buttons&display.ButtonKeyboard != 0 {
		e.keyboardHide()
		return
	}
	for {
		switch e.route() {
		case routeAgain:
			continue
		case routeDrain:
			e.state = Draining
			e.mc.Drain()
			e.moving = false
			continue
		}
		if e.mc.Buttons == 0 && !e.sending {
			e.state = Idle
		}
		return
	}
}

// keyboardHide passes the keyboard toggle button to the keyboard helper
// window, press and release, without coordinate translation.
func (e *Engine) keyboardHide() {
	w := e.wkeyboard
	w.sendMouse(e.mc.Mouse)
	for e.mc.Buttons&display.ButtonKeyboard != 0 {
		if !e.mc.Read() {
			break
		}
	}
	w.sendMouse(e.mc.Mouse)
}

// scrollRect is the scroll bar of w in window coordinates.
func (e *Engine) scrollRect(w *Window) image.Rectangle {
	r := w.geometry().Inset(e.metrics.Border)
	r.Max.X = min(r.Max.X, r.Min.X+e.metrics.ScrollWidth)
	return r
}

func (e *Engine) route() route {
	m := &e.mc.Mouse
	winput := e.reg.Input()
	if e.wkeyboard != nil && m.In(e.wkeyboard.screenr) {
		e.topMe(e.wkeyboard)
		winput = e.wkeyboard
	}
	var xy image.Point
	if winput != nil && !winput.Deleted() && winput.surf != nil && !winput.screenr.Empty() {
		xy = m.Point.Add(winput.geometry().Min.Sub(winput.screenr.Min))

		// Scroll wheel events skip the usual rules.
		if m.Buttons&(display.ScrollUp|display.ScrollDown) != 0 && !winput.MouseOpen() {
			e.send(winput, xy)
			return routeDone
		}

		inside := m.In(winput.screenr.Inset(e.metrics.Border))
		switch {
		case winput.MouseOpen():
			e.scrolling = false
		case e.scrolling:
			e.scrolling = m.Buttons != 0
		default:
			e.scrolling = m.Buttons != 0 && xy.In(e.scrollRect(winput))
		}
		if !e.sending && !e.scrolling && geom.OnBorder(winput.screenr, m.Point, e.metrics.Border) && winput.topped > 0 {
			e.moving = true
		} else if inside && (e.scrolling || winput.MouseOpen() || m.Buttons&display.Button1 != 0) {
			e.sending = true
		}
	} else {
		e.sending = false
	}
	if e.sending {
		e.send(winput, xy)
		return routeDone
	}

	w := e.reg.PointTo(m.Point)
	e.cornerCursor(w, m.Point)
	if e.moving && winput != nil && m.Buttons&(display.Button1|display.Button2|display.Button3) != 0 {
		winput.Acquire()
		var r image.Rectangle
		var ok bool
		kind := Reshaped
		if m.Buttons&(display.Button1|display.Button2) != 0 {
			r, ok = e.bandSize(winput)
		} else {
			kind = Moved
			r, ok = e.drag(winput)
		}
		if ok {
			e.commit(winput, kind, r)
			e.cornerCursor(winput, m.Point)
		}
		if winput.Release() {
			e.disp.SetCursor(display.CursorDefault)
			w = nil
		} else {
			w = winput
		}
	}

	if m.Buttons != 0 {
		if w == nil || (w == winput && w.topped > 0) {
			switch {
			case m.Buttons&display.Button1 != 0:
			case m.Buttons&display.Button2 != 0:
				if winput != nil && !winput.Deleted() && !winput.MouseOpen() {
					winput.Borrow(e.button2Menu)
				}
			case m.Buttons&display.Button3 != 0:
				e.button3Menu()
			}
		} else {
			// Button 1 raises the window and waits for the release;
			// anything else raises it and passes the press on.
			if e.top(m.Point) != nil && (m.Buttons != display.Button1 || geom.OnBorder(w.screenr, m.Point, e.metrics.Border)) {
				return routeAgain
			}
			return routeDrain
		}
	}
	e.moving = false
	return routeDone
}

// send forwards the current sample to w at window coordinates xy.
func (e *Engine) send(w *Window, xy image.Point) {
	m := e.mc.Mouse
	if m.Buttons == 0 {
		e.cornerCursor(w, m.Point)
		e.sending = false
		e.state = Idle
	} else {
		e.disp.SetCursor(display.CursorDefault)
		e.state = Sending
	}
	m.Point = xy
	w.sendMouse(m)
}

// commit gives w a fresh surface at r, raises and focuses it.
func (e *Engine) commit(w *Window, kind MsgKind, r image.Rectangle) bool {
	s, err := e.disp.Alloc(r, true)
	if err != nil {
		e.log.Warn("allocate surface", "window", w.id, "rect", r, "error", err)
		return false
	}
	e.sendCtl(w, kind, r, s)
	e.topMe(w)
	e.current(w)
	e.flush()
	return true
}
