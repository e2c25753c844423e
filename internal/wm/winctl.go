package wm

import (
	"image"

	"github.com/1broseidon/riotile/internal/display"
)

// actor is the goroutine owning one window's client I/O and surface.
type actor struct {
	w    *Window
	surf display.Surface
	rect image.Rectangle

	clientGone bool
	sized      bool
}

func (w *Window) serve(s display.Surface, r image.Rectangle) {
	a := &actor{w: w, surf: s, rect: r}
	defer close(w.done)
	a.redraw()
	for {
		var updated, gone <-chan struct{}
		c := w.Client()
		if c != nil && !a.sized && !a.rect.Empty() {
			c.Resize(a.rect)
			a.sized = true
		}
		if c != nil {
			updated = c.Updated()
			if !a.clientGone {
				gone = c.Exited()
			}
		}
		select {
		case m := <-w.ctl:
			if a.handle(m) {
				return
			}
		case k := <-w.kbd:
			if c != nil && !w.Deleted() {
				c.Key(k)
			}
		case m := <-w.mouse:
			if c != nil && !w.Deleted() {
				c.Mouse(m)
				a.redraw()
			}
		case <-updated:
			a.redraw()
		case <-gone:
			a.clientGone = true
			a.delete()
		}
	}
}

func (a *actor) handle(m CtlMsg) bool {
	w := a.w
	switch m.Kind {
	case Reshaped, Moved:
		if w.Deleted() {
			w.eng.disp.Free(m.Surface)
			return false
		}
		old := a.surf
		a.surf, a.rect = m.Surface, m.Rect
		if old != nil && old != m.Surface {
			w.eng.disp.Free(old)
		}
		if c := w.Client(); c != nil && !m.Rect.Empty() {
			c.Resize(m.Rect)
			a.sized = true
		}
		a.redraw()
	case Wakeup:
		a.redraw()
	case Deleted:
		a.delete()
	case exited:
		w.eng.disp.Free(a.surf)
		a.surf = nil
		if c := w.Client(); c != nil {
			if err := c.Close(); err != nil {
				w.eng.log.Debug("client close", "window", w.id, "error", err)
			}
		}
		for {
			select {
			case m := <-w.ctl:
				w.eng.disp.Free(m.Surface)
			default:
				w.eng.log.Debug("window exited", "window", w.id)
				return true
			}
		}
	}
	return false
}

// delete starts closing the window: the program is hung up and the
// dispatcher is asked to drop the registry's reference.
func (a *actor) delete() {
	w := a.w
	if w.deleted.Swap(true) {
		return
	}
	if c := w.Client(); c != nil && !a.clientGone {
		if err := c.Hangup(); err != nil {
			w.eng.log.Debug("hangup", "window", w.id, "error", err)
		}
	}
	w.eng.unlinkLater(w)
}

func (a *actor) redraw() {
	w := a.w
	if a.surf == nil || w.Deleted() {
		return
	}
	var f display.Frame
	if c := w.Client(); c != nil {
		f = c.Frame()
	}
	f.Label = w.Label()
	f.Current = w.eng.reg.Input() == w
	if err := a.surf.Draw(f); err != nil {
		w.eng.log.Debug("draw", "window", w.id, "error", err)
	}
}
