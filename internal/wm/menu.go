package wm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	menu2Cut = iota
	menu2Paste
	menu2Snarf
	menu2Plumb
	menu2Look
	menu2Send
	menu2Scroll
)

const (
	menu3New = iota
	menu3Resize
	menu3Move
	menu3Delete
	menu3Hide
	menu3Tile
	menu3Exit
)

// menuLabelWidth is the widest window label shown in the button 3 menu.
const menuLabelWidth = 32

func (e *Engine) getSnarf() string {
	if e.snarf == nil {
		return ""
	}
	return e.snarf.Get()
}

func (e *Engine) putSnarf(s string) {
	if e.snarf != nil && s != "" {
		e.snarf.Put(s)
	}
}

// button2Menu runs the text menu of w.
func (e *Engine) button2Menu(w *Window) {
	c := w.Client()
	if c == nil {
		return
	}
	scroll := "scroll"
	if w.Scrolling() {
		scroll = "noscroll"
	}
	items := []string{"cut", "paste", "snarf", "plumb", "look", "send", scroll}
	switch e.disp.Menu(2, e.mc, items) {
	case menu2Cut:
		e.putSnarf(c.Cut())
	case menu2Paste:
		c.Paste(e.getSnarf())
	case menu2Snarf:
		e.putSnarf(c.Selection())
	case menu2Plumb:
		if e.plumb != nil {
			if sel := c.Selection(); sel != "" {
				if err := e.plumb.Plumb(sel, w.Dir()); err != nil {
					e.log.Warn("plumb", "window", w.id, "error", err)
				}
			}
		}
	case menu2Look:
		c.Look()
	case menu2Send:
		snarf := e.getSnarf()
		if sel := c.Selection(); sel != "" {
			e.putSnarf(sel)
			snarf = sel
		}
		if snarf == "" {
			break
		}
		if !strings.HasSuffix(snarf, "\n") && !strings.HasSuffix(snarf, "\x04") {
			snarf += "\n"
		}
		c.Send(snarf)
	case menu2Scroll:
		w.mu.Lock()
		w.scrolling = !w.scrolling
		on := w.scrolling
		w.mu.Unlock()
		c.SetScrolling(on)
	}
	w.sendCtl(CtlMsg{Kind: Wakeup})
	e.flush()
}

// menuLabel shortens a window label for the button 3 menu.
func menuLabel(w *Window) string {
	label := w.Label()
	if label == "" {
		label = fmt.Sprintf("window %d", w.id)
	}
	return runewidth.Truncate(label, menuLabelWidth, "…")
}

// menuCandidates returns the hidden windows followed by visible windows
// that are fully covered, and how many of them are hidden. The list is
// capped by the hidden set's capacity and by the rows left on screen.
func (e *Engine) menuCandidates(fixed int) ([]*Window, int) {
	cands := e.reg.Hidden()
	nhidden := len(cands)
	for _, w := range e.reg.Windows() {
		if len(cands) >= e.reg.HiddenCap() {
			break
		}
		if w.Deleted() || slices.Contains(cands[:nhidden], w) {
			continue
		}
		if e.obscured(w, w.screenr) {
			cands = append(cands, w)
		}
	}
	rows := e.view.Dy()/max(1, e.metrics.FontHeight) - fixed
	if rows < 0 {
		rows = 0
	}
	if len(cands) > rows {
		cands = cands[:rows]
	}
	return cands, min(nhidden, len(cands))
}

// button3Menu runs the window menu.
func (e *Engine) button3Menu() {
	items := []string{"New", "Resize", "Move", "Delete", "Hide", "Tile"}
	if e.opts.EnableExit {
		items = append(items, "Exit")
	}
	fixed := len(items)
	cands, nhidden := e.menuCandidates(fixed)
	for _, w := range cands {
		items = append(items, menuLabel(w))
	}
	e.state = Moving
	sel := e.disp.Menu(3, e.mc, items)
	switch {
	case sel < 0:
	case sel == menu3New:
		if r, ok := e.sweep(); ok {
			if _, err := e.NewWindow(NewWindowRequest{Rect: r, Scrolling: e.opts.Scrolling}); err != nil {
				e.log.Warn("new window", "error", err)
			}
		}
	case sel == menu3Resize:
		e.resizeInteractive()
	case sel == menu3Move:
		e.moveInteractive()
	case sel == menu3Delete:
		if w := e.pointTo(true); w != nil {
			e.deleteWindow(w)
		}
	case sel == menu3Hide:
		if w := e.pointTo(true); w != nil {
			if err := e.hide(w); err != nil {
				e.log.Debug("hide", "window", w.id, "error", err)
			}
		}
	case sel == menu3Tile:
		e.Tile()
	case sel == menu3Exit && e.opts.EnableExit:
		if e.down != nil {
			e.down.Trigger("exit")
		}
	case sel >= fixed && sel-fixed < len(cands):
		j := sel - fixed
		e.unhideEntry(cands[j], j < nhidden)
	}
}

// unhideEntry brings back a window picked from the button 3 menu: hidden
// windows are unhidden, covered ones raised and focused.
func (e *Engine) unhideEntry(w *Window, hidden bool) {
	if hidden {
		if err := e.unhide(w); err != nil {
			e.log.Debug("unhide", "window", w.id, "error", err)
		}
		return
	}
	if e.reg.Lookup(w.id) != w {
		return
	}
	w.Borrow(func(w *Window) {
		e.topMe(w)
		e.current(w)
	})
}

func (e *Engine) resizeInteractive() {
	w := e.pointTo(true)
	if w == nil {
		return
	}
	w.Borrow(func(w *Window) {
		if r, ok := e.sweep(); ok {
			e.commit(w, Reshaped, r)
		}
	})
}

func (e *Engine) moveInteractive() {
	w := e.pointTo(false)
	if w == nil {
		return
	}
	w.Borrow(func(w *Window) {
		if r, ok := e.drag(w); ok {
			e.commit(w, Moved, r)
		}
		e.cornerCursor(w, e.mc.Point)
	})
}

func (e *Engine) deleteWindow(w *Window) {
	w.Borrow(func(w *Window) {
		e.sendCtl(w, Deleted, w.screenr, nil)
	})
}
