package x11

import (
	"errors"
	"unicode/utf8"

	"github.com/BurntSushi/xgb/xproto"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/menu"
)

const menuBorder = 2

// Menu runs a popup menu while button is held. With an external menu
// program configured the button is released first and the program picks.
func (d *Display) Menu(button int, mc *display.Mousectl, items []string) int {
	if len(items) == 0 {
		mc.Drain()
		return -1
	}
	d.mu.Lock()
	last := d.lastHit[button]
	d.mu.Unlock()

	var sel int
	if d.menus != nil {
		sel = d.externalMenu(mc, items, last)
	} else {
		sel = d.popupMenu(button, mc, items, last)
	}

	if sel >= 0 {
		d.mu.Lock()
		d.lastHit[button] = sel
		d.mu.Unlock()
	}
	return sel
}

func (d *Display) externalMenu(mc *display.Mousectl, items []string, last int) int {
	mc.Drain()
	sel, err := d.menus.Show("", items, last)
	if err != nil {
		if !errors.Is(err, menu.ErrCancelled) {
			d.log.Warn("menu failed", "backend", d.menus.Name(), "error", err)
		}
		return -1
	}
	return sel
}

func (d *Display) popupMenu(button int, mc *display.Mousectl, items []string, last int) int {
	cols := 0
	for _, it := range items {
		cols = max(cols, utf8.RuneCountInString(it))
	}
	d.mu.Lock()
	layout := display.NewMenuLayout(cols*d.charWidth, len(items), mc.Point, last, d.metrics.FontHeight, menuBorder, d.bounds)
	d.mu.Unlock()

	conn := d.conn.XUtil.Conn()
	win, err := d.overrideRedirectWindow(d.conn.Root, layout.Rect, colorPaper, menuBorder)
	if err != nil {
		d.log.Warn("menu window", "error", err)
		mc.Drain()
		return -1
	}
	defer xproto.DestroyWindow(conn, win)
	updateWindow(conn, win, layout.Rect)
	xproto.MapWindow(conn, win)

	return display.TrackMenu(button, mc, layout, func(sel int) {
		d.paintMenu(win, layout, items, sel)
	})
}

func (d *Display) paintMenu(win xproto.Window, l display.MenuLayout, items []string, sel int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn := d.conn.XUtil.Conn()

	xproto.ClearArea(conn, false, win, 0, 0, 0, 0)
	cols := (l.Rect.Dx() - 2*l.Pad) / max(d.charWidth, 1)
	for i, it := range items {
		r := l.Row(i)
		bg := uint32(colorPaper)
		if i == sel {
			bg = colorSelection
			d.fill(win, bg, r)
		}
		d.text(win, bg, l.Pad, r.Min.Y+d.ascent, latin1(it, cols))
	}
	_ = d.conn.Sync()
}
