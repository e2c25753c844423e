package x11

import (
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
)

// outlineBars splits the rubber band around r into top, bottom, left and
// right strips of the given width.
func outlineBars(r image.Rectangle, width int) [4]image.Rectangle {
	width = max(1, min(width, r.Dx()/2, r.Dy()/2))
	return [4]image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width),
		image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+width, r.Min.X+width, r.Max.Y-width),
		image.Rect(r.Max.X-width, r.Min.Y+width, r.Max.X, r.Max.Y-width),
	}
}

// Outline shows the rubber band as four override-redirect bars above every
// surface. An empty rectangle hides them.
func (d *Display) Outline(r image.Rectangle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	conn := d.conn.XUtil.Conn()

	if r.Empty() {
		if d.outlineShown {
			for _, w := range d.outline {
				xproto.UnmapWindow(conn, w)
			}
			d.outlineShown = false
		}
		return
	}

	if d.outline[0] == 0 {
		for i := range d.outline {
			w, err := d.overrideRedirectWindow(d.conn.Root, image.Rect(0, 0, 1, 1), colorOutline, 0)
			if err != nil {
				d.log.Warn("outline window", "error", err)
				return
			}
			d.outline[i] = w
		}
	}

	for i, bar := range outlineBars(r, d.metrics.Border) {
		updateWindow(conn, d.outline[i], bar)
		xproto.MapWindow(conn, d.outline[i])
	}
	d.outlineShown = true
}

// overrideRedirectWindow creates an unmapped window that bypasses any other
// window manager.
func (d *Display) overrideRedirectWindow(parent xproto.Window, r image.Rectangle, bg uint32, borderWidth int) (xproto.Window, error) {
	conn := d.conn.XUtil.Conn()
	screen := d.conn.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return 0, err
	}
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		parent,
		int16(r.Min.X), int16(r.Min.Y),
		uint16(max(r.Dx(), 1)), uint16(max(r.Dy(), 1)),
		uint16(borderWidth),
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		// Value list order follows the bit positions of the mask (low to high).
		xproto.CwBackPixel|xproto.CwBorderPixel|xproto.CwOverrideRedirect,
		[]uint32{bg, colorText, 1},
	).Check()
	if err != nil {
		return 0, err
	}
	return wid, nil
}

// updateWindow moves and resizes a window and keeps it on top.
func updateWindow(conn *xgb.Conn, wid xproto.Window, r image.Rectangle) {
	xproto.ConfigureWindow(
		conn,
		wid,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight|xproto.ConfigWindowStackMode,
		[]uint32{
			uint32(int32(r.Min.X)),
			uint32(int32(r.Min.Y)),
			uint32(max(r.Dx(), 1)),
			uint32(max(r.Dy(), 1)),
			xproto.StackModeAbove,
		},
	)
}
