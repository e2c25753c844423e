package x11

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// Monitor represents a physical display
type Monitor struct {
	ID   int
	Name string
	Rect image.Rectangle
}

// GetMonitors retrieves all active monitors using XRandR
func (c *Connection) GetMonitors() ([]Monitor, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	var monitors []Monitor
	for i, crtc := range resources.Crtcs {
		crtcInfo, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}

		// Skip disabled CRTCs
		if crtcInfo.Width == 0 || crtcInfo.Height == 0 || len(crtcInfo.Outputs) == 0 {
			continue
		}

		outputName := fmt.Sprintf("Monitor%d", i)
		outputInfo, err := randr.GetOutputInfo(c.XUtil.Conn(), crtcInfo.Outputs[0], resources.ConfigTimestamp).Reply()
		if err == nil {
			outputName = string(outputInfo.Name)
		}

		x, y := int(crtcInfo.X), int(crtcInfo.Y)
		monitors = append(monitors, Monitor{
			ID:   i,
			Name: outputName,
			Rect: image.Rect(x, y, x+int(crtcInfo.Width), y+int(crtcInfo.Height)),
		})
	}

	return monitors, nil
}

// RootRect returns the full root window geometry.
func (c *Connection) RootRect() (image.Rectangle, error) {
	g, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(c.Root)).Reply()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("root geometry: %w", err)
	}
	return image.Rect(0, 0, int(g.Width), int(g.Height)), nil
}

// Pointer returns the pointer position in root coordinates.
func (c *Connection) Pointer() (image.Point, error) {
	p, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return image.Point{}, err
	}
	return image.Pt(int(p.RootX), int(p.RootY)), nil
}

// ScreenBounds returns the area the canvas should cover: the monitor under
// the pointer minus the space reserved by docks. Without RandR it falls back
// to the whole root window.
func (c *Connection) ScreenBounds() (image.Rectangle, error) {
	root, err := c.RootRect()
	if err != nil {
		return image.Rectangle{}, err
	}
	monitors, err := c.GetMonitors()
	if err != nil || len(monitors) == 0 {
		return root, nil
	}
	p, err := c.Pointer()
	if err != nil {
		p = monitors[0].Rect.Min
	}
	mon := monitorAt(monitors, p)
	return applyStruts(mon.Rect, root, c.dockStruts()), nil
}

// monitorAt returns the monitor containing p, or the first one.
func monitorAt(monitors []Monitor, p image.Point) Monitor {
	for _, mon := range monitors {
		if p.In(mon.Rect) {
			return mon
		}
	}
	return monitors[0]
}

func (c *Connection) dockStruts() []ewmh.WmStrutPartial {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil
	}
	root, err := c.RootRect()
	if err != nil {
		return nil
	}

	var out []ewmh.WmStrutPartial
	for _, windowID := range clients {
		types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
		if err != nil {
			continue
		}
		isDock := false
		for _, t := range types {
			if t == "_NET_WM_WINDOW_TYPE_DOCK" {
				isDock = true
				break
			}
		}
		if !isDock {
			continue
		}

		if sp, err := ewmh.WmStrutPartialGet(c.XUtil, windowID); err == nil {
			out = append(out, *sp)
			continue
		}
		// Some docks only set _NET_WM_STRUT (no partial ranges).
		if s, err := ewmh.WmStrutGet(c.XUtil, windowID); err == nil {
			out = append(out, fullStrut(s, root))
		}
	}
	return out
}

func fullStrut(s *ewmh.WmStrut, root image.Rectangle) ewmh.WmStrutPartial {
	return ewmh.WmStrutPartial{
		Left:         s.Left,
		Right:        s.Right,
		Top:          s.Top,
		Bottom:       s.Bottom,
		LeftEndY:     uint(root.Dy() - 1),
		RightEndY:    uint(root.Dy() - 1),
		TopEndX:      uint(root.Dx() - 1),
		BottomEndX:   uint(root.Dx() - 1),
		LeftStartY:   0,
		RightStartY:  0,
		TopStartX:    0,
		BottomStartX: 0,
	}
}

// applyStruts shrinks mon by every strut that overlaps it.
func applyStruts(mon, root image.Rectangle, struts []ewmh.WmStrutPartial) image.Rectangle {
	var left, right, top, bottom int
	for _, sp := range struts {
		if sp.Top > 0 {
			r := image.Rect(int(sp.TopStartX), 0, int(sp.TopEndX)+1, int(sp.Top))
			top = max(top, r.Intersect(mon).Dy())
		}
		if sp.Bottom > 0 {
			r := image.Rect(int(sp.BottomStartX), root.Dy()-int(sp.Bottom), int(sp.BottomEndX)+1, root.Dy())
			bottom = max(bottom, r.Intersect(mon).Dy())
		}
		if sp.Left > 0 {
			r := image.Rect(0, int(sp.LeftStartY), int(sp.Left), int(sp.LeftEndY)+1)
			left = max(left, r.Intersect(mon).Dx())
		}
		if sp.Right > 0 {
			r := image.Rect(root.Dx()-int(sp.Right), int(sp.RightStartY), root.Dx(), int(sp.RightEndY)+1)
			right = max(right, r.Intersect(mon).Dx())
		}
	}

	out := image.Rect(mon.Min.X+left, mon.Min.Y+top, mon.Max.X-right, mon.Max.Y-bottom)
	if out.Dx() < 1 || out.Dy() < 1 {
		return mon
	}
	return out
}
