package x11

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xcursor"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
	"github.com/1broseidon/riotile/internal/menu"
)

// Options configures the X11 backend.
type Options struct {
	// Metrics with a zero FontHeight take the height of the loaded font.
	Metrics geom.Metrics
	// Font is the core font name tried before the built-in fallbacks.
	Font string
	// Menu, when set, replaces the built-in popup menus.
	Menu   menu.Backend
	Logger *slog.Logger
}

var fallbackFonts = []string{"fixed", "9x15", "8x13", "6x13"}

// Display is the X11 backend.
type Display struct {
	conn   *Connection
	log    *slog.Logger
	menus  menu.Backend
	canvas xproto.Window

	mu           sync.Mutex
	bounds       image.Rectangle
	metrics      geom.Metrics
	font         xproto.Font
	gc           xproto.Gcontext
	ascent       int
	charWidth    int
	surfaces     map[string]*surface
	outline      [4]xproto.Window
	outlineShown bool
	cursors      map[display.Cursor]xproto.Cursor
	lastHit      map[int]int

	mouse     chan display.Mouse
	keys      chan display.Key
	resize    chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

var _ display.Backend = (*Display)(nil)

// Open connects to the X server, covers the current monitor with the canvas
// and starts the event loop.
func Open(opts Options) (*Display, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	conn, err := NewConnection()
	if err != nil {
		return nil, err
	}
	bounds, err := conn.ScreenBounds()
	if err != nil {
		conn.Close()
		return nil, err
	}

	d := &Display{
		conn:     conn,
		log:      logger,
		menus:    opts.Menu,
		bounds:   bounds,
		metrics:  opts.Metrics,
		surfaces: make(map[string]*surface),
		cursors:  make(map[display.Cursor]xproto.Cursor),
		lastHit:  make(map[int]int),
		mouse:    make(chan display.Mouse, 64),
		keys:     make(chan display.Key, 16),
		resize:   make(chan struct{}, 1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	if err := d.createCanvas(); err != nil {
		conn.Close()
		return nil, err
	}
	if err := d.loadFont(opts.Font); err != nil {
		conn.Close()
		return nil, err
	}
	d.connect()
	d.SetCursor(display.CursorDefault)

	go func() {
		conn.EventLoop()
		close(d.mouse)
		close(d.keys)
		close(d.done)
	}()

	logger.Info("x11 display opened", "bounds", bounds, "font_height", d.metrics.FontHeight, "char_width", d.charWidth)
	return d, nil
}

func (d *Display) createCanvas() error {
	conn := d.conn.XUtil.Conn()
	screen := d.conn.XUtil.Screen()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return fmt.Errorf("canvas id: %w", err)
	}
	b := d.bounds
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		d.conn.Root,
		int16(b.Min.X), int16(b.Min.Y), uint16(b.Dx()), uint16(b.Dy()),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwOverrideRedirect|xproto.CwEventMask,
		[]uint32{
			colorBackground,
			1,
			xproto.EventMaskButtonPress | xproto.EventMaskButtonRelease |
				xproto.EventMaskPointerMotion | xproto.EventMaskKeyPress |
				xproto.EventMaskStructureNotify,
		},
	).Check()
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}
	d.canvas = wid

	if err := ewmh.WmNameSet(d.conn.XUtil, wid, "riotile"); err != nil {
		d.log.Debug("set canvas name", "error", err)
	}
	xproto.MapWindow(conn, wid)
	xproto.SetInputFocus(conn, xproto.InputFocusPointerRoot, wid, xproto.TimeCurrentTime)

	// Root geometry changes signal a screen resize.
	xproto.ChangeWindowAttributes(conn, d.conn.Root, xproto.CwEventMask,
		[]uint32{xproto.EventMaskStructureNotify})
	return nil
}

func (d *Display) loadFont(name string) error {
	conn := d.conn.XUtil.Conn()
	font, err := xproto.NewFontId(conn)
	if err != nil {
		return fmt.Errorf("font id: %w", err)
	}

	names := fallbackFonts
	if name != "" {
		names = append([]string{name}, fallbackFonts...)
	}
	opened := ""
	for _, fontName := range names {
		if xproto.OpenFontChecked(conn, font, uint16(len(fontName)), fontName).Check() == nil {
			opened = fontName
			break
		}
	}
	if opened == "" {
		return fmt.Errorf("no usable core font among %v", names)
	}

	info, err := xproto.QueryFont(conn, xproto.Fontable(font)).Reply()
	if err != nil {
		return fmt.Errorf("query font %s: %w", opened, err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		return fmt.Errorf("gc id: %w", err)
	}
	err = xproto.CreateGCChecked(
		conn,
		gc,
		xproto.Drawable(d.canvas),
		xproto.GcForeground|xproto.GcBackground|xproto.GcFont|xproto.GcGraphicsExposures,
		[]uint32{colorText, colorPaper, uint32(font), 0},
	).Check()
	if err != nil {
		return fmt.Errorf("create gc: %w", err)
	}

	d.font = font
	d.gc = gc
	d.ascent = int(info.FontAscent)
	d.charWidth = max(int(info.MaxBounds.CharacterWidth), 1)
	if d.metrics.FontHeight == 0 {
		d.metrics.FontHeight = int(info.FontAscent) + int(info.FontDescent)
	}
	d.log.Debug("font loaded", "font", opened)
	return nil
}

func (d *Display) connect() {
	xu := d.conn.XUtil
	xevent.ButtonPressFun(func(_ *xgbutil.XUtil, ev xevent.ButtonPressEvent) {
		d.sendMouse(display.Mouse{
			Point:   image.Pt(int(ev.RootX), int(ev.RootY)),
			Buttons: buttonMask(ev.State, ev.Detail, true),
			Msec:    uint32(ev.Time),
		})
	}).Connect(xu, d.canvas)
	xevent.ButtonReleaseFun(func(_ *xgbutil.XUtil, ev xevent.ButtonReleaseEvent) {
		d.sendMouse(display.Mouse{
			Point:   image.Pt(int(ev.RootX), int(ev.RootY)),
			Buttons: buttonMask(ev.State, ev.Detail, false),
			Msec:    uint32(ev.Time),
		})
	}).Connect(xu, d.canvas)
	xevent.MotionNotifyFun(func(_ *xgbutil.XUtil, ev xevent.MotionNotifyEvent) {
		d.sendMouse(display.Mouse{
			Point:   image.Pt(int(ev.RootX), int(ev.RootY)),
			Buttons: stateButtons(ev.State),
			Msec:    uint32(ev.Time),
		})
	}).Connect(xu, d.canvas)
	xevent.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		k, ok := decodeKey(keybind.LookupString(xu, ev.State, ev.Detail), ev.State)
		if !ok {
			return
		}
		select {
		case d.keys <- k:
		case <-d.quit:
		}
	}).Connect(xu, d.canvas)
	xevent.ConfigureNotifyFun(func(_ *xgbutil.XUtil, _ xevent.ConfigureNotifyEvent) {
		select {
		case d.resize <- struct{}{}:
		default:
		}
	}).Connect(xu, d.conn.Root)
}

func (d *Display) sendMouse(m display.Mouse) {
	select {
	case d.mouse <- m:
	case <-d.quit:
	}
}

func (d *Display) Mouse() <-chan display.Mouse { return d.mouse }
func (d *Display) Keys() <-chan display.Key    { return d.keys }
func (d *Display) Resize() <-chan struct{}     { return d.resize }

func (d *Display) Bounds() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bounds
}

func (d *Display) Metrics() geom.Metrics {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.metrics
}

// CharWidth is the advance of one character of the loaded font.
func (d *Display) CharWidth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.charWidth
}

func (d *Display) Alloc(r image.Rectangle, onscreen bool) (display.Surface, error) {
	if r.Empty() {
		return nil, fmt.Errorf("alloc %v: empty rectangle", r)
	}
	conn := d.conn.XUtil.Conn()
	screen := d.conn.XUtil.Screen()

	d.mu.Lock()
	origin := d.bounds.Min
	d.mu.Unlock()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return nil, fmt.Errorf("alloc %v: %w", r, err)
	}
	local := r.Sub(origin)
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		wid,
		d.canvas,
		int16(local.Min.X), int16(local.Min.Y), uint16(r.Dx()), uint16(r.Dy()),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{colorPaper, xproto.EventMaskExposure},
	).Check()
	if err != nil {
		return nil, fmt.Errorf("alloc %v: %w", r, err)
	}

	s := &surface{
		d:        d,
		win:      wid,
		rect:     r,
		name:     fmt.Sprintf("riotile.%d", wid),
		onscreen: onscreen,
	}
	xevent.ExposeFun(s.expose).Connect(d.conn.XUtil, wid)
	if onscreen {
		xproto.MapWindow(conn, wid)
	}

	d.mu.Lock()
	d.surfaces[s.name] = s
	d.mu.Unlock()
	return s, nil
}

func (d *Display) Free(ds display.Surface) {
	s, ok := ds.(*surface)
	if !ok || s == nil {
		return
	}
	d.mu.Lock()
	_, live := d.surfaces[s.name]
	delete(d.surfaces, s.name)
	d.mu.Unlock()
	if !live {
		return
	}
	xevent.Detach(d.conn.XUtil, s.win)
	xproto.DestroyWindow(d.conn.XUtil.Conn(), s.win)
}

func (d *Display) Raise(ds display.Surface) {
	s, ok := ds.(*surface)
	if !ok || s == nil {
		return
	}
	conn := d.conn.XUtil.Conn()
	xproto.ConfigureWindow(conn, s.win, xproto.ConfigWindowStackMode, []uint32{xproto.StackModeAbove})
	if s.Onscreen() {
		xproto.MapWindow(conn, s.win)
	}
}

func (d *Display) Offscreen(name string) bool {
	d.mu.Lock()
	s, ok := d.surfaces[name]
	d.mu.Unlock()
	if !ok {
		return false
	}
	s.setOnscreen(false)
	xproto.UnmapWindow(d.conn.XUtil.Conn(), s.win)
	return true
}

func (d *Display) SetCursor(c display.Cursor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cur, ok := d.cursors[c]
	if !ok {
		var err error
		cur, err = xcursor.CreateCursor(d.conn.XUtil, cursorGlyph(c))
		if err != nil {
			d.log.Warn("create cursor", "cursor", c, "error", err)
			return
		}
		d.cursors[c] = cur
	}
	xproto.ChangeWindowAttributes(d.conn.XUtil.Conn(), d.canvas, xproto.CwCursor, []uint32{uint32(cur)})
}

func (d *Display) MoveCursor(p image.Point) {
	xproto.WarpPointer(d.conn.XUtil.Conn(), xproto.WindowNone, d.conn.Root, 0, 0, 0, 0, int16(p.X), int16(p.Y))
}

func (d *Display) Flush() error {
	select {
	case <-d.quit:
		return display.ErrClosed
	default:
	}
	return d.conn.Sync()
}

// Reattach moves the canvas to the monitor now under the pointer.
func (d *Display) Reattach() (image.Rectangle, error) {
	select {
	case <-d.quit:
		return image.Rectangle{}, display.ErrClosed
	default:
	}
	b, err := d.conn.ScreenBounds()
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("reattach: %w", err)
	}
	d.mu.Lock()
	d.bounds = b
	d.mu.Unlock()

	conn := d.conn.XUtil.Conn()
	xproto.ConfigureWindow(conn, d.canvas,
		xproto.ConfigWindowX|xproto.ConfigWindowY|xproto.ConfigWindowWidth|xproto.ConfigWindowHeight,
		[]uint32{uint32(int32(b.Min.X)), uint32(int32(b.Min.Y)), uint32(b.Dx()), uint32(b.Dy())})
	return b, nil
}

// Close stops the event loop and disconnects. The mouse and key channels
// are closed once the loop has exited.
func (d *Display) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.quit)
		d.conn.Quit()
		// Destroying the canvas delivers an event that wakes the loop.
		xproto.DestroyWindow(d.conn.XUtil.Conn(), d.canvas)
		select {
		case <-d.done:
			d.conn.Close()
		case <-time.After(2 * time.Second):
			err = errors.New("x11 event loop did not stop")
		}
	})
	return err
}
