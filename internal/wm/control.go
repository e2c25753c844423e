package wm

import (
	"context"
	"fmt"
	"image"
	"slices"

	"github.com/1broseidon/riotile/internal/geom"
)

// Info is a snapshot of one window.
type Info struct {
	ID        int
	Pid       int
	Label     string
	Dir       string
	Rect      image.Rectangle
	Topped    int
	Hidden    bool
	Current   bool
	Scrolling bool
}

// Status summarizes the engine.
type Status struct {
	Screen    image.Rectangle
	Windows   int
	Hidden    int
	HiddenCap int
	Input     int
	State     State
}

// defaultNewSize is the size of windows created without a rectangle.
var defaultNewSize = image.Pt(300, 80)

// defaultRect is where a window without a rectangle goes: the top left
// corner, at most half the screen in each direction.
func (e *Engine) defaultRect() image.Rectangle {
	size := image.Pt(min(defaultNewSize.X, e.view.Dx()/2), min(defaultNewSize.Y, e.view.Dy()/2))
	return image.Rectangle{Min: e.view.Min, Max: e.view.Min.Add(size)}
}

func (e *Engine) info(w *Window) Info {
	in := Info{
		ID:        w.id,
		Pid:       w.Pid(),
		Label:     w.Label(),
		Dir:       w.Dir(),
		Rect:      w.geometry(),
		Topped:    w.topped,
		Hidden:    e.reg.IsHidden(w),
		Current:   e.reg.Input() == w,
		Scrolling: w.Scrolling(),
	}
	return in
}

// lookup returns the live window with the given id.
func (e *Engine) lookup(id int) (*Window, error) {
	w := e.reg.Lookup(id)
	if w == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoWindow, id)
	}
	if w.Deleted() {
		return nil, fmt.Errorf("%w: %d", ErrDeleted, id)
	}
	return w, nil
}

// List returns every live window in registry order.
func (e *Engine) List(ctx context.Context) ([]Info, error) {
	var out []Info
	err := e.Exec(ctx, func() error {
		for _, w := range e.reg.Windows() {
			if w.Deleted() {
				continue
			}
			out = append(out, e.info(w))
		}
		return nil
	})
	return out, err
}

// Create makes a window for an external request. With AutoRect the window
// goes at the top left corner of the screen with a default size; otherwise
// Rect must be a good rectangle.
func (e *Engine) Create(ctx context.Context, req NewWindowRequest) (Info, error) {
	var in Info
	err := e.Exec(ctx, func() error {
		if req.AutoRect {
			req.Rect = e.defaultRect()
		}
		req.Rect = req.Rect.Canon()
		if req.Rect.Empty() || !geom.GoodRect(req.Rect, e.view, e.metrics) {
			return fmt.Errorf("%w: %v", ErrBadRect, req.Rect)
		}
		w, err := e.NewWindow(req)
		if err != nil {
			return err
		}
		in = e.info(w)
		return nil
	})
	return in, err
}

// Resize gives window id the rectangle r. A hidden window stays hidden and
// comes back at r.
func (e *Engine) Resize(ctx context.Context, id int, r image.Rectangle) error {
	return e.Exec(ctx, func() error {
		return e.reshape(id, Reshaped, func(image.Rectangle) image.Rectangle { return r.Canon() })
	})
}

// Move translates window id so its top left corner is at p.
func (e *Engine) Move(ctx context.Context, id int, p image.Point) error {
	return e.Exec(ctx, func() error {
		return e.reshape(id, Moved, func(old image.Rectangle) image.Rectangle {
			return old.Add(p.Sub(old.Min))
		})
	})
}

func (e *Engine) reshape(id int, kind MsgKind, fn func(image.Rectangle) image.Rectangle) error {
	w, err := e.lookup(id)
	if err != nil {
		return err
	}
	r := fn(w.geometry())
	if !geom.GoodRect(r, e.view, e.metrics) {
		return fmt.Errorf("%w: %v", ErrBadRect, r)
	}
	w.Borrow(func(w *Window) {
		if e.reg.IsHidden(w) {
			s, aerr := e.disp.Alloc(r, false)
			if aerr != nil {
				err = fmt.Errorf("%w: %v", ErrNoSurface, aerr)
				return
			}
			e.sendCtl(w, kind, image.Rectangle{}, s)
			return
		}
		if !e.commit(w, kind, r) {
			err = ErrNoSurface
		}
	})
	return err
}

// Delete closes window id.
func (e *Engine) Delete(ctx context.Context, id int) error {
	return e.Exec(ctx, func() error {
		w, err := e.lookup(id)
		if err != nil {
			return err
		}
		e.deleteWindow(w)
		return nil
	})
}

// Hide moves window id into the hidden set.
func (e *Engine) Hide(ctx context.Context, id int) error {
	return e.Exec(ctx, func() error {
		w, err := e.lookup(id)
		if err != nil {
			return err
		}
		return e.hide(w)
	})
}

// Unhide brings window id back from the hidden set.
func (e *Engine) Unhide(ctx context.Context, id int) error {
	return e.Exec(ctx, func() error {
		w, err := e.lookup(id)
		if err != nil {
			return err
		}
		return e.unhide(w)
	})
}

// Top raises and focuses window id, unhiding it first if needed.
func (e *Engine) Top(ctx context.Context, id int) error {
	return e.Exec(ctx, func() error {
		w, err := e.lookup(id)
		if err != nil {
			return err
		}
		if e.reg.IsHidden(w) {
			return e.unhide(w)
		}
		w.Borrow(func(w *Window) {
			e.topMe(w)
			e.current(w)
		})
		e.flush()
		return nil
	})
}

// TileWindows lays every window out on the tile grid.
func (e *Engine) TileWindows(ctx context.Context) error {
	return e.Exec(ctx, func() error {
		e.Tile()
		return nil
	})
}

// NewTiled creates a shell window with the default size and retiles.
func (e *Engine) NewTiled(ctx context.Context) error {
	return e.Exec(ctx, func() error {
		if _, err := e.NewWindow(NewWindowRequest{Rect: e.defaultRect(), Scrolling: e.opts.Scrolling}); err != nil {
			return err
		}
		e.Tile()
		return nil
	})
}

// CycleFocus moves the focus to the next visible window in registry order,
// or the previous one when forward is false, wrapping at the ends.
func (e *Engine) CycleFocus(ctx context.Context, forward bool) error {
	return e.Exec(ctx, func() error {
		var ws []*Window
		for _, w := range e.reg.Windows() {
			if w.Deleted() || w == e.wkeyboard || e.reg.IsHidden(w) {
				continue
			}
			ws = append(ws, w)
		}
		if len(ws) == 0 {
			return nil
		}
		i := slices.Index(ws, e.reg.Input())
		switch {
		case i < 0:
			i = 0
		case forward:
			i = (i + 1) % len(ws)
		default:
			i = (i - 1 + len(ws)) % len(ws)
		}
		w := ws[i]
		w.Borrow(func(w *Window) {
			e.topMe(w)
			e.current(w)
		})
		e.flush()
		return nil
	})
}

// Status reports the engine's current state.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	var st Status
	err := e.Exec(ctx, func() error {
		st = Status{
			Screen:    e.view,
			Windows:   e.reg.Len(),
			Hidden:    len(e.reg.Hidden()),
			HiddenCap: e.reg.HiddenCap(),
			State:     e.state,
		}
		if w := e.reg.Input(); w != nil {
			st.Input = w.id
		}
		return nil
	})
	return st, err
}
