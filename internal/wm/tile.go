package wm

import "image"

// Grid returns the tile grid for n windows. Starting from one column and no
// rows, rows and columns are added alternately, rows first, until the grid
// has at least n cells: 1 window gives 1x1, 2 give two columns in one row,
// 3 and 4 give 2x2, 5 and 6 give three columns in two rows.
func Grid(n int) (xtiles, ytiles int) {
	if n < 1 {
		return 0, 0
	}
	xtiles, ytiles = 1, 0
	for k := 1; xtiles*ytiles < n; k++ {
		if k%2 == 0 {
			xtiles++
		} else {
			ytiles++
		}
	}
	return xtiles, ytiles
}

// TileRects returns the cell of each of n windows in registry order. Cells
// have the same size; pixels left over by the integer division stay
// uncovered along the right and bottom edges.
func TileRects(n int, screen image.Rectangle) []image.Rectangle {
	xtiles, ytiles := Grid(n)
	if xtiles == 0 {
		return nil
	}
	sw := screen.Dx() / xtiles
	sh := screen.Dy() / ytiles
	out := make([]image.Rectangle, n)
	for i := range out {
		x := sw * (i % xtiles)
		y := sh * ((i / xtiles) % ytiles)
		out[i] = image.Rect(x, y, x+sw, y+sh).Add(screen.Min)
	}
	return out
}

// Tile lays every window out on the grid. Hidden windows keep a detached
// surface sized for their cell, so unhiding them puts them in place.
func (e *Engine) Tile() {
	ws := e.reg.Windows()
	if len(ws) == 0 {
		return
	}
	rects := TileRects(len(ws), e.view)
	for i, w := range ws {
		if w.Deleted() {
			continue
		}
		w.Borrow(func(w *Window) {
			hidden := e.reg.IsHidden(w)
			s, err := e.disp.Alloc(rects[i], !hidden)
			if err != nil {
				e.log.Warn("tile: allocate surface", "window", w.id, "error", err)
				return
			}
			r := rects[i]
			if hidden {
				r = image.Rectangle{}
			}
			e.sendCtl(w, Reshaped, r, s)
		})
	}
	e.restack()
	e.flush()
}
