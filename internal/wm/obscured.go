package wm

import (
	"image"

	"github.com/1broseidon/riotile/internal/geom"
)

// Layer is a window as seen by the obscured test: its screen rectangle and
// z-order rank.
type Layer struct {
	Rect   image.Rectangle
	Topped int
}

// IsFullyObscured reports whether region r of layers[target] is covered by
// layers ranked above it. Regions thinner than a font line in either
// dimension, or entirely off screen, count as covered.
//
// The search subtracts each covering layer and recurses on the strips left
// over; its depth is bounded by four times the number of layers, and a
// region still unresolved at the bound counts as visible.
func IsFullyObscured(layers []Layer, target int, r, screen image.Rectangle, fontHeight int) bool {
	return obscured(layers, target, r, screen, fontHeight, 0, 4*len(layers)+4)
}

func obscured(layers []Layer, target int, r, screen image.Rectangle, fontHeight, i, depth int) bool {
	if r.Dx() < fontHeight || r.Dy() < fontHeight {
		return true
	}
	r = r.Intersect(screen)
	if r.Empty() {
		return true
	}
	if depth == 0 {
		return false
	}
	w := layers[target]
	for ; i < len(layers); i++ {
		t := layers[i]
		if i == target || t.Topped <= w.Topped {
			continue
		}
		if t.Rect.Dx() == 0 || t.Rect.Dy() == 0 || !r.Overlaps(t.Rect) {
			continue
		}
		for _, s := range geom.Strips(r, t.Rect) {
			if !obscured(layers, target, s, screen, fontHeight, i, depth-1) {
				return false
			}
		}
		return true
	}
	return false
}

// layers snapshots the registry for the obscured test and returns the
// index of w, or -1.
func (e *Engine) layers(w *Window) ([]Layer, int) {
	ws := e.reg.Windows()
	out := make([]Layer, len(ws))
	target := -1
	for i, x := range ws {
		out[i] = Layer{Rect: x.screenr, Topped: x.topped}
		if x == w {
			target = i
		}
	}
	return out, target
}

// obscured reports whether w's rectangle r is hidden behind higher windows.
func (e *Engine) obscured(w *Window, r image.Rectangle) bool {
	ls, target := e.layers(w)
	if target < 0 {
		return false
	}
	return IsFullyObscured(ls, target, r, e.view, e.metrics.FontHeight)
}
