// Package geom holds the rectangle and point arithmetic shared by the window
// manager: clamping, border classification and the size policy applied to
// every window rectangle.
package geom

import "image"

// Zones of a window's 3x3 border grid, indexed 3*row+column.
const (
	TopLeft     = 0
	Top         = 1
	TopRight    = 2
	Left        = 3
	Center      = 4
	Right       = 5
	BottomLeft  = 6
	Bottom      = 7
	BottomRight = 8
)

// Metrics are the fixed sizes the window manager uses for hit testing and
// for the minimum window size.
type Metrics struct {
	Border      int // selection border width
	Band        int // corner/edge grab band
	MinWidth    int
	MinLines    int // minimum height of a new window, in font lines
	ScrollWidth int // width of the scroll bar inside the content area
	FontHeight  int
}

// DefaultMetrics returns the pixel metrics used by the X11 backend.
func DefaultMetrics() Metrics {
	return Metrics{
		Border:      4,
		Band:        20,
		MinWidth:    100,
		MinLines:    3,
		ScrollWidth: 12,
		FontHeight:  14,
	}
}

// MinHeight is the smallest committed height of a swept or resized window.
func (m Metrics) MinHeight() int {
	return m.MinLines * m.FontHeight
}

// Rect returns the canonical rectangle spanned by two points.
func Rect(p0, p1 image.Point) image.Rectangle {
	return image.Rectangle{Min: p0, Max: p1}.Canon()
}

// Onscreen clamps p to screen. The maximum edge is inclusive so a drag can
// reach the far border.
func Onscreen(p image.Point, screen image.Rectangle) image.Point {
	p.X = max(screen.Min.X, min(p.X, screen.Max.X))
	p.Y = max(screen.Min.Y, min(p.Y, screen.Max.Y))
	return p
}

// Portion classifies x within [lo, hi) as 0 (near lo), 1 (middle) or 2
// (near hi) using a band of the given width.
func Portion(x, lo, hi, band int) int {
	x -= lo
	hi -= lo
	if x < band {
		return 0
	}
	if x > hi-band {
		return 2
	}
	return 1
}

// WhichCorner returns the border zone of r containing p.
func WhichCorner(r image.Rectangle, p image.Point, band int) int {
	i := Portion(p.X, r.Min.X, r.Max.X, band)
	j := Portion(p.Y, r.Min.Y, r.Max.Y, band)
	return 3*j + i
}

// CornerPoint snaps p onto the corner or edge of r named by which. The
// coordinate along a grabbed edge is left untouched.
func CornerPoint(r image.Rectangle, p image.Point, which int) image.Point {
	switch which {
	case TopLeft:
		return r.Min
	case TopRight:
		return image.Pt(r.Max.X, r.Min.Y)
	case BottomLeft:
		return image.Pt(r.Min.X, r.Max.Y)
	case BottomRight:
		return r.Max
	case Top:
		return image.Pt(p.X, r.Min.Y)
	case Right:
		return image.Pt(r.Max.X, p.Y)
	case Bottom:
		return image.Pt(p.X, r.Max.Y)
	case Left:
		return image.Pt(r.Min.X, p.Y)
	}
	return p
}

// WhichRect moves the edges of r selected by which to p, keeping the
// opposite edges anchored.
func WhichRect(r image.Rectangle, p image.Point, which int) image.Rectangle {
	switch which {
	case TopLeft:
		r = image.Rect(p.X, p.Y, r.Max.X, r.Max.Y)
	case TopRight:
		r = image.Rect(r.Min.X, p.Y, p.X, r.Max.Y)
	case BottomLeft:
		r = image.Rect(p.X, r.Min.Y, r.Max.X, p.Y)
	case BottomRight:
		r = image.Rect(r.Min.X, r.Min.Y, p.X, p.Y)
	case Top:
		r = image.Rect(r.Min.X, p.Y, r.Max.X, r.Max.Y)
	case Right:
		r = image.Rect(r.Min.X, r.Min.Y, p.X, r.Max.Y)
	case Bottom:
		r = image.Rect(r.Min.X, r.Min.Y, r.Max.X, p.Y)
	case Left:
		r = image.Rect(p.X, r.Min.Y, r.Max.X, r.Max.Y)
	}
	return r.Canon()
}

// OnBorder reports whether p lies in r but outside its selection border.
func OnBorder(r image.Rectangle, p image.Point, border int) bool {
	return p.In(r) && !p.In(r.Inset(border))
}

// GoodRect reports whether r is an acceptable window rectangle on screen:
// canonical, at most three screens large, tall and wide enough to hold a
// line of text inside its border, overlapping the screen, and not so large
// that its border falls entirely outside the screen.
func GoodRect(r, screen image.Rectangle, m Metrics) bool {
	if r != r.Canon() {
		return false
	}
	const big = 3
	if r.Dx() > big*screen.Dx() || r.Dy() > big*screen.Dy() {
		return false
	}
	if r.Dx() < m.MinWidth || r.Dy() < 2*(m.Border+1)+m.FontHeight {
		return false
	}
	if !r.Overlaps(screen) {
		return false
	}
	inner := r.Inset(m.Border)
	if screen.In(inner) {
		return false
	}
	return true
}

// Scale maps r from a view of size from to a view of size to, both measured
// from the origin.
func Scale(r image.Rectangle, from, to image.Point) image.Rectangle {
	if from.X == 0 || from.Y == 0 {
		return r
	}
	return image.Rect(
		r.Min.X*to.X/from.X,
		r.Min.Y*to.Y/from.Y,
		r.Max.X*to.X/from.X,
		r.Max.Y*to.Y/from.Y,
	)
}

// Strips returns the parts of r left uncovered by t, in the order top,
// left, bottom, right. Strips may overlap each other.
func Strips(r, t image.Rectangle) []image.Rectangle {
	var out []image.Rectangle
	if r.Min.Y < t.Min.Y {
		out = append(out, image.Rect(r.Min.X, r.Min.Y, r.Max.X, t.Min.Y))
	}
	if r.Min.X < t.Min.X {
		out = append(out, image.Rect(r.Min.X, r.Min.Y, t.Min.X, r.Max.Y))
	}
	if r.Max.Y > t.Max.Y {
		out = append(out, image.Rect(r.Min.X, t.Max.Y, r.Max.X, r.Max.Y))
	}
	if r.Max.X > t.Max.X {
		out = append(out, image.Rect(t.Max.X, r.Min.Y, r.Max.X, r.Max.Y))
	}
	return out
}
