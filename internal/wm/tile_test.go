package wm

import (
	"image"
	"slices"
	"testing"
)

func TestGrid(t *testing.T) {
	tests := []struct {
		n      int
		xtiles int
		ytiles int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 2, 2},
		{5, 3, 2},
		{6, 3, 2},
		{7, 3, 3},
		{9, 3, 3},
		{10, 4, 3},
	}
	for _, tt := range tests {
		x, y := Grid(tt.n)
		if x != tt.xtiles || y != tt.ytiles {
			t.Errorf("Grid(%d) = %dx%d, want %dx%d", tt.n, x, y, tt.xtiles, tt.ytiles)
		}
		if tt.n > 0 && x*y < tt.n {
			t.Errorf("Grid(%d) has only %d cells", tt.n, x*y)
		}
	}
}

func TestTileRects_TruncatesLeftoverPixels(t *testing.T) {
	screen := image.Rect(10, 20, 1011, 721)
	got := TileRects(3, screen)
	want := []image.Rectangle{
		image.Rect(10, 20, 510, 370),
		image.Rect(510, 20, 1010, 370),
		image.Rect(10, 370, 510, 720),
	}
	if !slices.Equal(got, want) {
		t.Fatalf("TileRects(3) = %v, want %v", got, want)
	}
}

func TestTile_IdempotentAndStacked(t *testing.T) {
	e := newTestEngine(t, Options{})
	var ws []*Window
	for i := 0; i < 3; i++ {
		w, _ := e.newWindow(t, image.Rect(100+10*i, 100, 400+10*i, 300))
		ws = append(ws, w)
	}
	e.topMe(ws[0])

	e.Tile()
	first := make([]image.Rectangle, len(ws))
	for i, w := range ws {
		first[i] = w.screenr
	}
	want := TileRects(3, testScreen)
	if !slices.Equal(first, want) {
		t.Fatalf("tiled rects = %v, want %v", first, want)
	}

	e.Tile()
	for i, w := range ws {
		if w.screenr != first[i] {
			t.Fatalf("retile moved window %d: %v -> %v", w.ID(), first[i], w.screenr)
		}
	}

	stack := e.disp.Stack()
	if top := stack[len(stack)-1]; top != ws[0].surf.Name() {
		t.Fatalf("top of stack = %s, want window 1's surface %s", top, ws[0].surf.Name())
	}
}

func TestTile_KeepsHiddenWindowsHidden(t *testing.T) {
	e := newTestEngine(t, Options{})
	a, _ := e.newWindow(t, image.Rect(100, 100, 400, 300))
	b, _ := e.newWindow(t, image.Rect(200, 200, 500, 400))
	if err := e.hide(a); err != nil {
		t.Fatalf("hide error: %v", err)
	}

	e.Tile()
	cells := TileRects(2, testScreen)
	if !e.reg.IsHidden(a) || !a.screenr.Empty() {
		t.Fatalf("hidden window shown by tile: screenr=%v", a.screenr)
	}
	if a.geometry() != cells[0] {
		t.Fatalf("hidden window cell = %v, want %v", a.geometry(), cells[0])
	}
	if b.screenr != cells[1] {
		t.Fatalf("visible window rect = %v, want %v", b.screenr, cells[1])
	}

	if err := e.unhide(a); err != nil {
		t.Fatalf("unhide error: %v", err)
	}
	if a.screenr != cells[0] {
		t.Fatalf("unhidden window rect = %v, want %v", a.screenr, cells[0])
	}
}
