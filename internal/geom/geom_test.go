package geom

import (
	"image"
	"testing"
)

func TestPortion(t *testing.T) {
	tests := []struct {
		x, lo, hi int
		want      int
	}{
		{x: 0, lo: 0, hi: 300, want: 0},
		{x: 19, lo: 0, hi: 300, want: 0},
		{x: 20, lo: 0, hi: 300, want: 1},
		{x: 280, lo: 0, hi: 300, want: 1},
		{x: 281, lo: 0, hi: 300, want: 2},
		{x: 130, lo: 100, hi: 400, want: 1},
		{x: 105, lo: 100, hi: 400, want: 0},
	}
	for _, tt := range tests {
		if got := Portion(tt.x, tt.lo, tt.hi, 20); got != tt.want {
			t.Errorf("Portion(%d, %d, %d) = %d, want %d", tt.x, tt.lo, tt.hi, got, tt.want)
		}
	}
}

func TestWhichCorner(t *testing.T) {
	r := image.Rect(100, 100, 400, 300)
	tests := []struct {
		name string
		p    image.Point
		want int
	}{
		{"top left", image.Pt(101, 101), TopLeft},
		{"top edge", image.Pt(250, 105), Top},
		{"top right", image.Pt(399, 101), TopRight},
		{"left edge", image.Pt(102, 200), Left},
		{"center", image.Pt(250, 200), Center},
		{"right edge", image.Pt(395, 200), Right},
		{"bottom left", image.Pt(101, 299), BottomLeft},
		{"bottom edge", image.Pt(250, 295), Bottom},
		{"bottom right", image.Pt(399, 299), BottomRight},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WhichCorner(r, tt.p, 20); got != tt.want {
				t.Fatalf("WhichCorner(%v) = %d, want %d", tt.p, got, tt.want)
			}
		})
	}
}

func TestWhichRectAnchorsOppositeEdges(t *testing.T) {
	r := image.Rect(100, 100, 400, 300)
	p := image.Pt(50, 60)
	tests := []struct {
		which int
		want  image.Rectangle
	}{
		{TopLeft, image.Rect(50, 60, 400, 300)},
		{Top, image.Rect(100, 60, 400, 300)},
		{Left, image.Rect(50, 100, 400, 300)},
		{BottomRight, image.Rect(50, 60, 100, 100)},
		{Center, r},
	}
	for _, tt := range tests {
		if got := WhichRect(r, p, tt.which); got != tt.want {
			t.Errorf("WhichRect(which=%d) = %v, want %v", tt.which, got, tt.want)
		}
	}
}

func TestCornerPoint(t *testing.T) {
	r := image.Rect(100, 100, 400, 300)
	p := image.Pt(250, 110)
	if got := CornerPoint(r, p, Top); got != image.Pt(250, 100) {
		t.Fatalf("CornerPoint(Top) = %v", got)
	}
	if got := CornerPoint(r, p, BottomRight); got != image.Pt(400, 300) {
		t.Fatalf("CornerPoint(BottomRight) = %v", got)
	}
	if got := CornerPoint(r, p, Center); got != p {
		t.Fatalf("CornerPoint(Center) = %v, want %v", got, p)
	}
}

func TestOnscreenClampsInclusive(t *testing.T) {
	screen := image.Rect(0, 0, 1024, 768)
	if got := Onscreen(image.Pt(-5, 900), screen); got != image.Pt(0, 768) {
		t.Fatalf("Onscreen = %v, want (0,768)", got)
	}
	if got := Onscreen(image.Pt(10, 20), screen); got != image.Pt(10, 20) {
		t.Fatalf("Onscreen moved an inside point: %v", got)
	}
}

func TestOnBorder(t *testing.T) {
	r := image.Rect(0, 0, 300, 80)
	if !OnBorder(r, image.Pt(1, 40), 4) {
		t.Fatal("expected point inside left border band")
	}
	if OnBorder(r, image.Pt(150, 40), 4) {
		t.Fatal("content point reported as border")
	}
	if OnBorder(r, image.Pt(400, 40), 4) {
		t.Fatal("outside point reported as border")
	}
}

func TestGoodRect(t *testing.T) {
	screen := image.Rect(0, 0, 1024, 768)
	m := DefaultMetrics()
	tests := []struct {
		name string
		r    image.Rectangle
		want bool
	}{
		{"normal", image.Rect(10, 10, 400, 300), true},
		{"too narrow", image.Rect(10, 10, 99, 300), false},
		{"too short", image.Rect(10, 10, 400, 10+2*(m.Border+1)+m.FontHeight-1), false},
		{"off screen", image.Rect(2000, 2000, 2400, 2300), false},
		{"border off screen", image.Rect(-10, -10, 1034, 778), false},
		{"full screen", screen, true},
		{"huge", image.Rect(0, 0, 4000, 300), false},
		{"not canonical", image.Rectangle{Min: image.Pt(400, 300), Max: image.Pt(10, 10)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GoodRect(tt.r, screen, m); got != tt.want {
				t.Fatalf("GoodRect(%v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestScale(t *testing.T) {
	got := Scale(image.Rect(100, 100, 500, 300), image.Pt(1000, 800), image.Pt(2000, 400))
	if want := image.Rect(200, 50, 1000, 150); got != want {
		t.Fatalf("Scale = %v, want %v", got, want)
	}
	r := image.Rect(1, 2, 3, 4)
	if got := Scale(r, image.Point{}, image.Pt(10, 10)); got != r {
		t.Fatalf("Scale with empty source = %v, want unchanged", got)
	}
}

func TestStrips(t *testing.T) {
	r := image.Rect(0, 0, 300, 80)
	t1 := image.Rect(0, 0, 150, 80)
	strips := Strips(r, t1)
	if len(strips) != 1 || strips[0] != image.Rect(150, 0, 300, 80) {
		t.Fatalf("Strips = %v, want right half only", strips)
	}
	if got := Strips(r, image.Rect(-10, -10, 400, 100)); len(got) != 0 {
		t.Fatalf("Strips under full cover = %v, want none", got)
	}
	if got := Strips(r, image.Rect(100, 20, 200, 60)); len(got) != 4 {
		t.Fatalf("Strips around centered cover = %d, want 4", len(got))
	}
}
