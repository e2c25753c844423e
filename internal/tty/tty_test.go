package tty

import (
	"image"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/1broseidon/riotile/internal/display"
)

func newTestDisplay(t *testing.T) (*Display, tcell.SimulationScreen) {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	d, err := New(s, Options{})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, s
}

// row returns the runes of screen row y from x0 to x1.
func row(s tcell.SimulationScreen, y, x0, x1 int) string {
	cells, w, _ := s.GetContents()
	var b strings.Builder
	for x := x0; x < x1; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Runes[0])
	}
	return b.String()
}

func TestNew_BoundsFromTerminal(t *testing.T) {
	d, _ := newTestDisplay(t)
	if got := d.Bounds(); got != image.Rect(0, 0, 80, 25) {
		t.Fatalf("Bounds() = %v", got)
	}
	if d.Metrics() != DefaultMetrics() {
		t.Fatalf("Metrics() = %+v", d.Metrics())
	}
}

func TestSurface_DrawsFrame(t *testing.T) {
	d, s := newTestDisplay(t)
	surf, err := d.Alloc(image.Rect(0, 0, 20, 6), true)
	if err != nil {
		t.Fatalf("Alloc() error: %v", err)
	}
	err = surf.Draw(display.Frame{Label: "rc", Lines: []string{"hello", "world"}, Current: true})
	if err != nil {
		t.Fatalf("Draw() error: %v", err)
	}

	if got := row(s, 0, 0, 6); got != "┌─ rc " {
		t.Fatalf("top border = %q", got)
	}
	if got := row(s, 1, 2, 7); got != "hello" {
		t.Fatalf("first line = %q", got)
	}
	if got := row(s, 2, 2, 7); got != "world" {
		t.Fatalf("second line = %q", got)
	}
	if got := row(s, 5, 0, 1); got != "└" {
		t.Fatalf("bottom corner = %q", got)
	}
}

func TestSurface_ClipsLongLines(t *testing.T) {
	d, s := newTestDisplay(t)
	surf, _ := d.Alloc(image.Rect(0, 0, 8, 4), true)
	_ = surf.Draw(display.Frame{Lines: []string{"abcdefghij", "x", "y", "z"}})

	// 8 wide: border, scroll bar, 5 text cells, border.
	if got := row(s, 1, 2, 8); got != "abcde│" {
		t.Fatalf("clipped line = %q", got)
	}
	if got := row(s, 3, 2, 3); got != "─" {
		t.Fatalf("rows past the surface were drawn over the border: %q", got)
	}
}

func TestOffscreenAndFree(t *testing.T) {
	d, s := newTestDisplay(t)
	a, _ := d.Alloc(image.Rect(0, 0, 20, 6), true)
	_ = a.Draw(display.Frame{Lines: []string{"visible"}})
	hidden, _ := d.Alloc(image.Rect(30, 0, 50, 6), false)
	_ = hidden.Draw(display.Frame{Lines: []string{"hidden"}})

	if got := row(s, 1, 32, 38); strings.TrimSpace(got) != "" {
		t.Fatalf("detached surface drawn: %q", got)
	}
	if !d.Offscreen(a.Name()) {
		t.Fatal("Offscreen() did not find the surface")
	}
	if a.Onscreen() {
		t.Fatal("surface still onscreen")
	}
	if got := row(s, 1, 2, 9); strings.TrimSpace(got) != "" {
		t.Fatalf("offscreen surface still drawn: %q", got)
	}

	d.Free(a)
	if d.Offscreen(a.Name()) {
		t.Fatal("freed surface still known")
	}
	d.Free(nil)
}

func TestRaise_ChangesOverlap(t *testing.T) {
	d, s := newTestDisplay(t)
	a, _ := d.Alloc(image.Rect(0, 0, 20, 6), true)
	b, _ := d.Alloc(image.Rect(0, 0, 20, 6), true)
	_ = a.Draw(display.Frame{Lines: []string{"aaaa"}})
	_ = b.Draw(display.Frame{Lines: []string{"bbbb"}})

	if got := row(s, 1, 2, 6); got != "bbbb" {
		t.Fatalf("top surface = %q, want bbbb", got)
	}
	d.Raise(a)
	if got := row(s, 1, 2, 6); got != "aaaa" {
		t.Fatalf("after Raise = %q, want aaaa", got)
	}
}

func TestOutline(t *testing.T) {
	d, s := newTestDisplay(t)
	d.Outline(image.Rect(10, 10, 15, 13))
	if got := row(s, 10, 10, 15); got != "┌───┐" {
		t.Fatalf("outline top = %q", got)
	}
	d.Outline(image.Rectangle{})
	if got := row(s, 10, 10, 15); strings.TrimSpace(got) != "" {
		t.Fatalf("outline not removed: %q", got)
	}
}

func TestMenu_RemembersLastHit(t *testing.T) {
	d, s := newTestDisplay(t)
	items := []string{"New", "Delete"}

	// Pressed over the first row, released on the second.
	c := make(chan display.Mouse, 2)
	c <- display.Mouse{Point: image.Pt(40, 14), Buttons: display.Button3}
	c <- display.Mouse{Point: image.Pt(40, 14)}
	close(c)
	mc := display.NewMousectl(c, nil)
	mc.Mouse = display.Mouse{Point: image.Pt(40, 13), Buttons: display.Button3}
	if got := d.Menu(display.Button3, mc, items); got != 1 {
		t.Fatalf("Menu() = %d, want 1", got)
	}
	for y := 12; y < 16; y++ {
		if got := row(s, y, 30, 50); strings.Contains(got, "Delete") {
			t.Fatalf("menu left on screen at row %d: %q", y, got)
		}
	}

	// The next menu opens with that row under the pointer.
	mc.Mouse = display.Mouse{Point: image.Pt(40, 12)}
	if got := d.Menu(display.Button3, mc, items); got != 1 {
		t.Fatalf("Menu() = %d, want 1 under the pointer", got)
	}
	if got := d.Menu(display.Button3, mc, nil); got != -1 {
		t.Fatalf("empty Menu() = %d", got)
	}
}

func TestInput_InjectedEvents(t *testing.T) {
	d, s := newTestDisplay(t)

	s.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
	s.InjectKey(tcell.KeyEnter, '\r', tcell.ModNone)
	s.InjectMouse(5, 6, tcell.ButtonSecondary, tcell.ModNone)

	for _, want := range []display.Key{{Rune: 'x', Name: "x"}, {Name: "Return"}} {
		select {
		case k := <-d.Keys():
			if k != want {
				t.Fatalf("key = %+v, want %+v", k, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %+v", want)
		}
	}
	select {
	case m := <-d.Mouse():
		if m.Point != image.Pt(5, 6) || m.Buttons != display.Button3 {
			t.Fatalf("mouse = %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for mouse")
	}
}

func TestClose_EndsFeeds(t *testing.T) {
	d, _ := newTestDisplay(t)
	if err := d.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, ok := <-d.Keys(); ok {
		t.Fatal("key feed still open")
	}
	if err := d.Flush(); err != display.ErrClosed {
		t.Fatalf("Flush() after Close = %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
}
