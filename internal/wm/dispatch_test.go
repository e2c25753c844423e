package wm

import (
	"image"
	"testing"
	"time"

	"github.com/1broseidon/riotile/internal/display"
)

// twoWindows creates A on the left and B on the right; B ends up focused.
func twoWindows(t *testing.T, e *testEngine) (a, b *Window, ca, cb *stubClient) {
	t.Helper()
	a, ca = e.newWindow(t, image.Rect(100, 100, 400, 300))
	b, cb = e.newWindow(t, image.Rect(500, 100, 800, 300))
	return a, b, ca, cb
}

func TestDispatch_ClickRaisesAndFocuses(t *testing.T) {
	e := newTestEngine(t, Options{})
	a, b, ca, _ := twoWindows(t, e)
	if e.reg.Input() != b {
		t.Fatal("newest window not focused")
	}

	e.script(mouse(200, 200, 1), mouse(200, 200, 0))
	e.handleMouse()

	if e.reg.Input() != a {
		t.Fatalf("input = %v, want window A", e.reg.Input())
	}
	if !e.reg.Topmost(a) {
		t.Fatal("clicked window not raised")
	}
	if n := ca.miceCount(); n != 0 {
		t.Fatalf("focusing click was forwarded: %d samples", n)
	}
	if e.state != Idle {
		t.Fatalf("state = %v, want idle", e.state)
	}
}

func TestDispatch_ButtonOneSendsToFocusedWindow(t *testing.T) {
	e := newTestEngine(t, Options{})
	_, b, _, cb := twoWindows(t, e)

	e.script(mouse(600, 200, 1))
	e.handleMouse()
	if e.state != Sending {
		t.Fatalf("state = %v, want sending", e.state)
	}
	e.mc.Mouse = mouse(650, 210, 0)
	e.handleMouse()
	if e.state != Idle {
		t.Fatalf("state after release = %v, want idle", e.state)
	}
	waitFor(t, "forwarded samples", func() bool { return cb.miceCount() == 2 })

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if got := cb.mice[1].Point; got != image.Pt(650, 210) {
		t.Fatalf("release point = %v, want (650,210)", got)
	}
	if e.reg.Input() != b {
		t.Fatal("focus changed while sending")
	}
}

func TestDispatch_ScrollGoesToFocusedWindow(t *testing.T) {
	e := newTestEngine(t, Options{})
	_, _, ca, cb := twoWindows(t, e)

	e.script(mouse(200, 200, display.ScrollDown))
	e.handleMouse()
	waitFor(t, "scroll sample", func() bool { return cb.miceCount() == 1 })
	if ca.miceCount() != 0 {
		t.Fatal("scroll went to the window under the pointer")
	}
}

func TestDispatch_ScrollBarDragLatches(t *testing.T) {
	e := newTestEngine(t, Options{})
	_, b, _, cb := twoWindows(t, e)

	// Press in B's scroll bar, drag into the text, release there.
	samples := []display.Mouse{
		mouse(508, 200, display.Button3),
		mouse(700, 200, display.Button3),
		mouse(700, 200, 0),
	}
	want := []State{Sending, Sending, Idle}
	e.script(samples[0])
	for i, m := range samples {
		e.mc.Mouse = m
		e.handleMouse()
		if e.state != want[i] {
			t.Fatalf("sample %d: state = %v, want %v", i, e.state, want[i])
		}
		if i == 1 && !e.scrolling {
			t.Fatal("scroll drag dropped after leaving the scroll bar")
		}
	}
	waitFor(t, "forwarded samples", func() bool { return cb.miceCount() == 3 })
	if e.scrolling {
		t.Fatal("scroll drag still latched after release")
	}
	if e.reg.Input() != b {
		t.Fatal("focus changed during scroll drag")
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if got := cb.mice[1]; got.Buttons != display.Button3 || got.Point != image.Pt(700, 200) {
		t.Fatalf("drag sample = %+v", got)
	}
}

func TestDispatch_BorderDragMovesFocusedWindow(t *testing.T) {
	e := newTestEngine(t, Options{})
	a, _, _, _ := twoWindows(t, e)
	e.current(a)

	e.script(mouse(101, 200, display.Button3), mouse(151, 200, display.Button3), mouse(151, 200, 0))
	e.handleMouse()

	if want := image.Rect(150, 100, 450, 300); a.screenr != want {
		t.Fatalf("rect after drag = %v, want %v", a.screenr, want)
	}
	if !e.reg.Topmost(a) || e.reg.Input() != a {
		t.Fatal("dragged window not raised and focused")
	}
	if e.moving {
		t.Fatal("moving flag left set")
	}
}

func TestDispatch_BorderResizeFocusedWindow(t *testing.T) {
	e := newTestEngine(t, Options{})
	a, _, ca, _ := twoWindows(t, e)
	e.current(a)

	e.script(mouse(399, 299, display.Button1), mouse(400, 300, display.Button1),
		mouse(450, 420, display.Button1), mouse(450, 420, 0))
	e.handleMouse()

	want := image.Rect(100, 100, 450, 420)
	if a.screenr != want {
		t.Fatalf("rect after resize = %v, want %v", a.screenr, want)
	}
	waitFor(t, "client resize", func() bool {
		ca.mu.Lock()
		defer ca.mu.Unlock()
		return len(ca.resizes) > 0 && ca.resizes[len(ca.resizes)-1] == want
	})
}

func TestDispatch_MenuOnBackground(t *testing.T) {
	e := newTestEngine(t, Options{EnableExit: true})
	twoWindows(t, e)

	e.script(mouse(950, 700, display.Button3), mouse(950, 700, 0))
	e.handleMouse()

	if len(e.disp.Menus) != 1 {
		t.Fatalf("menus shown = %d, want 1", len(e.disp.Menus))
	}
	want := []string{"New", "Resize", "Move", "Delete", "Hide", "Tile", "Exit"}
	got := e.disp.Menus[0]
	if len(got) != len(want) {
		t.Fatalf("menu = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("menu item %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDispatch_MenuHidePicksWindow(t *testing.T) {
	e := newTestEngine(t, Options{})
	a, _, _, _ := twoWindows(t, e)
	e.disp.ChooseMenu(menu3Hide)

	e.script(mouse(950, 700, display.Button3), mouse(950, 700, 0),
		mouse(200, 200, display.Button3), mouse(200, 200, 0))
	e.handleMouse()

	if !e.reg.IsHidden(a) {
		t.Fatal("window A not hidden")
	}
	if !a.screenr.Empty() {
		t.Fatalf("hidden window still has screen rect %v", a.screenr)
	}
	if e.reg.PointTo(image.Pt(200, 200)) != nil {
		t.Fatal("hidden window still hit by the pointer")
	}
}

func TestDispatch_MenuListsHiddenAndCoveredWindows(t *testing.T) {
	e := newTestEngine(t, Options{})
	a, b, _, _ := twoWindows(t, e)
	a.SetLabel("alpha")
	b.SetLabel("beta")
	c, _ := e.newWindow(t, image.Rect(100, 100, 400, 300))
	c.SetLabel("gamma")
	if err := e.hide(b); err != nil {
		t.Fatalf("hide error: %v", err)
	}
	e.disp.ChooseMenu(6 + 1)

	e.script(mouse(950, 700, display.Button3), mouse(950, 700, 0))
	e.handleMouse()

	items := e.disp.Menus[0]
	if len(items) != 8 || items[6] != "beta" || items[7] != "alpha" {
		t.Fatalf("menu = %v, want hidden beta then covered alpha", items)
	}
	if e.reg.Input() != a || !e.reg.Topmost(a) {
		t.Fatal("choosing a covered window did not raise and focus it")
	}
}

func TestDispatch_KeyboardButtonGoesToKeyboardWindow(t *testing.T) {
	e := newTestEngine(t, Options{})
	if err := e.StartKeyboard("kbd"); err != nil {
		t.Fatalf("StartKeyboard error: %v", err)
	}
	if got, want := e.wkeyboard.screenr, image.Rect(0, 0, 300, 80); got != want {
		t.Fatalf("keyboard window at %v, want %v", got, want)
	}
	kc := e.wkeyboard.Client().(*stubClient)
	a, _ := e.newWindow(t, image.Rect(100, 100, 400, 300))

	e.script(mouse(5, 5, display.ButtonKeyboard), mouse(5, 5, 0))
	e.handleMouse()
	waitFor(t, "keyboard press and release", func() bool { return kc.miceCount() == 2 })

	if e.reg.Input() != a {
		t.Fatal("keyboard toggle changed the focus")
	}
	e.current(e.wkeyboard)
	if e.reg.Input() != a {
		t.Fatal("keyboard window took the focus")
	}
}

func TestDispatch_RunStopsWhenFeedEnds(t *testing.T) {
	e := newTestEngine(t, Options{})
	c := make(chan display.Mouse)
	e.mc = display.NewMousectl(c, nil)
	errc := make(chan error, 1)
	go func() { errc <- e.Run(t.Context()) }()
	close(c)
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the pointer feed closed")
	}
}
