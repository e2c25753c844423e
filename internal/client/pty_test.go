package client

import (
	"image"
	"log/slog"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
	"github.com/1broseidon/riotile/internal/wm"
)

func testSpawner() *Spawner {
	m := geom.Metrics{Border: 4, Band: 20, MinWidth: 100, MinLines: 3, ScrollWidth: 12, FontHeight: 10}
	return &Spawner{Metrics: m, CharWidth: 5}
}

func startPty(t *testing.T, cmd wm.Command) *Pty {
	t.Helper()
	c, err := testSpawner().start(1, cmd)
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c.(*Pty)
}

func waitExited(t *testing.T, c wm.Client) {
	t.Helper()
	select {
	case <-c.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("program did not exit")
	}
}

func TestPty_OutputAndExit(t *testing.T) {
	p := startPty(t, wm.Command{Path: "/bin/sh", Args: []string{"-c", "printf 'one\\ntwo\\n'; echo $RIOTILE_WINDOW"}})
	waitExited(t, p)

	lines := p.Lines()
	for _, want := range []string{"one", "two", "1"} {
		if !slices.Contains(lines, want) {
			t.Fatalf("Lines() = %q, missing %q", lines, want)
		}
	}
	if p.Pid() <= 0 {
		t.Fatalf("Pid() = %d", p.Pid())
	}
}

func TestPty_SendEchoes(t *testing.T) {
	p := startPty(t, wm.Command{Path: "/bin/sh", Args: []string{"-c", "read line; echo got:$line"}})
	p.Send("hello\n")
	waitExited(t, p)

	if !slices.Contains(p.Lines(), "got:hello") {
		t.Fatalf("Lines() = %q", p.Lines())
	}
}

func TestPty_Hangup(t *testing.T) {
	p := startPty(t, wm.Command{Path: "/bin/sh", Args: []string{"-c", "sleep 30"}})
	if err := p.Hangup(); err != nil {
		t.Fatalf("Hangup() error = %v", err)
	}
	waitExited(t, p)
}

func TestPty_ResizeSetsRows(t *testing.T) {
	p := startPty(t, wm.Command{Path: "/bin/sh", Args: []string{"-c", "stty size"}})
	// 4px border, 10px lines, 5px columns and a 12px scroll bar.
	p.Resize(image.Rect(0, 0, 4+12+50*5+4, 4+7*10+4))
	waitExited(t, p)

	f := p.Frame()
	if len(f.Lines) > 7 {
		t.Fatalf("Frame shows %d lines, want at most 7", len(f.Lines))
	}
}

func TestView_MouseSelectsLines(t *testing.T) {
	v := testSpawner().newView()
	v.Append(strings.Repeat("line\n", 20))
	v.resize(image.Rect(100, 100, 400, 204))

	// Rows start below the 4px border, 10px apart.
	v.mouse(display.Mouse{Point: image.Pt(150, 106), Buttons: display.Button1})
	v.mouse(display.Mouse{Point: image.Pt(150, 126), Buttons: display.Button1})
	v.mouse(display.Mouse{Point: image.Pt(150, 126)})
	if from, to := v.Selected(); from != 0 || to != 3 {
		t.Fatalf("selection = [%d,%d), want [0,3)", from, to)
	}

	v.mouse(display.Mouse{Point: image.Pt(150, 126), Buttons: display.Button1})
	v.mouse(display.Mouse{Point: image.Pt(150, 106), Buttons: display.Button1})
	if from, to := v.Selected(); from != 0 || to != 3 {
		t.Fatalf("upward sweep selection = [%d,%d), want [0,3)", from, to)
	}

	v.mouse(display.Mouse{Buttons: display.ScrollDown})
	if v.Origin() != wheelLines {
		t.Fatalf("origin after wheel = %d, want %d", v.Origin(), wheelLines)
	}
}

func TestAdopt(t *testing.T) {
	v := testSpawner().newView()
	a, err := adopt(os.Getpid(), v, testLogger())
	if err != nil {
		t.Fatalf("adopt() error = %v", err)
	}
	defer a.Close()
	if a.Pid() != os.Getpid() || a.Rawing() || a.MouseOpen() {
		t.Fatal("unexpected adopted client state")
	}

	if _, err := adopt(1<<22+7, v, testLogger()); err == nil {
		t.Fatal("adopting a missing pid succeeded")
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
