package wm

import (
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/display/displaytest"
)

var testScreen = image.Rect(0, 0, 1024, 768)

type stubClient struct {
	mu        sync.Mutex
	pid       int
	sel       string
	sent      []string
	pasted    []string
	keys      []display.Key
	mice      []display.Mouse
	resizes   []image.Rectangle
	scrolling bool
	mouseOpen bool
	hangups   int
	closes    int

	updated chan struct{}
	exited  chan struct{}
	exitOne sync.Once
}

func newStubClient(pid int) *stubClient {
	return &stubClient{pid: pid, updated: make(chan struct{}, 1), exited: make(chan struct{})}
}

func (c *stubClient) Selection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

func (c *stubClient) Cut() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sel
	c.sel = ""
	return s
}

func (c *stubClient) Paste(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pasted = append(c.pasted, s)
}

func (c *stubClient) Send(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, s)
}

func (c *stubClient) Look() bool { return false }

func (c *stubClient) SetScrolling(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrolling = on
}

func (c *stubClient) Pid() int     { return c.pid }
func (c *stubClient) Rawing() bool { return false }

func (c *stubClient) MouseOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mouseOpen
}

func (c *stubClient) Key(k display.Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, k)
}

func (c *stubClient) Mouse(m display.Mouse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mice = append(c.mice, m)
}

func (c *stubClient) Resize(r image.Rectangle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resizes = append(c.resizes, r)
}

func (c *stubClient) Frame() display.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return display.Frame{Lines: []string{c.sel}}
}

func (c *stubClient) Updated() <-chan struct{} { return c.updated }
func (c *stubClient) Exited() <-chan struct{}  { return c.exited }

func (c *stubClient) Hangup() error {
	c.mu.Lock()
	c.hangups++
	c.mu.Unlock()
	c.exit()
	return nil
}

func (c *stubClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *stubClient) exit() {
	c.exitOne.Do(func() { close(c.exited) })
}

func (c *stubClient) miceCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mice)
}

type stubSpawner struct {
	mu      sync.Mutex
	clients []*stubClient
	cmds    []Command
	err     error
	delay   time.Duration
}

func (s *stubSpawner) Spawn(w *Window, cmd Command) (Client, error) {
	time.Sleep(s.delay)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, cmd)
	if s.err != nil {
		return nil, s.err
	}
	c := newStubClient(1000 + len(s.clients))
	s.clients = append(s.clients, c)
	return c, nil
}

type stubSnarf struct {
	mu  sync.Mutex
	buf string
}

func (s *stubSnarf) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf
}

func (s *stubSnarf) Put(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = v
}

type testEngine struct {
	*Engine
	disp    *displaytest.Display
	spawner *stubSpawner
	snarf   *stubSnarf
}

func newTestEngine(t *testing.T, opts Options) *testEngine {
	t.Helper()
	d := displaytest.New(testScreen)
	sp := &stubSpawner{}
	sn := &stubSnarf{}
	if opts.DeleteGrace == 0 {
		opts.DeleteGrace = time.Millisecond
	}
	e := NewEngine(Deps{
		Display: d,
		Mouse:   display.NewMousectl(make(chan display.Mouse), nil),
		Spawner: sp,
		Snarf:   sn,
	}, opts)
	return &testEngine{Engine: e, disp: d, spawner: sp, snarf: sn}
}

// script replaces the pointer feed with the given samples.
func (te *testEngine) script(samples ...display.Mouse) {
	te.mc = displaytest.Script(samples...)
}

func (te *testEngine) newWindow(t *testing.T, r image.Rectangle) (*Window, *stubClient) {
	t.Helper()
	w, err := te.NewWindow(NewWindowRequest{Rect: r})
	if err != nil {
		t.Fatalf("NewWindow(%v) error: %v", r, err)
	}
	return w, w.Client().(*stubClient)
}

// unlinkNext performs the next pending unlink as the dispatcher would.
func (te *testEngine) unlinkNext(t *testing.T) *Window {
	t.Helper()
	select {
	case w := <-te.closec:
		te.unlink(w)
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for unlink request")
	}
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitDone(t *testing.T, w *Window) {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("window %d actor did not exit", w.ID())
	}
}

var errSpawn = errors.New("spawn failed")

func mouse(x, y, buttons int) display.Mouse {
	return displaytest.M(x, y, buttons)
}

func (c *stubClient) setSelection(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sel = s
}
