package wm

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/display/displaytest"
)

func TestGraceful(t *testing.T) {
	tests := []struct {
		note string
		want bool
	}{
		{"delete", true},
		{"hangup", true},
		{"kill", true},
		{"exit", true},
		{"exit: menu", true},
		{"interrupt", false},
		{"sys: trap: fault", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Graceful(tt.note); got != tt.want {
			t.Errorf("Graceful(%q) = %v, want %v", tt.note, got, tt.want)
		}
	}
}

type shutdownRecorder struct {
	mu     sync.Mutex
	killed map[int]int
	exits  atomic.Int32
	aborts atomic.Int32
}

func (r *shutdownRecorder) hooks() ShutdownHooks {
	return ShutdownHooks{
		Terminate: func(pid int) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.killed[pid]++
			return nil
		},
		Exit:  func(int) { r.exits.Add(1) },
		Abort: func(string) { r.aborts.Add(1) },
	}
}

func registryWithPids(pids ...int) *Registry {
	reg := NewRegistry(8)
	for i, pid := range pids {
		w := newWindow(nil, i+1, false)
		w.pid = pid
		reg.Register(w)
	}
	return reg
}

func TestShutdown_RunsOnceUnderConcurrentTriggers(t *testing.T) {
	rec := &shutdownRecorder{killed: make(map[int]int)}
	s := NewShutdown(nil, rec.hooks())
	s.reg = registryWithPids(101, 102, 103, 0)

	var wg sync.WaitGroup
	for _, note := range []string{"exit", "hangup", "delete", "kill"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Trigger(note)
		}()
	}
	wg.Wait()

	if n := rec.exits.Load(); n != 1 {
		t.Fatalf("exit called %d times, want 1", n)
	}
	if n := rec.aborts.Load(); n != 0 {
		t.Fatalf("abort called %d times, want 0", n)
	}
	for _, pid := range []int{101, 102, 103} {
		if n := rec.killed[pid]; n != 1 {
			t.Errorf("pid %d signalled %d times, want 1", pid, n)
		}
	}
	if _, ok := rec.killed[0]; ok {
		t.Error("window without a program was signalled")
	}
}

func TestShutdown_UnexpectedNoteAborts(t *testing.T) {
	rec := &shutdownRecorder{killed: make(map[int]int)}
	s := NewShutdown(nil, rec.hooks())
	s.reg = registryWithPids(7)

	s.Trigger("sys: trap: fault")
	s.Trigger("exit")

	if rec.aborts.Load() != 1 || rec.exits.Load() != 0 {
		t.Fatalf("aborts=%d exits=%d, want 1 and 0", rec.aborts.Load(), rec.exits.Load())
	}
	if rec.killed[7] != 1 {
		t.Fatalf("pid 7 signalled %d times, want 1", rec.killed[7])
	}
}

func TestShutdown_EngineWiresRegistry(t *testing.T) {
	rec := &shutdownRecorder{killed: make(map[int]int)}
	s := NewShutdown(nil, rec.hooks())
	sp := &stubSpawner{}
	e := NewEngine(Deps{
		Display:  displaytest.New(testScreen),
		Mouse:    display.NewMousectl(make(chan display.Mouse), nil),
		Spawner:  sp,
		Shutdown: s,
	}, Options{})
	if _, err := e.NewWindow(NewWindowRequest{Rect: testScreen.Inset(100)}); err != nil {
		t.Fatalf("NewWindow error: %v", err)
	}

	s.Trigger("exit")
	if rec.killed[1000] != 1 {
		t.Fatalf("window program not signalled: %v", rec.killed)
	}
}
