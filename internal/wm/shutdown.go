package wm

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Notes that end the process cleanly. Anything else is a fault.
var okNotes = []string{"delete", "hangup", "kill", "exit"}

// ShutdownHooks replace the process-level effects of a shutdown.
type ShutdownHooks struct {
	// Terminate signals the program with the given pid.
	Terminate func(pid int) error
	// Exit ends the process after a clean shutdown.
	Exit func(code int)
	// Abort ends the process after an unexpected note.
	Abort func(note string)
}

// Shutdown terminates every window's program and ends the process. It runs
// at most once however many triggers race.
type Shutdown struct {
	log   *slog.Logger
	reg   *Registry
	hooks ShutdownHooks
	once  sync.Once
}

// NewShutdown returns a Shutdown; zero hooks use the real process effects.
func NewShutdown(logger *slog.Logger, hooks ShutdownHooks) *Shutdown {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if hooks.Terminate == nil {
		hooks.Terminate = Terminate
	}
	if hooks.Exit == nil {
		hooks.Exit = os.Exit
	}
	if hooks.Abort == nil {
		hooks.Abort = abort
	}
	return &Shutdown{log: logger, hooks: hooks}
}

// Graceful reports whether note is one of the clean shutdown notes.
func Graceful(note string) bool {
	for _, ok := range okNotes {
		if strings.HasPrefix(note, ok) {
			return true
		}
	}
	return false
}

// Trigger shuts down with the given note.
func (s *Shutdown) Trigger(note string) {
	s.once.Do(func() {
		s.killProcs()
		if Graceful(note) {
			s.log.Info("shutting down", "note", note)
			s.hooks.Exit(0)
			return
		}
		s.log.Error("abort", "note", note)
		s.hooks.Abort(note)
	})
}

func (s *Shutdown) killProcs() {
	if s.reg == nil {
		return
	}
	seen := make(map[int]bool)
	for _, w := range s.reg.Windows() {
		pid := w.Pid()
		if pid <= 0 || seen[pid] {
			continue
		}
		seen[pid] = true
		if err := s.hooks.Terminate(pid); err != nil {
			s.log.Debug("terminate", "window", w.id, "pid", pid, "error", err)
		}
	}
}

// Terminate sends a hangup to the process group led by pid, or to pid
// alone when it leads no group.
func Terminate(pid int) error {
	err := unix.Kill(-pid, unix.SIGHUP)
	if errors.Is(err, unix.ESRCH) {
		err = unix.Kill(pid, unix.SIGHUP)
	}
	if err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("failed to signal %d: %w", pid, err)
	}
	return nil
}

func abort(note string) {
	debug.SetTraceback("all")
	panic("riotile: abort: " + note)
}
