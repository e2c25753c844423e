// Package hotkeys routes the keyboard feed: configured chords become
// window manager commands and every other key goes to the input window.
package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/riotile/internal/config"
	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/wm"
)

// Action is a window manager command bound to a chord.
type Action int

const (
	CycleForward Action = iota
	CycleBackward
	NewWindow
	Tile
)

func (a Action) String() string {
	switch a {
	case CycleForward:
		return "cycle_forward"
	case CycleBackward:
		return "cycle_backward"
	case NewWindow:
		return "new_window"
	case Tile:
		return "tile"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Controller runs hotkey actions.
type Controller interface {
	CycleFocus(ctx context.Context, forward bool) error
	NewTiled(ctx context.Context) error
	TileWindows(ctx context.Context) error
}

type binding struct {
	chord  Chord
	action Action
}

// Handler owns the keyboard feed.
type Handler struct {
	ctl     Controller
	forward func(display.Key)
	log     *slog.Logger

	mu       sync.RWMutex
	bindings []binding
}

// ForwardToInput returns a key sink that delivers to the registry's
// current input window, if any.
func ForwardToInput(reg *wm.Registry) func(display.Key) {
	return func(k display.Key) {
		w := reg.AcquireInput()
		if w == nil {
			return
		}
		w.SendKey(k)
		w.Release()
	}
}

// NewHandler creates a handler that runs actions on ctl and passes
// unbound keys to forward.
func NewHandler(ctl Controller, forward func(display.Key), logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{ctl: ctl, forward: forward, log: logger}
}

// Apply replaces every binding with those in hk. Empty entries leave the
// action unbound. Nothing changes if any sequence fails to parse.
func (h *Handler) Apply(hk config.Hotkeys) error {
	seqs := []struct {
		action Action
		seq    string
	}{
		{CycleForward, hk.CycleForward},
		{CycleBackward, hk.CycleBackward},
		{NewWindow, hk.NewWindow},
		{Tile, hk.Tile},
	}
	var next []binding
	for _, s := range seqs {
		if s.seq == "" {
			continue
		}
		c, err := ParseChord(s.seq)
		if err != nil {
			return fmt.Errorf("hotkey %s: %w", s.action, err)
		}
		next = append(next, binding{chord: c, action: s.action})
	}
	h.mu.Lock()
	h.bindings = next
	h.mu.Unlock()
	h.log.Debug("hotkeys applied", "count", len(next))
	return nil
}

// Register binds one more chord to action.
func (h *Handler) Register(seq string, action Action) error {
	c, err := ParseChord(seq)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.bindings = append(h.bindings, binding{chord: c, action: action})
	h.mu.Unlock()
	return nil
}

// Lookup returns the action bound to k.
func (h *Handler) Lookup(k display.Key) (Action, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, b := range h.bindings {
		if b.chord.Match(k) {
			return b.action, true
		}
	}
	return 0, false
}

// Run reads keys until the feed closes or ctx is done.
func (h *Handler) Run(ctx context.Context, keys <-chan display.Key) {
	for {
		select {
		case <-ctx.Done():
			return
		case k, ok := <-keys:
			if !ok {
				return
			}
			h.handle(ctx, k)
		}
	}
}

func (h *Handler) handle(ctx context.Context, k display.Key) {
	action, ok := h.Lookup(k)
	if !ok {
		if h.forward != nil {
			h.forward(k)
		}
		return
	}
	var err error
	switch action {
	case CycleForward:
		err = h.ctl.CycleFocus(ctx, true)
	case CycleBackward:
		err = h.ctl.CycleFocus(ctx, false)
	case NewWindow:
		err = h.ctl.NewTiled(ctx)
	case Tile:
		err = h.ctl.TileWindows(ctx)
	}
	if err != nil {
		h.log.Warn("hotkey failed", "action", action, "error", err)
	}
}
