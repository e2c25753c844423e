package wm

import (
	"image"
	"slices"
	"sync"
	"sync/atomic"
)

// Registry holds the managed windows, the hidden set and the input focus.
// Only the dispatcher mutates it; other goroutines take snapshots.
type Registry struct {
	mu      sync.RWMutex
	windows []*Window
	hidden  []*Window
	hidcap  int
	topped  int
	input   atomic.Pointer[Window]
}

// NewRegistry returns an empty registry whose hidden set holds at most
// hiddenCap windows.
func NewRegistry(hiddenCap int) *Registry {
	return &Registry{hidcap: hiddenCap}
}

// Register adds w. The registry owns the window's initial reference.
func (r *Registry) Register(w *Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = append(r.windows, w)
}

// Unregister removes w from every collection and clears the focus if w had
// it. The caller then drops the registry's reference.
func (r *Registry) Unregister(w *Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.windows = slices.DeleteFunc(r.windows, func(x *Window) bool { return x == w })
	r.hidden = slices.DeleteFunc(r.hidden, func(x *Window) bool { return x == w })
	r.input.CompareAndSwap(w, nil)
}

// Windows returns the windows in registry order.
func (r *Registry) Windows() []*Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.windows)
}

// Len returns the number of windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.windows)
}

// Lookup returns the window with the given id.
func (r *Registry) Lookup(id int) *Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.windows {
		if w.id == id {
			return w
		}
	}
	return nil
}

// Hidden returns the hidden set in hiding order.
func (r *Registry) Hidden() []*Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.hidden)
}

// HiddenCap returns the capacity of the hidden set.
func (r *Registry) HiddenCap() int {
	return r.hidcap
}

// HiddenFull reports whether no more windows can be hidden.
func (r *Registry) HiddenFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hidden) >= r.hidcap
}

// IsHidden reports whether w is in the hidden set.
func (r *Registry) IsHidden(w *Window) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.hidden, w)
}

// Hide adds w to the hidden set.
func (r *Registry) Hide(w *Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.hidden, w) {
		return ErrAlreadyHidden
	}
	if len(r.hidden) >= r.hidcap {
		return ErrHiddenFull
	}
	r.hidden = append(r.hidden, w)
	return nil
}

// Unhide removes w from the hidden set.
func (r *Registry) Unhide(w *Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.hidden, w)
	if i < 0 {
		return ErrNotHidden
	}
	r.hidden = slices.Delete(r.hidden, i, i+1)
	return nil
}

// Raise gives w the next topped rank.
func (r *Registry) Raise(w *Window) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topped++
	w.topped = r.topped
}

// Topmost reports whether w holds the highest rank handed out.
func (r *Registry) Topmost(w *Window) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return w.topped == r.topped
}

// SortByTopped orders the windows bottom to top, keeping the existing
// order among equal ranks.
func (r *Registry) SortByTopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	slices.SortStableFunc(r.windows, func(a, b *Window) int {
		return a.topped - b.topped
	})
}

// Input returns the window receiving input, or nil.
func (r *Registry) Input() *Window {
	return r.input.Load()
}

// SetInput changes the input focus.
func (r *Registry) SetInput(w *Window) {
	r.input.Store(w)
}

// AcquireInput returns the focused window with a reference taken, or nil.
// The caller must Release it.
func (r *Registry) AcquireInput() *Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w := r.input.Load()
	if w == nil || !slices.Contains(r.windows, w) {
		return nil
	}
	w.Acquire()
	return w
}

// PointTo returns the highest window whose screen rectangle contains p.
func (r *Registry) PointTo(p image.Point) *Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *Window
	for _, w := range r.windows {
		if w.Deleted() || !p.In(w.screenr) {
			continue
		}
		if best == nil || w.topped > best.topped {
			best = w
		}
	}
	return best
}
