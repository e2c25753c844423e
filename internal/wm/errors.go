package wm

import "errors"

var (
	// ErrNoWindow is returned when a window id does not name a live window.
	ErrNoWindow = errors.New("no such window")
	// ErrHiddenFull is returned when the hidden set has no free slot.
	ErrHiddenFull = errors.New("hidden window list full")
	// ErrAlreadyHidden is returned when hiding a window that is hidden.
	ErrAlreadyHidden = errors.New("window already hidden")
	// ErrNotHidden is returned when unhiding a window that is not hidden.
	ErrNotHidden = errors.New("window not hidden")
	// ErrNoSurface is returned when the display cannot allocate a surface.
	ErrNoSurface = errors.New("cannot allocate surface")
	// ErrDeleted is returned for operations on a window being deleted.
	ErrDeleted = errors.New("window deleted")
	// ErrCancelled is returned when an interactive operation was abandoned.
	ErrCancelled = errors.New("operation cancelled")
	// ErrBadRect is returned for rectangles that fail the size policy.
	ErrBadRect = errors.New("bad window rectangle")
	// ErrShuttingDown is returned by requests made after the engine stopped.
	ErrShuttingDown = errors.New("window manager shutting down")
)
