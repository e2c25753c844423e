package daemon

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"time"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks that the control socket still exists and
// relistens when something (a runtime dir cleaner, a second daemon) has
// removed it.
type Reconciler struct {
	interval   time.Duration
	socketPath func() string
	relisten   func() error
	logger     *slog.Logger
}

// NewReconciler creates a reconciler that calls relisten whenever the file
// named by socketPath is gone.
func NewReconciler(cfg ReconcilerConfig, socketPath func() string, relisten func() error) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{
		interval:   interval,
		socketPath: socketPath,
		relisten:   relisten,
		logger:     logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Debug("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("reconciler stopped")
			return
		case <-ticker.C:
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass.
func (r *Reconciler) reconcile() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	path := r.socketPath()
	_, err := os.Stat(path)
	if err == nil {
		return
	}
	if !errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("reconciler: failed to stat socket", "socket", path, "error", err)
		return
	}
	r.logger.Warn("reconciler: control socket removed, relistening", "socket", path)
	if err := r.relisten(); err != nil {
		r.logger.Error("reconciler: relisten failed", "socket", path, "error", err)
	}
}
