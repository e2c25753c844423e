// Package daemon assembles the window manager: a display backend, the
// dispatcher, the keyboard actor, the control socket and config reloads.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/1broseidon/riotile/internal/client"
	"github.com/1broseidon/riotile/internal/config"
	"github.com/1broseidon/riotile/internal/display"
	"github.com/1broseidon/riotile/internal/geom"
	"github.com/1broseidon/riotile/internal/hotkeys"
	"github.com/1broseidon/riotile/internal/ipc"
	"github.com/1broseidon/riotile/internal/menu"
	"github.com/1broseidon/riotile/internal/plumb"
	"github.com/1broseidon/riotile/internal/snarf"
	"github.com/1broseidon/riotile/internal/tty"
	"github.com/1broseidon/riotile/internal/wm"
	"github.com/1broseidon/riotile/internal/x11"
)

// Options configure Run.
type Options struct {
	Config *config.Config
	// ConfigPath is watched for changes; empty disables live reload.
	ConfigPath string
	// SocketPath overrides the default control socket.
	SocketPath string
	// Backend, when set, is used instead of opening Config.Backend.
	Backend display.Backend
	Logger  *slog.Logger
	// Level, when set, follows log_level across reloads.
	Level *slog.LevelVar
	// ReconcileInterval is how often the control socket is checked.
	ReconcileInterval time.Duration
	// Exit replaces os.Exit after a shutdown note.
	Exit func(code int)
}

// signalNotes maps the signals the daemon handles onto shutdown notes.
var signalNotes = map[os.Signal]string{
	os.Interrupt:    "delete",
	syscall.SIGHUP:  "hangup",
	syscall.SIGTERM: "kill",
}

// Run starts the window manager and blocks until ctx is done, the display
// goes away or a shutdown note ends the process. A display that cannot be
// reattached after a resize is returned as an error.
func Run(ctx context.Context, opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	exit := opts.Exit
	if exit == nil {
		exit = os.Exit
	}

	backend := opts.Backend
	if backend == nil {
		var err error
		backend, err = openBackend(cfg, logger)
		if err != nil {
			return err
		}
	}
	var closeOnce sync.Once
	closeBackend := func() {
		closeOnce.Do(func() {
			if err := backend.Close(); err != nil {
				logger.Warn("failed to close display", "error", err)
			}
		})
	}
	defer closeBackend()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctl := &control{logger: logger, socketPath: opts.SocketPath}
	down := wm.NewShutdown(logger, wm.ShutdownHooks{
		Exit: func(code int) {
			ctl.stop()
			closeBackend()
			exit(code)
		},
	})

	metrics := backend.Metrics()
	engine := wm.NewEngine(wm.Deps{
		Display: backend,
		Mouse:   display.NewMousectl(backend.Mouse(), backend.Resize()),
		Spawner: &client.Spawner{
			Metrics:   metrics,
			CharWidth: charWidth(backend, metrics),
			Logger:    logger,
		},
		Snarf:    snarf.New(cfg.SnarfMaxBytes, logger),
		Plumb:    plumb.New(cfg.PlumbCommand, logger),
		Shutdown: down,
		Logger:   logger,
	}, wm.Options{
		Shell:       cfg.Shell,
		ShellArgs:   cfg.ShellArgs,
		Scrolling:   cfg.Scrolling,
		EnableExit:  cfg.EnableExit,
		HiddenCap:   cfg.HiddenCapacity,
		DeleteGrace: time.Duration(cfg.DeleteGraceMS) * time.Millisecond,
	})
	ctl.engine = engine

	keys := hotkeys.NewHandler(engine, hotkeys.ForwardToInput(engine.Registry()), logger)
	if err := keys.Apply(cfg.Hotkeys); err != nil {
		return fmt.Errorf("failed to apply hotkeys: %w", err)
	}

	if err := ctl.start(); err != nil {
		return err
	}
	defer ctl.stop()

	runErr := make(chan error, 1)
	go func() { runErr <- engine.Run(ctx) }()
	go keys.Run(ctx, backend.Keys())

	reconciler := NewReconciler(ReconcilerConfig{Interval: opts.ReconcileInterval, Logger: logger}, ctl.path, ctl.restart)
	go reconciler.Run(ctx)

	if cfg.KeyboardCommand != "" {
		if err := engine.Exec(ctx, func() error { return engine.StartKeyboard(cfg.KeyboardCommand) }); err != nil {
			cancel()
			<-runErr
			return fmt.Errorf("can't create keyboard window: %w", err)
		}
	}
	if cfg.InitCommand != "" {
		runInit(cfg.Shell, cfg.InitCommand, logger)
	}

	if opts.ConfigPath != "" {
		err := config.Watch(ctx, opts.ConfigPath, func(res *config.LoadResult) {
			if err := keys.Apply(res.Config.Hotkeys); err != nil {
				logger.Warn("config reload: hotkeys not applied", "error", err)
			}
			if opts.Level != nil {
				opts.Level.Set(res.Config.SlogLevel())
			}
			logger.Info("config reloaded", "files", len(res.Files))
		}, func(err error) {
			logger.Warn("config reload failed, keeping previous config", "error", err)
		})
		if err != nil {
			logger.Warn("config watch disabled", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal", "signal", sig)
			down.Trigger(signalNotes[sig])
		case <-ctx.Done():
		}
	}()

	logger.Info("riotile started", "backend", cfg.Backend, "screen", backend.Bounds())
	err := <-runErr
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("display lost: %w", err)
	}
	return nil
}

func openBackend(cfg *config.Config, logger *slog.Logger) (display.Backend, error) {
	m := geom.Metrics(cfg.Metrics)
	switch cfg.Backend {
	case "tty":
		if cfg.Metrics == config.DefaultConfig().Metrics {
			m = tty.DefaultMetrics()
		}
		d, err := tty.Open(tty.Options{Metrics: m, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("failed to open terminal: %w", err)
		}
		return d, nil
	default:
		var menus menu.Backend
		if cfg.MenuBackend != "builtin" {
			b, err := menu.New(cfg.MenuBackend)
			if err != nil {
				logger.Warn("external menus unavailable, using built-in", "error", err)
			} else {
				menus = b
			}
		}
		d, err := x11.Open(x11.Options{Metrics: m, Menu: menus, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to display: %w", err)
		}
		return d, nil
	}
}

func charWidth(b display.Backend, m geom.Metrics) int {
	if cw, ok := b.(interface{ CharWidth() int }); ok && cw.CharWidth() > 0 {
		return cw.CharWidth()
	}
	return max(1, m.FontHeight/2)
}

// runInit starts the init command through the shell and reaps it.
func runInit(shell, command string, logger *slog.Logger) {
	cmd := exec.Command(shell, "-c", command)
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		logger.Warn("failed to run init command", "command", command, "error", err)
		return
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Warn("init command failed", "command", command, "error", err)
		}
	}()
}

// control owns the ipc server so the reconciler can replace it.
type control struct {
	logger     *slog.Logger
	socketPath string
	engine     *wm.Engine

	mu  sync.Mutex
	srv *ipc.Server
}

func (c *control) start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	srv, err := ipc.NewServer(c.engine, c.socketPath, c.logger)
	if err != nil {
		return fmt.Errorf("failed to create IPC server: %w", err)
	}
	if err := srv.Start(); err != nil {
		return err
	}
	c.socketPath = srv.SocketPath()
	c.srv = srv
	return nil
}

func (c *control) stop() {
	c.mu.Lock()
	srv := c.srv
	c.srv = nil
	c.mu.Unlock()
	if srv != nil {
		srv.Stop()
	}
}

func (c *control) restart() error {
	c.stop()
	return c.start()
}

func (c *control) path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socketPath
}
