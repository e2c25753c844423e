package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/1broseidon/riotile/internal/config"
	"github.com/1broseidon/riotile/internal/daemon"
)

func main() {
	if len(os.Args) > 1 {
		if run, ok := commands[os.Args[1]]; ok {
			os.Exit(run(os.Args[2:]))
		}
		switch os.Args[1] {
		case "help", "-h", "--help":
			printMainUsage(os.Stdout)
			os.Exit(0)
		}
	}
	os.Exit(runDaemon(os.Args[1:]))
}

var commands = map[string]func([]string) int{
	"new":    runNew,
	"list":   runList,
	"resize": runResize,
	"move":   runMove,
	"delete": runWindowCommand("delete"),
	"hide":   runWindowCommand("hide"),
	"unhide": runWindowCommand("unhide"),
	"top":    runWindowCommand("top"),
	"tile":   runTile,
	"status": runStatus,
	"config": runConfig,
	"mcp":    runMCP,
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: riotile [-s] [-i cmd] [-k cmd] [-backend x11|tty] [-config PATH]")
	fmt.Fprintln(w, "       riotile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Without a command riotile runs the window manager in the foreground.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  new [-r x,y,w,h] [-hide] [-s] [-dir DIR] [-label L] [cmd args...]")
	fmt.Fprintln(w, "                      Create a window")
	fmt.Fprintln(w, "  list [--json]       List windows")
	fmt.Fprintln(w, "  resize ID x,y,w,h   Give a window a new rectangle")
	fmt.Fprintln(w, "  move ID x,y         Move a window")
	fmt.Fprintln(w, "  delete ID           Close a window")
	fmt.Fprintln(w, "  hide ID             Hide a window")
	fmt.Fprintln(w, "  unhide ID           Show a hidden window")
	fmt.Fprintln(w, "  top ID              Raise a window and give it the keyboard")
	fmt.Fprintln(w, "  tile                Tile every window")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'riotile <command> --help' for command-specific options.")
}

// daemonFlags are rio's command line options plus the config overrides.
type daemonFlags struct {
	scrolling  bool
	initCmd    string
	keyboard   string
	backend    string
	configPath string
}

func parseDaemonFlags(args []string) (daemonFlags, error) {
	var f daemonFlags
	fs := flag.NewFlagSet("riotile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() { printMainUsage(os.Stderr) }
	fs.BoolVar(&f.scrolling, "s", false, "New windows scroll by default")
	fs.StringVar(&f.initCmd, "i", "", "Command to run once at startup")
	fs.StringVar(&f.keyboard, "k", "", "Command for the keyboard window")
	fs.StringVar(&f.backend, "backend", "", "Display backend: x11 or tty (default: from config)")
	fs.StringVar(&f.configPath, "config", "", "Config file path (default: ~/.config/riotile/config.yaml)")
	if err := fs.Parse(args); err != nil {
		return f, err
	}
	if fs.NArg() != 0 {
		return f, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	return f, nil
}

// apply layers the command line over the loaded config.
func (f daemonFlags) apply(cfg *config.Config) error {
	if f.scrolling {
		cfg.Scrolling = true
	}
	if f.initCmd != "" {
		cfg.InitCommand = f.initCmd
	}
	if f.keyboard != "" {
		cfg.KeyboardCommand = f.keyboard
	}
	if f.backend != "" {
		cfg.Backend = f.backend
	}
	return cfg.Validate()
}

func runDaemon(args []string) int {
	flags, err := parseDaemonFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	path := flags.configPath
	if path == "" {
		path, err = config.DefaultConfigPath()
		if err != nil {
			log.Fatalf("Failed to locate configuration: %v", err)
		}
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := res.Config
	if err := flags.apply(cfg); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	level := new(slog.LevelVar)
	level.Set(cfg.SlogLevel())
	logger := newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level)

	err = daemon.Run(context.Background(), daemon.Options{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Level:      level,
	})
	if err != nil {
		log.Fatalf("riotile: %v", err)
	}
	return 0
}

// newLogger logs text to a terminal and JSON everywhere else.
func newLogger(w io.Writer, tty bool, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if tty {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
