package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metrics are the window manager's pixel (or cell) sizes. A zero font
// height means the backend's own.
type Metrics struct {
	Border      int `yaml:"border" toml:"border"`
	Band        int `yaml:"band" toml:"band"`
	MinWidth    int `yaml:"min_width" toml:"min_width"`
	MinLines    int `yaml:"min_lines" toml:"min_lines"`
	ScrollWidth int `yaml:"scroll_width" toml:"scroll_width"`
	FontHeight  int `yaml:"font_height" toml:"font_height"`
}

// Hotkeys are the chords handled by the keyboard actor. An empty chord is
// disabled.
type Hotkeys struct {
	CycleForward  string `yaml:"cycle_forward" toml:"cycle_forward"`
	CycleBackward string `yaml:"cycle_backward" toml:"cycle_backward"`
	NewWindow     string `yaml:"new_window" toml:"new_window"`
	Tile          string `yaml:"tile" toml:"tile"`
}

// Config is the effective configuration of the daemon.
type Config struct {
	LogLevel        string   `yaml:"log_level" toml:"log_level"`
	Backend         string   `yaml:"backend" toml:"backend"`
	Shell           string   `yaml:"shell" toml:"shell"`
	ShellArgs       []string `yaml:"shell_args" toml:"shell_args"`
	Scrolling       bool     `yaml:"scrolling" toml:"scrolling"`
	InitCommand     string   `yaml:"init_command" toml:"init_command"`
	KeyboardCommand string   `yaml:"keyboard_command" toml:"keyboard_command"`
	EnableExit      bool     `yaml:"enable_exit" toml:"enable_exit"`
	HiddenCapacity  int      `yaml:"hidden_capacity" toml:"hidden_capacity"`
	DeleteGraceMS   int      `yaml:"delete_grace_ms" toml:"delete_grace_ms"`
	SnarfMaxBytes   int      `yaml:"snarf_max_bytes" toml:"snarf_max_bytes"`
	PlumbCommand    string   `yaml:"plumb_command" toml:"plumb_command"`
	MenuBackend     string   `yaml:"menu_backend" toml:"menu_backend"`
	Metrics         Metrics  `yaml:"metrics" toml:"metrics"`
	Hotkeys         Hotkeys  `yaml:"hotkeys" toml:"hotkeys"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return &Config{
		LogLevel:       "info",
		Backend:        "x11",
		Shell:          shell,
		ShellArgs:      []string{"-i"},
		HiddenCapacity: 32,
		DeleteGraceMS:  750,
		SnarfMaxBytes:  256 * 1024,
		MenuBackend:    "builtin",
		Metrics: Metrics{
			Border:      4,
			Band:        20,
			MinWidth:    100,
			MinLines:    3,
			ScrollWidth: 12,
		},
		Hotkeys: Hotkeys{
			CycleForward:  "Mod4-j",
			CycleBackward: "Mod4-k",
			NewWindow:     "Mod4-n",
			Tile:          "Mod4-t",
		},
	}
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Save writes the configuration as YAML to path.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original file.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.LogLevel != "debug" && c.LogLevel != "info" && c.LogLevel != "warning" && c.LogLevel != "error" {
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warning, error")}
	}
	switch c.Backend {
	case "x11", "tty":
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: x11, tty")}
	}
	if strings.TrimSpace(c.Shell) == "" {
		return &ValidationError{Path: "shell", Err: fmt.Errorf("shell is required")}
	}
	if c.HiddenCapacity < 1 {
		return &ValidationError{Path: "hidden_capacity", Err: fmt.Errorf("hidden_capacity must be >= 1")}
	}
	if c.DeleteGraceMS < 0 {
		return &ValidationError{Path: "delete_grace_ms", Err: fmt.Errorf("delete_grace_ms must be >= 0")}
	}
	if c.SnarfMaxBytes < 1 {
		return &ValidationError{Path: "snarf_max_bytes", Err: fmt.Errorf("snarf_max_bytes must be >= 1")}
	}
	switch c.MenuBackend {
	case "builtin", "auto", "rofi", "dmenu", "fuzzel", "wofi":
	default:
		return &ValidationError{Path: "menu_backend", Err: fmt.Errorf("menu_backend must be one of: builtin, auto, rofi, dmenu, fuzzel, wofi")}
	}
	if err := validateMetrics(c.Metrics); err != nil {
		return err
	}
	for path, chord := range map[string]string{
		"hotkeys.cycle_forward":  c.Hotkeys.CycleForward,
		"hotkeys.cycle_backward": c.Hotkeys.CycleBackward,
		"hotkeys.new_window":     c.Hotkeys.NewWindow,
		"hotkeys.tile":           c.Hotkeys.Tile,
	} {
		if strings.ContainsAny(chord, " \t") {
			return &ValidationError{Path: path, Err: fmt.Errorf("hotkey %q must not contain whitespace", chord)}
		}
	}
	return nil
}

func validateMetrics(m Metrics) error {
	checks := []struct {
		path  string
		value int
		min   int
	}{
		{"metrics.border", m.Border, 0},
		{"metrics.band", m.Band, 1},
		{"metrics.min_width", m.MinWidth, 1},
		{"metrics.min_lines", m.MinLines, 1},
		{"metrics.scroll_width", m.ScrollWidth, 0},
		{"metrics.font_height", m.FontHeight, 0},
	}
	for _, ch := range checks {
		if ch.value < ch.min {
			return &ValidationError{Path: ch.path, Err: fmt.Errorf("%s must be >= %d", ch.path[len("metrics."):], ch.min)}
		}
	}
	if m.Band < m.Border {
		return &ValidationError{Path: "metrics.band", Err: fmt.Errorf("band must be >= border")}
	}
	return nil
}
