package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
	if cfg.HiddenCapacity != 32 || cfg.DeleteGraceMS != 750 {
		t.Fatalf("unexpected defaults: hidden_capacity=%d delete_grace_ms=%d", cfg.HiddenCapacity, cfg.DeleteGraceMS)
	}
}

func TestLoadFromPath_EmptyFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "# empty\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend != "x11" {
		t.Fatalf("expected backend x11, got %q", res.Config.Backend)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	res, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(res.Files) != 0 {
		t.Fatalf("expected no files, got %v", res.Files)
	}
}

func TestLoadFromPath_OverridesAndExplain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, strings.Join([]string{
		"backend: tty",
		"scrolling: true",
		"metrics:",
		"  border: 1",
		"  band: 2",
		"hotkeys:",
		"  tile: Mod1-t",
		"",
	}, "\n"))

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Backend != "tty" || !cfg.Scrolling {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.Metrics.Border != 1 || cfg.Metrics.Band != 2 || cfg.Metrics.MinWidth != 100 {
		t.Fatalf("metrics = %+v", cfg.Metrics)
	}
	if cfg.Hotkeys.Tile != "Mod1-t" || cfg.Hotkeys.CycleForward != "Mod4-j" {
		t.Fatalf("hotkeys = %+v", cfg.Hotkeys)
	}

	val, src, err := Explain(res, "metrics.band")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if val != 2 || src.Kind != SourceFile || src.Line != 5 {
		t.Fatalf("explain metrics.band = %v from %+v", val, src)
	}
	_, src, err = Explain(res, "hidden_capacity")
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	if src.Kind != SourceDefault {
		t.Fatalf("expected default source, got %+v", src)
	}
	if _, _, err := Explain(res, "metrics.nope"); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestLoadFromPath_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "no_such_key: 1\n")

	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFromPath_ValidationErrorHasSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "log_level: info\nhidden_capacity: 0\n")

	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "hidden_capacity" || verr.Source.Line != 2 {
		t.Fatalf("unexpected validation error: %+v", verr)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected line number in error, got %q", err.Error())
	}
}

func TestLoadFromPath_IncludeOrderAndCycle(t *testing.T) {
	dir := t.TempDir()
	incDir := filepath.Join(dir, "conf.d")
	if err := os.Mkdir(incDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(incDir, "10-base.yaml"), "shell: /bin/zsh\nhidden_capacity: 8\n")
	writeFile(t, filepath.Join(incDir, "20-more.toml"), "hidden_capacity = 16\n[metrics]\nborder = 2\n")
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "include: conf.d\nshell: /bin/bash\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := res.Config
	if cfg.Shell != "/bin/bash" {
		t.Fatalf("main file should win, shell = %q", cfg.Shell)
	}
	if cfg.HiddenCapacity != 16 || cfg.Metrics.Border != 2 {
		t.Fatalf("later include should win: hidden_capacity=%d border=%d", cfg.HiddenCapacity, cfg.Metrics.Border)
	}
	if len(res.Files) != 3 {
		t.Fatalf("expected 3 files, got %v", res.Files)
	}

	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "include: b.yaml\n")
	writeFile(t, b, "include: a.yaml\n")
	if _, err := LoadFromPath(a); err == nil || !strings.Contains(err.Error(), "include cycle") {
		t.Fatalf("expected include cycle error, got %v", err)
	}
}

func TestLoadFromPath_TOMLIncludeString(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "base.yaml"), "scrolling: true\nhidden_capacity: 4\n")
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "include = \"base.yaml\"\nhidden_capacity = 5\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !res.Config.Scrolling || res.Config.HiddenCapacity != 5 {
		t.Fatalf("scrolling=%v hidden_capacity=%d", res.Config.Scrolling, res.Config.HiddenCapacity)
	}
	if len(res.Files) != 2 || filepath.Base(res.Files[1]) != "config.toml" {
		t.Fatalf("files = %v", res.Files)
	}
}

func TestLoadFromPath_TOMLUnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "backend = \"tty\"\nbogus = true\n")

	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad backend", func(c *Config) { c.Backend = "wayland" }, "backend"},
		{"empty shell", func(c *Config) { c.Shell = " " }, "shell"},
		{"negative grace", func(c *Config) { c.DeleteGraceMS = -1 }, "delete_grace_ms"},
		{"bad menu backend", func(c *Config) { c.MenuBackend = "zenity" }, "menu_backend"},
		{"zero band", func(c *Config) { c.Metrics.Band = 0 }, "metrics.band"},
		{"band below border", func(c *Config) { c.Metrics.Border = 30 }, "metrics.band"},
		{"hotkey with space", func(c *Config) { c.Hotkeys.Tile = "Mod4 t" }, "hotkeys.tile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("path = %q, want %q", verr.Path, tt.path)
			}
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for level, want := range tests {
		cfg := DefaultConfig()
		cfg.LogLevel = level
		if got := cfg.SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", level, got, want)
		}
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Backend = "tty"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Backend != "tty" {
		t.Fatalf("backend = %q, want tty", res.Config.Backend)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "log_level: info\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan *LoadResult, 4)
	errs := make(chan error, 4)
	if err := Watch(ctx, path, func(r *LoadResult) { changes <- r }, func(err error) { errs <- err }); err != nil {
		t.Fatalf("watch: %v", err)
	}

	writeFile(t, path, "log_level: debug\n")
	select {
	case res := <-changes:
		if res.Config.LogLevel != "debug" {
			t.Fatalf("reloaded log_level = %q, want debug", res.Config.LogLevel)
		}
	case err := <-errs:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	writeFile(t, path, "log_level: shouting\n")
	select {
	case err := <-errs:
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	case <-changes:
		t.Fatal("invalid config was applied")
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload error")
	}
}
