package config

import (
	"fmt"
	"strings"
)

// Explain returns the effective value at the given YAML-like path and its source.
//
// Supported paths are the top-level keys plus metrics.<name> and
// hotkeys.<name>, for example:
//
//	log_level
//	backend
//	hidden_capacity
//	metrics.border
//	hotkeys.tile
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	value, err := lookupValue(res.Config, path)
	if err != nil {
		return nil, Source{}, err
	}
	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault, Name: "defaults"}, nil
}

func lookupValue(cfg *Config, path string) (any, error) {
	parts := strings.Split(path, ".")
	if len(parts) == 2 {
		switch parts[0] {
		case "metrics":
			return lookupMetric(cfg.Metrics, parts[1], path)
		case "hotkeys":
			return lookupHotkey(cfg.Hotkeys, parts[1], path)
		}
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	if len(parts) != 1 {
		return nil, fmt.Errorf("unknown path: %s", path)
	}
	switch path {
	case "log_level":
		return cfg.LogLevel, nil
	case "backend":
		return cfg.Backend, nil
	case "shell":
		return cfg.Shell, nil
	case "shell_args":
		return cfg.ShellArgs, nil
	case "scrolling":
		return cfg.Scrolling, nil
	case "init_command":
		return cfg.InitCommand, nil
	case "keyboard_command":
		return cfg.KeyboardCommand, nil
	case "enable_exit":
		return cfg.EnableExit, nil
	case "hidden_capacity":
		return cfg.HiddenCapacity, nil
	case "delete_grace_ms":
		return cfg.DeleteGraceMS, nil
	case "snarf_max_bytes":
		return cfg.SnarfMaxBytes, nil
	case "plumb_command":
		return cfg.PlumbCommand, nil
	case "menu_backend":
		return cfg.MenuBackend, nil
	case "metrics":
		return cfg.Metrics, nil
	case "hotkeys":
		return cfg.Hotkeys, nil
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}

func lookupMetric(m Metrics, name, path string) (any, error) {
	switch name {
	case "border":
		return m.Border, nil
	case "band":
		return m.Band, nil
	case "min_width":
		return m.MinWidth, nil
	case "min_lines":
		return m.MinLines, nil
	case "scroll_width":
		return m.ScrollWidth, nil
	case "font_height":
		return m.FontHeight, nil
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}

func lookupHotkey(h Hotkeys, name, path string) (any, error) {
	switch name {
	case "cycle_forward":
		return h.CycleForward, nil
	case "cycle_backward":
		return h.CycleBackward, nil
	case "new_window":
		return h.NewWindow, nil
	case "tile":
		return h.Tile, nil
	}
	return nil, fmt.Errorf("unknown path: %s", path)
}
