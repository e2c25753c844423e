package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// UnmarshalTOML accepts the same two shapes from TOML.
func (l *IncludeList) UnmarshalTOML(v any) error {
	switch v := v.(type) {
	case string:
		*l = []string{v}
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, s)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

type RawMetrics struct {
	Border      *int `yaml:"border" toml:"border"`
	Band        *int `yaml:"band" toml:"band"`
	MinWidth    *int `yaml:"min_width" toml:"min_width"`
	MinLines    *int `yaml:"min_lines" toml:"min_lines"`
	ScrollWidth *int `yaml:"scroll_width" toml:"scroll_width"`
	FontHeight  *int `yaml:"font_height" toml:"font_height"`
}

type RawHotkeys struct {
	CycleForward  *string `yaml:"cycle_forward" toml:"cycle_forward"`
	CycleBackward *string `yaml:"cycle_backward" toml:"cycle_backward"`
	NewWindow     *string `yaml:"new_window" toml:"new_window"`
	Tile          *string `yaml:"tile" toml:"tile"`
}

// RawConfig is one config file as written: unset keys stay nil so that
// files layered by include only override what they name.
type RawConfig struct {
	Include         IncludeList `yaml:"include" toml:"include"`
	LogLevel        *string     `yaml:"log_level" toml:"log_level"`
	Backend         *string     `yaml:"backend" toml:"backend"`
	Shell           *string     `yaml:"shell" toml:"shell"`
	ShellArgs       []string    `yaml:"shell_args" toml:"shell_args"`
	Scrolling       *bool       `yaml:"scrolling" toml:"scrolling"`
	InitCommand     *string     `yaml:"init_command" toml:"init_command"`
	KeyboardCommand *string     `yaml:"keyboard_command" toml:"keyboard_command"`
	EnableExit      *bool       `yaml:"enable_exit" toml:"enable_exit"`
	HiddenCapacity  *int        `yaml:"hidden_capacity" toml:"hidden_capacity"`
	DeleteGraceMS   *int        `yaml:"delete_grace_ms" toml:"delete_grace_ms"`
	SnarfMaxBytes   *int        `yaml:"snarf_max_bytes" toml:"snarf_max_bytes"`
	PlumbCommand    *string     `yaml:"plumb_command" toml:"plumb_command"`
	MenuBackend     *string     `yaml:"menu_backend" toml:"menu_backend"`
	Metrics         *RawMetrics `yaml:"metrics" toml:"metrics"`
	Hotkeys         *RawHotkeys `yaml:"hotkeys" toml:"hotkeys"`
}

func pick[T any](base, overlay *T) *T {
	if overlay != nil {
		return overlay
	}
	return base
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c
	out.Include = nil
	out.LogLevel = pick(c.LogLevel, overlay.LogLevel)
	out.Backend = pick(c.Backend, overlay.Backend)
	out.Shell = pick(c.Shell, overlay.Shell)
	if overlay.ShellArgs != nil {
		out.ShellArgs = overlay.ShellArgs
	}
	out.Scrolling = pick(c.Scrolling, overlay.Scrolling)
	out.InitCommand = pick(c.InitCommand, overlay.InitCommand)
	out.KeyboardCommand = pick(c.KeyboardCommand, overlay.KeyboardCommand)
	out.EnableExit = pick(c.EnableExit, overlay.EnableExit)
	out.HiddenCapacity = pick(c.HiddenCapacity, overlay.HiddenCapacity)
	out.DeleteGraceMS = pick(c.DeleteGraceMS, overlay.DeleteGraceMS)
	out.SnarfMaxBytes = pick(c.SnarfMaxBytes, overlay.SnarfMaxBytes)
	out.PlumbCommand = pick(c.PlumbCommand, overlay.PlumbCommand)
	out.MenuBackend = pick(c.MenuBackend, overlay.MenuBackend)

	if overlay.Metrics != nil {
		var base RawMetrics
		if c.Metrics != nil {
			base = *c.Metrics
		}
		m := mergeRawMetrics(base, *overlay.Metrics)
		out.Metrics = &m
	}
	if overlay.Hotkeys != nil {
		var base RawHotkeys
		if c.Hotkeys != nil {
			base = *c.Hotkeys
		}
		h := mergeRawHotkeys(base, *overlay.Hotkeys)
		out.Hotkeys = &h
	}
	return out
}

func mergeRawMetrics(base RawMetrics, overlay RawMetrics) RawMetrics {
	base.Border = pick(base.Border, overlay.Border)
	base.Band = pick(base.Band, overlay.Band)
	base.MinWidth = pick(base.MinWidth, overlay.MinWidth)
	base.MinLines = pick(base.MinLines, overlay.MinLines)
	base.ScrollWidth = pick(base.ScrollWidth, overlay.ScrollWidth)
	base.FontHeight = pick(base.FontHeight, overlay.FontHeight)
	return base
}

func mergeRawHotkeys(base RawHotkeys, overlay RawHotkeys) RawHotkeys {
	base.CycleForward = pick(base.CycleForward, overlay.CycleForward)
	base.CycleBackward = pick(base.CycleBackward, overlay.CycleBackward)
	base.NewWindow = pick(base.NewWindow, overlay.NewWindow)
	base.Tile = pick(base.Tile, overlay.Tile)
	return base
}
