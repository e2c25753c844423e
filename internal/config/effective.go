package config

import "fmt"

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" {
		return fmt.Sprintf("%s: %s: %v", e.Source.position(), e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// BuildEffectiveConfig applies raw over the defaults.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	set(&cfg.LogLevel, raw.LogLevel)
	set(&cfg.Backend, raw.Backend)
	set(&cfg.Shell, raw.Shell)
	if raw.ShellArgs != nil {
		cfg.ShellArgs = append([]string(nil), raw.ShellArgs...)
	}
	set(&cfg.Scrolling, raw.Scrolling)
	set(&cfg.InitCommand, raw.InitCommand)
	set(&cfg.KeyboardCommand, raw.KeyboardCommand)
	set(&cfg.EnableExit, raw.EnableExit)
	set(&cfg.HiddenCapacity, raw.HiddenCapacity)
	set(&cfg.DeleteGraceMS, raw.DeleteGraceMS)
	set(&cfg.SnarfMaxBytes, raw.SnarfMaxBytes)
	set(&cfg.PlumbCommand, raw.PlumbCommand)
	set(&cfg.MenuBackend, raw.MenuBackend)

	if m := raw.Metrics; m != nil {
		set(&cfg.Metrics.Border, m.Border)
		set(&cfg.Metrics.Band, m.Band)
		set(&cfg.Metrics.MinWidth, m.MinWidth)
		set(&cfg.Metrics.MinLines, m.MinLines)
		set(&cfg.Metrics.ScrollWidth, m.ScrollWidth)
		set(&cfg.Metrics.FontHeight, m.FontHeight)
	}
	if h := raw.Hotkeys; h != nil {
		set(&cfg.Hotkeys.CycleForward, h.CycleForward)
		set(&cfg.Hotkeys.CycleBackward, h.CycleBackward)
		set(&cfg.Hotkeys.NewWindow, h.NewWindow)
		set(&cfg.Hotkeys.Tile, h.Tile)
	}
	return cfg, nil
}
