package hotkeys

import (
	"fmt"
	"strings"

	"github.com/1broseidon/riotile/internal/display"
)

// Chord is a key plus the exact modifiers that must be held with it.
type Chord struct {
	Mods display.Mod
	Name string
}

var modNames = map[string]display.Mod{
	"shift":   display.ModShift,
	"control": display.ModCtrl,
	"ctrl":    display.ModCtrl,
	"mod1":    display.ModAlt,
	"alt":     display.ModAlt,
	"mod4":    display.ModSuper,
	"super":   display.ModSuper,
}

// ParseChord parses an xgbutil-style key sequence such as "Mod4-j" or
// "Control-Shift-Return".
func ParseChord(s string) (Chord, error) {
	if strings.TrimSpace(s) == "" {
		return Chord{}, fmt.Errorf("empty key sequence")
	}
	parts := strings.Split(s, "-")
	var c Chord
	for i, part := range parts {
		if i == len(parts)-1 {
			if part == "" {
				return Chord{}, fmt.Errorf("key sequence %q has no key", s)
			}
			c.Name = part
			break
		}
		mod, ok := modNames[strings.ToLower(part)]
		if !ok {
			return Chord{}, fmt.Errorf("key sequence %q: unknown modifier %q", s, part)
		}
		c.Mods |= mod
	}
	return c, nil
}

// Match reports whether k is this chord. Single-letter keys compare
// without case so "Mod4-j" also matches with caps lock on.
func (c Chord) Match(k display.Key) bool {
	if k.Mods != c.Mods {
		return false
	}
	if len(c.Name) == 1 {
		return strings.EqualFold(k.Name, c.Name)
	}
	return k.Name == c.Name
}

func (c Chord) String() string {
	var b strings.Builder
	for _, m := range []struct {
		mod  display.Mod
		name string
	}{
		{display.ModCtrl, "Control"},
		{display.ModShift, "Shift"},
		{display.ModAlt, "Mod1"},
		{display.ModSuper, "Mod4"},
	} {
		if c.Mods&m.mod != 0 {
			b.WriteString(m.name)
			b.WriteByte('-')
		}
	}
	b.WriteString(c.Name)
	return b.String()
}
