// Package menu shows popup menus through an external dmenu-style program.
package menu

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the menu without a choice.
var ErrCancelled = errors.New("menu cancelled")

// Backend shows a list of labels and returns the chosen index.
type Backend interface {
	// Show displays items under prompt with row selected highlighted (or
	// none when out of range) and returns the chosen index.
	Show(prompt string, items []string, selected int) (int, error)
	Name() string
}

// candidates is the detection order for "auto".
var candidates = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// DetectBackend returns the first menu program found in PATH, in priority
// order: rofi, fuzzel, wofi, dmenu.
func DetectBackend() (string, error) {
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no menu program found in PATH (looked for: %s)", strings.Join(candidates, ", "))
}

// New creates a backend by name: auto, rofi, fuzzel, wofi or dmenu.
func New(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	var b *dmenuLike
	switch name {
	case "rofi":
		b = newRofi()
	case "fuzzel":
		b = newFuzzel()
	case "wofi":
		b = newWofi()
	case "dmenu":
		b = newDmenu()
	default:
		return nil, fmt.Errorf("unknown menu backend: %q (expected: auto, %s)", name, strings.Join(candidates, ", "))
	}
	if _, err := exec.LookPath(b.command); err != nil {
		return nil, fmt.Errorf("menu backend %q not found in PATH", b.command)
	}
	return b, nil
}
