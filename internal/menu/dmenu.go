package menu

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type backendKind int

const (
	kindRofi backendKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

// runFunc runs a menu program with input on stdin and returns its output
// and exit status.
type runFunc func(command string, args []string, input string) (out string, stderr string, err error)

type dmenuLike struct {
	command string
	kind    backendKind
	// indexOutput backends print the chosen row number instead of its text.
	indexOutput bool
	markup      bool
	run         runFunc
}

func newRofi() *dmenuLike {
	return &dmenuLike{command: "rofi", kind: kindRofi, indexOutput: true, markup: true, run: execRun}
}

func newFuzzel() *dmenuLike {
	return &dmenuLike{command: "fuzzel", kind: kindFuzzel, indexOutput: true, run: execRun}
}

func newWofi() *dmenuLike {
	return &dmenuLike{command: "wofi", kind: kindWofi, markup: true, run: execRun}
}

func newDmenu() *dmenuLike {
	return &dmenuLike{command: "dmenu", kind: kindDmenu, run: execRun}
}

func execRun(command string, args []string, input string) (string, string, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	return string(out), stderr.String(), err
}

func (b *dmenuLike) Name() string {
	return b.command
}

func (b *dmenuLike) Show(prompt string, items []string, selected int) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("menu: no items to show")
	}
	labels := b.labels(items)
	args := b.buildArgs(prompt, selected, len(items))

	out, stderr, err := b.run(b.command, args, b.formatInput(labels))
	selection := strings.TrimSpace(out)
	if err != nil {
		if selection == "" && isCancelExit(err) {
			return -1, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr); msg != "" {
			return -1, fmt.Errorf("%s failed: %s", b.command, msg)
		}
		return -1, fmt.Errorf("%s failed: %w", b.command, err)
	}
	if selection == "" {
		return -1, ErrCancelled
	}
	return b.parseSelection(selection, labels)
}

// labels sanitizes items. Backends that answer with the row text get
// duplicate labels numbered so every row stays distinguishable.
func (b *dmenuLike) labels(items []string) []string {
	out := make([]string, len(items))
	seen := make(map[string]int)
	for i, item := range items {
		label := sanitizeLabel(item)
		if !b.indexOutput {
			if count := seen[label]; count > 0 {
				label = fmt.Sprintf("%s (%d)", label, count+1)
			}
			seen[sanitizeLabel(item)]++
		}
		out[i] = label
	}
	return out
}

func (b *dmenuLike) formatInput(labels []string) string {
	lines := make([]string, len(labels))
	for i, l := range labels {
		if b.markup {
			l = html.EscapeString(l)
		}
		lines[i] = l
	}
	return strings.Join(lines, "\n")
}

func (b *dmenuLike) buildArgs(prompt string, selected, n int) []string {
	var args []string
	switch b.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		// Output only the index so labels with markup or colons parse.
		args = append(args, "-format", "i", "-no-custom", "-markup-rows")
		if selected >= 0 && selected < n {
			args = append(args, "-selected-row", strconv.Itoa(selected))
		}
	case kindFuzzel:
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindWofi:
		args = []string{"--dmenu", "--allow-markup"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

func (b *dmenuLike) parseSelection(selection string, labels []string) (int, error) {
	if b.indexOutput {
		idx, err := strconv.Atoi(selection)
		if err == nil {
			if idx < 0 || idx >= len(labels) {
				return -1, fmt.Errorf("menu: index %d out of range", idx)
			}
			return idx, nil
		}
	}
	for i, l := range labels {
		if l == selection {
			return i, nil
		}
	}
	return -1, fmt.Errorf("menu: unknown selection %q", selection)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 1 is "no selection", 130 is Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
