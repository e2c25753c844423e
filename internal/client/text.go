// Package client runs the program behind a window on a pseudo-terminal and
// keeps its output as scrollback text with a line selection.
package client

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/1broseidon/riotile/internal/display"
)

// DefaultMaxLines bounds the scrollback kept per window.
const DefaultMaxLines = 4000

// Text is a window's scrollback. The last line is the one being written.
// Selections cover whole lines, [selStart, selEnd).
type Text struct {
	mu       sync.Mutex
	lines    []string
	cr       bool
	maxLines int

	origin           int
	rows             int
	selStart, selEnd int
	scrolling        bool
}

// NewText returns an empty scrollback bounded to maxLines lines.
func NewText(maxLines int) *Text {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Text{lines: []string{""}, maxLines: maxLines, rows: 1}
}

// Append adds program output. Newlines end lines, a carriage return
// restarts the current line and backspace removes its last rune. Other
// control characters except tab are dropped.
func (t *Text) Append(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last := len(t.lines) - 1
	var cur strings.Builder
	cur.WriteString(t.lines[last])
	for _, r := range s {
		switch {
		case r == '\n':
			t.cr = false
			t.lines[last] = cur.String()
			t.lines = append(t.lines, "")
			last++
			cur.Reset()
		case r == '\r':
			t.cr = true
		case r == '\b':
			t.cr = false
			line := cur.String()
			if _, n := utf8.DecodeLastRuneInString(line); n > 0 {
				line = line[:len(line)-n]
			}
			cur.Reset()
			cur.WriteString(line)
		case r < 0x20 && r != '\t', r == 0x7f:
		default:
			if t.cr {
				cur.Reset()
				t.cr = false
			}
			cur.WriteRune(r)
		}
	}
	t.lines[last] = cur.String()
	t.trim()
	if t.scrolling {
		t.origin = t.bottom()
	}
}

func (t *Text) trim() {
	over := len(t.lines) - t.maxLines
	if over <= 0 {
		return
	}
	t.lines = append(t.lines[:0], t.lines[over:]...)
	t.origin = max(0, t.origin-over)
	t.selStart = max(0, t.selStart-over)
	t.selEnd = max(0, t.selEnd-over)
}

func (t *Text) bottom() int {
	return max(0, len(t.lines)-t.rows)
}

// Lines returns a copy of the scrollback.
func (t *Text) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

// SetRows sets how many lines the window shows.
func (t *Text) SetRows(rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = max(1, rows)
	if t.scrolling || t.origin > t.bottom() {
		t.origin = t.bottom()
	}
}

// Scroll moves the view by n lines, clamped to the text.
func (t *Text) Scroll(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.origin = max(0, min(t.origin+n, t.bottom()))
}

// Origin returns the first visible line.
func (t *Text) Origin() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.origin
}

// Select sets the selection to lines [from, to), clamped to the text.
func (t *Text) Select(from, to int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.selectLocked(from, to)
}

func (t *Text) selectLocked(from, to int) {
	if from > to {
		from, to = to, from
	}
	n := len(t.lines)
	t.selStart = max(0, min(from, n))
	t.selEnd = max(t.selStart, min(to, n))
}

// Selected returns the selected line range.
func (t *Text) Selected() (from, to int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selStart, t.selEnd
}

func (t *Text) Selection() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Join(t.lines[t.selStart:t.selEnd], "\n")
}

func (t *Text) Cut() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := strings.Join(t.lines[t.selStart:t.selEnd], "\n")
	t.lines = append(t.lines[:t.selStart], t.lines[t.selEnd:]...)
	if len(t.lines) == 0 {
		t.lines = []string{""}
	}
	t.selEnd = t.selStart
	t.origin = min(t.origin, t.bottom())
	return s
}

// Paste replaces the selection with s and selects the pasted lines. With
// no selection s is inserted before the selection point.
func (t *Text) Paste(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ins := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	tail := append([]string(nil), t.lines[t.selEnd:]...)
	t.lines = append(append(t.lines[:t.selStart], ins...), tail...)
	if len(t.lines) == 0 {
		t.lines = []string{""}
	}
	t.selectLocked(t.selStart, t.selStart+len(ins))
	t.trim()
}

// Look selects the next run of lines after the selection that contains
// the selected text, wrapping at the end.
func (t *Text) Look() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	want := t.lines[t.selStart:t.selEnd]
	if len(want) == 0 || (len(want) == 1 && want[0] == "") {
		return false
	}
	n := len(t.lines)
	for k := 1; k <= n; k++ {
		i := (t.selStart + k) % n
		if i+len(want) > n {
			continue
		}
		if matchLines(t.lines[i:i+len(want)], want) {
			t.selectLocked(i, i+len(want))
			if i < t.origin || i >= t.origin+t.rows {
				t.origin = max(0, min(i, t.bottom()))
			}
			return true
		}
	}
	return false
}

func matchLines(have, want []string) bool {
	if len(want) == 1 {
		return strings.Contains(have[0], want[0])
	}
	for i := range want {
		if have[i] != want[i] {
			return false
		}
	}
	return true
}

func (t *Text) SetScrolling(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scrolling = on
	if on {
		t.origin = t.bottom()
	}
}

// Scrolling reports whether the view follows new output.
func (t *Text) Scrolling() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrolling
}

// Frame returns the visible lines and the part of the selection inside
// them.
func (t *Text) Frame() display.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	end := min(len(t.lines), t.origin+t.rows)
	f := display.Frame{Lines: append([]string(nil), t.lines[t.origin:end]...)}
	from := max(t.selStart, t.origin) - t.origin
	to := min(t.selEnd, end) - t.origin
	if from < to {
		f.SelStart, f.SelEnd = from, to
	}
	return f
}
