package snarf

import (
	"errors"
	"strings"
	"testing"
)

func newTestBuffer(max int) (*Buffer, *string) {
	var clip string
	b := New(max, nil)
	b.read = func() (string, error) { return clip, nil }
	b.write = func(s string) error { clip = s; return nil }
	return b, &clip
}

func TestBuffer_PutGet(t *testing.T) {
	b, clip := newTestBuffer(64)
	b.Put("hello")
	if *clip != "hello" {
		t.Fatalf("clipboard = %q, want hello", *clip)
	}
	*clip = "from elsewhere"
	if got := b.Get(); got != "from elsewhere" {
		t.Fatalf("Get() = %q, want the clipboard's text", got)
	}
}

func TestBuffer_GetCapped(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "abc", 8, "abc"},
		{"ascii", strings.Repeat("a", 10), 4, "aaaa"},
		{"splits no rune", "aé", 2, "a"},
		{"whole rune fits", "aé", 3, "aé"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, clip := newTestBuffer(tt.max)
			*clip = tt.in
			if got := b.Get(); got != tt.want {
				t.Fatalf("Get() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuffer_FallsBackToLocalCopy(t *testing.T) {
	b := New(64, nil)
	b.read = func() (string, error) { return "", errors.New("no display") }
	b.write = func(string) error { return errors.New("no display") }

	b.Put("kept")
	if got := b.Get(); got != "kept" {
		t.Fatalf("Get() = %q, want kept", got)
	}
}
