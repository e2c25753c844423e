// Package snarf is the snarf buffer: the system clipboard, with an
// in-process copy for when no clipboard is reachable.
package snarf

import (
	"log/slog"
	"sync"
	"unicode/utf8"

	"github.com/atotto/clipboard"
)

// DefaultMaxBytes caps what Get returns.
const DefaultMaxBytes = 256 * 1024

// Buffer is the process-wide snarf buffer.
type Buffer struct {
	mu    sync.Mutex
	max   int
	local string
	log   *slog.Logger

	read  func() (string, error)
	write func(string) error
}

// New returns a buffer over the system clipboard. Reads return at most
// maxBytes bytes.
func New(maxBytes int, logger *slog.Logger) *Buffer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Buffer{max: maxBytes, log: logger}
	if !clipboard.Unsupported {
		b.read = clipboard.ReadAll
		b.write = clipboard.WriteAll
	} else {
		logger.Info("system clipboard unavailable, snarf stays in process")
	}
	return b
}

// Get returns the current snarf, truncated to the size cap on a rune
// boundary.
func (b *Buffer) Get() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := b.local
	if b.read != nil {
		if got, err := b.read(); err != nil {
			b.log.Debug("read clipboard", "error", err)
		} else {
			s = got
		}
	}
	return truncate(s, b.max)
}

// Put replaces the snarf.
func (b *Buffer) Put(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.local = s
	if b.write != nil {
		if err := b.write(s); err != nil {
			b.log.Debug("write clipboard", "error", err)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	s = s[:max]
	for len(s) > 0 && !utf8.ValidString(s[len(s)-min(len(s), utf8.UTFMax):]) {
		s = s[:len(s)-1]
	}
	return s
}
