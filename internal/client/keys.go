package client

import (
	"unicode"
	"unicode/utf8"

	"github.com/1broseidon/riotile/internal/display"
)

var namedKeys = map[string]string{
	"Return":    "\r",
	"Enter":     "\r",
	"KP_Enter":  "\r",
	"BackSpace": "\x7f",
	"Tab":       "\t",
	"Escape":    "\x1b",
	"Up":        "\x1b[A",
	"Down":      "\x1b[B",
	"Right":     "\x1b[C",
	"Left":      "\x1b[D",
	"Home":      "\x1b[H",
	"End":       "\x1b[F",
	"Insert":    "\x1b[2~",
	"Delete":    "\x1b[3~",
	"Prior":     "\x1b[5~",
	"Next":      "\x1b[6~",
}

// encodeKey returns the bytes a terminal program expects for k, or nil.
func encodeKey(k display.Key) []byte {
	var out []byte
	if seq, ok := namedKeys[k.Name]; ok && (k.Rune == 0 || k.Rune < 0x20 || k.Rune == 0x7f) {
		out = []byte(seq)
	} else if k.Rune != 0 {
		r := k.Rune
		if k.Mods&display.ModCtrl != 0 {
			if c, ok := ctrl(r); ok {
				out = []byte{c}
			}
		}
		if out == nil {
			out = utf8.AppendRune(nil, r)
		}
	} else {
		return nil
	}
	if k.Mods&display.ModAlt != 0 {
		out = append([]byte{0x1b}, out...)
	}
	return out
}

func ctrl(r rune) (byte, bool) {
	r = unicode.ToUpper(r)
	switch {
	case r >= '@' && r <= '_':
		return byte(r - '@'), true
	case r == ' ':
		return 0, true
	case r == '?':
		return 0x7f, true
	}
	return 0, false
}
