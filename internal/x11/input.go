package x11

import (
	"unicode/utf8"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/xcursor"

	"github.com/1broseidon/riotile/internal/display"
)

// X button numbers.
const (
	xButtonWheelUp   = 4
	xButtonWheelDown = 5
	xButtonBack      = 8
)

// stateButtons converts the button bits of an X event state.
func stateButtons(state uint16) int {
	var b int
	if state&xproto.ButtonMask1 != 0 {
		b |= display.Button1
	}
	if state&xproto.ButtonMask2 != 0 {
		b |= display.Button2
	}
	if state&xproto.ButtonMask3 != 0 {
		b |= display.Button3
	}
	return b
}

// detailButton maps an X button number to its mask bit.
func detailButton(detail xproto.Button) int {
	switch detail {
	case 1:
		return display.Button1
	case 2:
		return display.Button2
	case 3:
		return display.Button3
	case xButtonWheelUp:
		return display.ScrollUp
	case xButtonWheelDown:
		return display.ScrollDown
	case xButtonBack:
		return display.ButtonKeyboard
	}
	return 0
}

// buttonMask returns the buttons held after a press or release. X reports
// the state from before the event.
func buttonMask(state uint16, detail xproto.Button, press bool) int {
	b := stateButtons(state)
	if press {
		return b | detailButton(detail)
	}
	return b &^ detailButton(detail)
}

// modsFromState keeps the modifiers hotkeys care about. Lock and NumLock
// are dropped.
func modsFromState(state uint16) display.Mod {
	var m display.Mod
	if state&xproto.ModMaskShift != 0 {
		m |= display.ModShift
	}
	if state&xproto.ModMaskControl != 0 {
		m |= display.ModCtrl
	}
	if state&xproto.ModMask1 != 0 {
		m |= display.ModAlt
	}
	if state&xproto.ModMask4 != 0 {
		m |= display.ModSuper
	}
	return m
}

// decodeKey builds a key from the string keybind looks up for a keycode.
// Single characters carry their rune; keysym names like "Return" do not.
func decodeKey(s string, state uint16) (display.Key, bool) {
	if s == "" {
		return display.Key{}, false
	}
	k := display.Key{Name: s, Mods: modsFromState(state)}
	if utf8.RuneCountInString(s) == 1 {
		k.Rune, _ = utf8.DecodeRuneInString(s)
	}
	return k, true
}

// cursorGlyph returns the cursor font glyph for c.
func cursorGlyph(c display.Cursor) uint16 {
	switch c {
	case display.CursorCross:
		return xcursor.Crosshair
	case display.CursorBox:
		return xcursor.Fleur
	case display.CursorSight:
		return xcursor.Target
	}
	corners := [...]uint16{
		xcursor.TopLeftCorner, xcursor.TopSide, xcursor.TopRightCorner,
		xcursor.LeftSide, xcursor.LeftPtr, xcursor.RightSide,
		xcursor.BottomLeftCorner, xcursor.BottomSide, xcursor.BottomRightCorner,
	}
	if c >= display.CursorCorner0 && int(c-display.CursorCorner0) < len(corners) {
		return corners[c-display.CursorCorner0]
	}
	return xcursor.LeftPtr
}
