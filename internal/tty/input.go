package tty

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/1broseidon/riotile/internal/display"
)

var namedKeys = map[tcell.Key]string{
	tcell.KeyEnter:      "Return",
	tcell.KeyTab:        "Tab",
	tcell.KeyBacktab:    "Tab",
	tcell.KeyBackspace:  "BackSpace",
	tcell.KeyBackspace2: "BackSpace",
	tcell.KeyEscape:     "Escape",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyInsert:     "Insert",
	tcell.KeyDelete:     "Delete",
	tcell.KeyPgUp:       "Prior",
	tcell.KeyPgDn:       "Next",
}

func init() {
	for i := 0; i < 12; i++ {
		namedKeys[tcell.KeyF1+tcell.Key(i)] = fmt.Sprintf("F%d", i+1)
	}
}

func mods(m tcell.ModMask) display.Mod {
	var out display.Mod
	if m&tcell.ModShift != 0 {
		out |= display.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		out |= display.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		out |= display.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		out |= display.ModSuper
	}
	return out
}

// keyFromEvent translates a terminal key event. Control letters come back
// as the letter with the control modifier so hotkeys and clients see the
// same key the X11 backend would report.
func keyFromEvent(ev *tcell.EventKey) (display.Key, bool) {
	k := ev.Key()
	m := mods(ev.Modifiers())
	if name, ok := namedKeys[k]; ok {
		if k == tcell.KeyBacktab {
			m |= display.ModShift
		}
		return display.Key{Name: name, Mods: m}, true
	}
	switch {
	case k == tcell.KeyRune:
		r := ev.Rune()
		return display.Key{Rune: r, Name: string(r), Mods: m}, true
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		r := rune('a' + (k - tcell.KeyCtrlA))
		return display.Key{Rune: r, Name: string(r), Mods: m | display.ModCtrl}, true
	}
	return display.Key{}, false
}

// buttons maps terminal mouse buttons to display masks. Terminals number
// the right button second and the middle one third.
func buttons(b tcell.ButtonMask) int {
	var out int
	if b&tcell.ButtonPrimary != 0 {
		out |= display.Button1
	}
	if b&tcell.ButtonMiddle != 0 {
		out |= display.Button2
	}
	if b&tcell.ButtonSecondary != 0 {
		out |= display.Button3
	}
	if b&tcell.WheelUp != 0 {
		out |= display.ScrollUp
	}
	if b&tcell.WheelDown != 0 {
		out |= display.ScrollDown
	}
	if b&tcell.Button4 != 0 {
		out |= display.ButtonKeyboard
	}
	return out
}

// cursorStyle picks the terminal cursor shape standing in for a pointer
// image. The default cursor is hidden.
func cursorStyle(c display.Cursor) (tcell.CursorStyle, bool) {
	switch c {
	case display.CursorDefault:
		return tcell.CursorStyleDefault, false
	case display.CursorCross:
		return tcell.CursorStyleSteadyBlock, true
	case display.CursorSight:
		return tcell.CursorStyleBlinkingBlock, true
	case display.CursorBox:
		return tcell.CursorStyleSteadyUnderline, true
	}
	return tcell.CursorStyleSteadyBar, true
}
