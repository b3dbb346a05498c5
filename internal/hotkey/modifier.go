package hotkey

import "strings"

// Modifier is a bitset over the modifier keys a binding may require.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModCmd
)

const modifierMask = ModCtrl | ModShift | ModAlt | ModCmd

// libuiohook modifier flag layout.
const (
	flagShiftL uint16 = 1 << 0
	flagCtrlL  uint16 = 1 << 1
	flagMetaL  uint16 = 1 << 2
	flagAltL   uint16 = 1 << 3
	flagShiftR uint16 = 1 << 4
	flagCtrlR  uint16 = 1 << 5
	flagMetaR  uint16 = 1 << 6
	flagAltR   uint16 = 1 << 7
)

var modifierNames = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"cmd":     ModCmd,
	"command": ModCmd,
	"super":   ModCmd,
	"meta":    ModCmd,
}

// ModifiersFromFlags reduces a raw event flag word to ctrl/shift/alt/cmd bits.
// Left and right variants collapse to the same bit; lock and mouse-button flags are dropped.
func ModifiersFromFlags(flags uint16) Modifier {
	var mods Modifier
	if flags&(flagCtrlL|flagCtrlR) != 0 {
		mods |= ModCtrl
	}
	if flags&(flagShiftL|flagShiftR) != 0 {
		mods |= ModShift
	}
	if flags&(flagAltL|flagAltR) != 0 {
		mods |= ModAlt
	}
	if flags&(flagMetaL|flagMetaR) != 0 {
		mods |= ModCmd
	}
	return mods
}

// Flags is the inverse of ModifiersFromFlags using the left-hand variants.
func (m Modifier) Flags() uint16 {
	var flags uint16
	if m&ModCtrl != 0 {
		flags |= flagCtrlL
	}
	if m&ModShift != 0 {
		flags |= flagShiftL
	}
	if m&ModAlt != 0 {
		flags |= flagAltL
	}
	if m&ModCmd != 0 {
		flags |= flagMetaL
	}
	return flags
}

// String renders modifiers in canonical ctrl+shift+alt+cmd order.
func (m Modifier) String() string {
	parts := make([]string, 0, 4)
	if m&ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	if m&ModAlt != 0 {
		parts = append(parts, "alt")
	}
	if m&ModCmd != 0 {
		parts = append(parts, "cmd")
	}
	return strings.Join(parts, "+")
}
