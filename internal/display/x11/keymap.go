package x11

import (
	"fmt"

	"github.com/jezek/xgb/xproto"
)

// Keysym names for the non-printing keys hosts care about.
var keysymNames = map[xproto.Keysym]string{
	0xff08: "BackSpace",
	0xff09: "Tab",
	0xff0d: "Return",
	0xff1b: "Escape",
	0xff50: "Home",
	0xff51: "Left",
	0xff52: "Up",
	0xff53: "Right",
	0xff54: "Down",
	0xff57: "End",
	0xffff: "Delete",
}

// keymap translates keycodes to keysym names.
type keymap struct {
	minKeycode xproto.Keycode
	perKeycode int
	keysyms    []xproto.Keysym
}

func newKeymap(minCode xproto.Keycode, r *xproto.GetKeyboardMappingReply) keymap {
	return keymap{minKeycode: minCode, perKeycode: int(r.KeysymsPerKeycode), keysyms: r.Keysyms}
}

// keysym returns the keysym of code, using the shifted column when
// state has Shift and the key has one.
func (k keymap) keysym(code xproto.Keycode, state uint16) xproto.Keysym {
	if k.perKeycode == 0 || code < k.minKeycode {
		return 0
	}
	base := int(code-k.minKeycode) * k.perKeycode
	if base >= len(k.keysyms) {
		return 0
	}
	sym := k.keysyms[base]
	if state&xproto.ModMaskShift != 0 && k.perKeycode > 1 && base+1 < len(k.keysyms) && k.keysyms[base+1] != 0 {
		sym = k.keysyms[base+1]
	}
	return sym
}

// keysymName is the X keysym name: the character itself for Latin-1
// keys, a fixed name for common function keys, hex otherwise.
func keysymName(sym xproto.Keysym) string {
	switch {
	case sym == 0:
		return ""
	case sym >= 0x20 && sym <= 0x7e, sym >= 0xa0 && sym <= 0xff:
		return string(rune(sym))
	}
	if name, ok := keysymNames[sym]; ok {
		return name
	}
	return fmt.Sprintf("0x%x", uint32(sym))
}
