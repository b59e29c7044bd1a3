package x11

import (
	"bytes"
	"image/color"
	"strings"
	"testing"

	"github.com/jezek/xgb/xproto"

	"colourclock/internal/screenhack"
)

func fontReply(minChar uint16, widths ...int16) *xproto.QueryFontReply {
	r := &xproto.QueryFontReply{
		MinCharOrByte2: minChar,
		MaxCharOrByte2: minChar + uint16(len(widths)) - 1,
		MaxBounds:      xproto.Charinfo{CharacterWidth: 12},
	}
	for _, w := range widths {
		ci := xproto.Charinfo{}
		if w > 0 {
			ci = xproto.Charinfo{CharacterWidth: w, Ascent: 10, RightSideBearing: w}
		}
		r.CharInfos = append(r.CharInfos, ci)
	}
	return r
}

func TestTextWidth(t *testing.T) {
	// '0'..'3' with widths 5, 6, missing, 8; default char is '0'.
	r := fontReply('0', 5, 6, 0, 8)
	r.DefaultChar = '0'
	m := newMetrics(r)

	tests := []struct {
		s    string
		want int
	}{
		{"", 0},
		{"0", 5},
		{"013", 5 + 6 + 8},
		{"2", 5}, // missing, default char
		{"z", 5}, // out of range, default char
		{"00", 10},
	}
	for _, tt := range tests {
		if got := m.textWidth(tt.s); got != tt.want {
			t.Errorf("textWidth(%q) = %d, want %d", tt.s, got, tt.want)
		}
	}
}

func TestTextWidthMissingDefault(t *testing.T) {
	r := fontReply('a', 7)
	r.DefaultChar = 0
	m := newMetrics(r)
	if got := m.textWidth("ab"); got != 7 {
		t.Errorf("textWidth = %d, want 7", got)
	}
}

func TestTextWidthWithoutCharInfos(t *testing.T) {
	m := newMetrics(&xproto.QueryFontReply{MaxBounds: xproto.Charinfo{CharacterWidth: 9}})
	if got := m.textWidth("#901eb6"); got != 63 {
		t.Errorf("textWidth = %d, want 63", got)
	}
}

func TestTextItems(t *testing.T) {
	got := textItems("12:00:00")
	want := append([]byte{8, 0}, "12:00:00"...)
	if !bytes.Equal(got, want) {
		t.Errorf("textItems = %v, want %v", got, want)
	}

	long := strings.Repeat("x", 300)
	got = textItems(long)
	if got[0] != 254 || got[1] != 0 {
		t.Fatalf("first item header = %v", got[:2])
	}
	second := got[2+254:]
	if second[0] != 46 || second[1] != 0 || len(second) != 48 {
		t.Errorf("second item header = %v, len %d", second[:2], len(second))
	}
	if len(textItems("")) != 0 {
		t.Error("empty string produced items")
	}
}

func TestKeysymName(t *testing.T) {
	tests := []struct {
		sym  xproto.Keysym
		want string
	}{
		{'q', "q"},
		{'Q', "Q"},
		{0xff1b, "Escape"},
		{0xff0d, "Return"},
		{0xe9, "é"},
		{0xffbe, "0xffbe"},
		{0, ""},
	}
	for _, tt := range tests {
		if got := keysymName(tt.sym); got != tt.want {
			t.Errorf("keysymName(%#x) = %q, want %q", uint32(tt.sym), got, tt.want)
		}
	}
}

func TestKeymap(t *testing.T) {
	k := newKeymap(8, &xproto.GetKeyboardMappingReply{
		KeysymsPerKeycode: 2,
		Keysyms: []xproto.Keysym{
			'q', 'Q', // keycode 8
			0xff1b, 0, // keycode 9
		},
	})
	tests := []struct {
		code  xproto.Keycode
		state uint16
		want  xproto.Keysym
	}{
		{8, 0, 'q'},
		{8, xproto.ModMaskShift, 'Q'},
		{9, xproto.ModMaskShift, 0xff1b},
		{7, 0, 0},
		{200, 0, 0},
	}
	for _, tt := range tests {
		if got := k.keysym(tt.code, tt.state); got != tt.want {
			t.Errorf("keysym(%d, %d) = %#x, want %#x", tt.code, tt.state, uint32(got), uint32(tt.want))
		}
	}
}

func TestTranslate(t *testing.T) {
	d := &Display{window: 42}
	d.keys = newKeymap(8, &xproto.GetKeyboardMappingReply{
		KeysymsPerKeycode: 1,
		Keysyms:           []xproto.Keysym{0xff1b},
	})

	ev, ok := d.translate(xproto.ConfigureNotifyEvent{Window: 42, Width: 640, Height: 480})
	if !ok || ev != (screenhack.ConfigureEvent{Width: 640, Height: 480}) {
		t.Errorf("configure = %#v, %v", ev, ok)
	}
	if _, ok := d.translate(xproto.ConfigureNotifyEvent{Window: 7}); ok {
		t.Error("configure for another window was translated")
	}
	if _, ok := d.translate(xproto.ExposeEvent{Count: 2}); ok {
		t.Error("non-final expose was translated")
	}
	if ev, ok := d.translate(xproto.KeyPressEvent{Detail: 8}); !ok || ev != (screenhack.KeyEvent{Sym: "Escape"}) {
		t.Errorf("key = %#v, %v", ev, ok)
	}
	if ev, ok := d.translate(xproto.ButtonPressEvent{Detail: 3, EventX: 4, EventY: 5}); !ok ||
		ev != (screenhack.ButtonEvent{Button: 3, X: 4, Y: 5}) {
		t.Errorf("button = %#v, %v", ev, ok)
	}
}

func TestBGRXToRGBA(t *testing.T) {
	img := bgrxToRGBA([]byte{0xb6, 0x1e, 0x90, 0x00, 1, 2, 3, 0}, 2, 1)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{R: 0x90, G: 0x1e, B: 0xb6, A: 0xff}) {
		t.Errorf("pixel 0 = %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{R: 3, G: 2, B: 1, A: 0xff}) {
		t.Errorf("pixel 1 = %v", got)
	}
}

func TestEnvWindowID(t *testing.T) {
	t.Setenv("XSCREENSAVER_WINDOW", "0x2a00003")
	if got := envWindowID(); got != 0x2a00003 {
		t.Errorf("envWindowID = %#x", got)
	}
	t.Setenv("XSCREENSAVER_WINDOW", "garbage")
	if got := envWindowID(); got != 0 {
		t.Errorf("envWindowID = %#x, want 0", got)
	}
}
