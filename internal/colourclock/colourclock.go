// Package colourclock colours the screen with the current time:
// red = hour, green = minute, blue = second. It also draws a digital
// clock and the HTML colour code of the background.
package colourclock

import (
	"fmt"
	"time"

	appLog "colourclock/internal/log"
	"colourclock/internal/resource"
	"colourclock/internal/screenhack"
)

const (
	// DefaultFont is used when the font resource is unset.
	DefaultFont = "-*-courier-bold-r-normal-*-180-*"
	// FallbackFont is assumed to exist on every display.
	FallbackFont = "fixed"

	hexY   = 100
	clockY = 150
)

// Module registers the clock with the host under the name "ColourClock".
var Module = screenhack.Module{
	Name: "ColourClock",
	Defaults: []string{
		".foreground: white",
		"*delay:      1000000",
	},
	Options: []resource.Option{
		{Flag: "delay", Resource: ".delay", Usage: "microseconds between frames"},
	},
	Init: func(d screenhack.Display, w screenhack.Window, db *resource.DB) screenhack.Hack {
		return New(d, w, db)
	},
}

type state struct {
	dpy    screenhack.Display
	window screenhack.Window

	gc         screenhack.GC
	delay      int
	fg         screenhack.Pixel
	xlim, ylim int
	cmap       screenhack.Colormap
	font       screenhack.Font

	now func() time.Time
}

// Option configures a renderer created by New.
type Option func(*state)

// WithClock replaces time.Now as the source of the displayed time.
func WithClock(now func() time.Time) Option {
	return func(st *state) { st.now = now }
}

// New initializes the clock on window w of display d, reading the font,
// foreground and delay resources from db.
func New(d screenhack.Display, w screenhack.Window, db *resource.DB, opts ...Option) screenhack.Hack {
	st := &state{
		dpy:    d,
		window: w,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(st)
	}

	attrs := d.WindowAttributes(w)
	st.xlim = attrs.Width
	st.ylim = attrs.Height
	st.cmap = attrs.Colormap

	st.font = loadFont(d, db)

	st.fg = screenhack.PixelResource(d, st.cmap, db, "foreground")
	gc, err := d.CreateGC(w, screenhack.GCValues{Font: st.font, Foreground: st.fg})
	if err != nil {
		appLog.Error("colourclock: create gc failed", err)
	}
	st.gc = gc

	st.delay = db.Integer("delay")
	if st.delay < 0 {
		st.delay = 0
	}

	return st
}

// loadFont opens the configured font (or DefaultFont) and falls back to
// FallbackFont when that fails.
func loadFont(d screenhack.Display, db *resource.DB) screenhack.Font {
	name, ok := db.String("font")
	if !ok || name == "" {
		name = DefaultFont
	}
	f, err := d.LoadQueryFont(name)
	if err == nil {
		return f
	}
	appLog.Debug("colourclock: font unavailable, using fallback", "font", name, "err", err)
	f, err = d.LoadQueryFont(FallbackFont)
	if err != nil {
		appLog.Error("colourclock: fallback font unavailable", err, "font", FallbackFont)
	}
	return f
}

func (st *state) Draw() time.Duration {
	now := st.now()

	bgc := st.dpy.AllocColor(st.cmap, TimeColor(now))
	st.dpy.SetWindowBackground(st.window, bgc.Pixel)
	st.dpy.ClearWindow(st.window)

	cs := HexCode(bgc)
	ts := ClockString(now)
	csw := st.dpy.TextWidth(st.font, cs)
	tsw := st.dpy.TextWidth(st.font, ts)

	st.dpy.DrawString(st.window, st.gc, st.xlim/2-csw/2, hexY, cs)
	st.dpy.DrawString(st.window, st.gc, st.xlim/2-tsw/2, clockY, ts)

	return time.Duration(st.delay) * time.Microsecond
}

func (st *state) Reshape(width, height int) {
	st.xlim = width
	st.ylim = height
}

func (st *state) Event(screenhack.Event) bool {
	return false
}

func (st *state) Free() {
	if st.gc != 0 {
		st.dpy.FreeGC(st.gc)
	}
	if st.font != 0 {
		st.dpy.FreeFont(st.font)
	}
}

// TimeColor maps the wall-clock time of t to a 16-bit-per-channel colour:
// hour 0..23, minute 0..59 and second 0..59 each spread over 0..65535.
func TimeColor(t time.Time) screenhack.Color {
	h, m, s := t.Clock()
	return screenhack.Color{
		Red:   uint16(65535 * h / 23),
		Green: uint16(65535 * m / 59),
		Blue:  uint16(65535 * s / 59),
	}
}

// HexCode formats c as "#rrggbb" from the top byte of each channel.
func HexCode(c screenhack.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red>>8, c.Green>>8, c.Blue>>8)
}

// ClockString formats t as "HH:MM:SS".
func ClockString(t time.Time) string {
	h, m, s := t.Clock()
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
