// Package screenhacktest provides a recording Display for module tests.
package screenhacktest

import (
	"fmt"
	"strings"
	"sync"

	"colourclock/internal/screenhack"
)

// Call is one recorded Display method call.
type Call struct {
	Method string
	Args   []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Method, c.Args)
}

// Display records every call and answers with configurable values.
// Fonts listed in Fonts load; every other name fails. Text is CharWidth
// pixels per byte. AllocColor passes colours through Adjust when set.
type Display struct {
	Width, Height int
	Colormap      screenhack.Colormap

	Fonts     map[string]bool
	CharWidth int
	Adjust    func(screenhack.Color) screenhack.Color
	Named     map[string]screenhack.Color

	mu       sync.Mutex
	calls    []Call
	nextID   uint32
	fonts    map[screenhack.Font]string
	gcs      map[screenhack.GC]screenhack.GCValues
	freedFnt map[screenhack.Font]int
	freedGC  map[screenhack.GC]int
}

// New returns a Display of the given size where "fixed" always loads.
func New(width, height int) *Display {
	return &Display{
		Width:     width,
		Height:    height,
		Colormap:  1,
		Fonts:     map[string]bool{"fixed": true},
		CharWidth: 10,
		Named: map[string]screenhack.Color{
			"white": {Red: 0xFFFF, Green: 0xFFFF, Blue: 0xFFFF},
			"black": {},
			"red":   {Red: 0xFFFF},
		},
		nextID:   100,
		fonts:    map[screenhack.Font]string{},
		gcs:      map[screenhack.GC]screenhack.GCValues{},
		freedFnt: map[screenhack.Font]int{},
		freedGC:  map[screenhack.GC]int{},
	}
}

func (d *Display) record(method string, args ...any) {
	d.calls = append(d.calls, Call{Method: method, Args: args})
}

func (d *Display) id() uint32 {
	d.nextID++
	return d.nextID
}

// Calls returns a copy of the recorded calls.
func (d *Display) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// CallsTo returns the recorded calls of one method.
func (d *Display) CallsTo(method string) []Call {
	var out []Call
	for _, c := range d.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls.
func (d *Display) Reset() {
	d.mu.Lock()
	d.calls = nil
	d.mu.Unlock()
}

// FontName returns the name f was loaded with.
func (d *Display) FontName(f screenhack.Font) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fonts[f]
}

// GCValues returns the values gc was created with.
func (d *Display) GCValues(gc screenhack.GC) screenhack.GCValues {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gcs[gc]
}

// FreedFont / FreedGC count how often a handle was released.
func (d *Display) FreedFont(f screenhack.Font) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freedFnt[f]
}

func (d *Display) FreedGC(gc screenhack.GC) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freedGC[gc]
}

func (d *Display) WindowAttributes(w screenhack.Window) screenhack.WindowAttributes {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("WindowAttributes", w)
	return screenhack.WindowAttributes{Width: d.Width, Height: d.Height, Colormap: d.Colormap}
}

func (d *Display) LoadQueryFont(name string) (screenhack.Font, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("LoadQueryFont", name)
	if !d.Fonts[name] {
		return 0, fmt.Errorf("no such font %q", name)
	}
	f := screenhack.Font(d.id())
	d.fonts[f] = name
	return f, nil
}

func (d *Display) FreeFont(f screenhack.Font) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("FreeFont", f)
	d.freedFnt[f]++
}

func (d *Display) TextWidth(f screenhack.Font, s string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("TextWidth", f, s)
	return len(s) * d.CharWidth
}

func (d *Display) AllocColor(cmap screenhack.Colormap, c screenhack.Color) screenhack.Color {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("AllocColor", cmap, c)
	if d.Adjust != nil {
		c = d.Adjust(c)
	}
	c.Pixel = screenhack.Pixel(uint32(c.Red>>8)<<16 | uint32(c.Green>>8)<<8 | uint32(c.Blue>>8))
	return c
}

func (d *Display) AllocNamedColor(cmap screenhack.Colormap, name string) (screenhack.Color, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("AllocNamedColor", cmap, name)
	c, ok := d.Named[strings.ToLower(name)]
	if !ok {
		return screenhack.Color{}, fmt.Errorf("unknown color %q", name)
	}
	c.Pixel = screenhack.Pixel(uint32(c.Red>>8)<<16 | uint32(c.Green>>8)<<8 | uint32(c.Blue>>8))
	return c, nil
}

func (d *Display) CreateGC(w screenhack.Window, v screenhack.GCValues) (screenhack.GC, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("CreateGC", w, v)
	gc := screenhack.GC(d.id())
	d.gcs[gc] = v
	return gc, nil
}

func (d *Display) FreeGC(gc screenhack.GC) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("FreeGC", gc)
	d.freedGC[gc]++
}

func (d *Display) SetWindowBackground(w screenhack.Window, p screenhack.Pixel) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("SetWindowBackground", w, p)
}

func (d *Display) ClearWindow(w screenhack.Window) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("ClearWindow", w)
}

func (d *Display) DrawString(w screenhack.Window, gc screenhack.GC, x, y int, s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("DrawString", w, gc, x, y, s)
}

func (d *Display) Sync() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("Sync")
}

var _ screenhack.Display = (*Display)(nil)
