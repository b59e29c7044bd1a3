// Package raster is an in-memory Display backed by a gg drawing context.
// It serves headless runs, the ebiten window host and preview snapshots.
package raster

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync"

	"github.com/gogpu/gg"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"

	"colourclock/internal/convert"
	appLog "colourclock/internal/log"
	"colourclock/internal/screenhack"
)

const (
	// RootWindow is the only window a raster display has.
	RootWindow screenhack.Window = 1

	colormap screenhack.Colormap = 1
)

// ErrUnknownColor is returned for colour names that resolve to nothing.
var ErrUnknownColor = errors.New("raster: unknown color")

// Options configure a Display.
type Options struct {
	Width, Height int
	// Depth selects the visual; 0 means 24.
	Depth int
}

type gcEntry struct {
	font screenhack.Font
	fg   screenhack.Pixel
}

// Display draws into an RGBA pixmap.
type Display struct {
	mu     sync.Mutex
	dc     *gg.Context
	visual convert.Visual

	width, height int
	background    screenhack.Pixel

	nextID uint32
	fonts  map[screenhack.Font]*fontEntry
	gcs    map[screenhack.GC]gcEntry
}

// New returns a Display of the given size.
func New(opts Options) (*Display, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("raster: invalid size %dx%d", opts.Width, opts.Height)
	}
	depth := opts.Depth
	if depth == 0 {
		depth = 24
	}
	visual, err := convert.NewVisual(depth)
	if err != nil {
		return nil, err
	}
	gg.SetLogger(appLog.Slog())

	d := &Display{
		dc:     gg.NewContext(opts.Width, opts.Height),
		visual: visual,
		width:  opts.Width,
		height: opts.Height,
		nextID: 0x100,
		fonts:  map[screenhack.Font]*fontEntry{},
		gcs:    map[screenhack.GC]gcEntry{},
	}
	d.dc.ClearWithColor(gg.FromColor(visual.RGBA(0)))
	return d, nil
}

func (d *Display) id() uint32 {
	d.nextID++
	return d.nextID
}

// Resize changes the pixmap size. Contents are not preserved.
func (d *Display) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("raster: invalid size %dx%d", width, height)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if width == d.width && height == d.height {
		return nil
	}
	if err := d.dc.Resize(width, height); err != nil {
		return fmt.Errorf("raster: resize: %w", err)
	}
	d.width, d.height = width, height
	d.dc.ClearWithColor(gg.FromColor(d.visual.RGBA(uint32(d.background))))
	return nil
}

// Snapshot returns a copy of the current pixels.
func (d *Display) Snapshot() (*image.RGBA, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("raster: flush: %w", err)
	}
	img, ok := d.dc.Image().(*image.RGBA)
	if !ok {
		return nil, errors.New("raster: unexpected image type")
	}
	return img, nil
}

// Close releases every font still open and the drawing context.
func (d *Display) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for f, e := range d.fonts {
		_ = e.source.Close()
		delete(d.fonts, f)
	}
	return d.dc.Close()
}

func (d *Display) WindowAttributes(screenhack.Window) screenhack.WindowAttributes {
	d.mu.Lock()
	defer d.mu.Unlock()
	return screenhack.WindowAttributes{Width: d.width, Height: d.height, Colormap: colormap}
}

func (d *Display) LoadQueryFont(name string) (screenhack.Font, error) {
	e, err := openFont(name)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f := screenhack.Font(d.id())
	d.fonts[f] = e
	appLog.Debug("raster: font loaded", "font", name, "source", e.source.Name())
	return f, nil
}

func (d *Display) FreeFont(f screenhack.Font) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.fonts[f]
	if !ok {
		appLog.Debug("raster: free of unknown font", "font", f)
		return
	}
	delete(d.fonts, f)
	if err := e.source.Close(); err != nil {
		appLog.Error("raster: close font", err, "font", e.name)
	}
}

func (d *Display) TextWidth(f screenhack.Font, s string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.fonts[f]
	if !ok {
		return 0
	}
	return int(math.Round(e.face.Advance(s)))
}

func (d *Display) AllocColor(_ screenhack.Colormap, c screenhack.Color) screenhack.Color {
	pixel, shown := d.visual.Alloc(convert.Channels{Red: c.Red, Green: c.Green, Blue: c.Blue})
	return screenhack.Color{
		Pixel: screenhack.Pixel(pixel),
		Red:   shown.Red,
		Green: shown.Green,
		Blue:  shown.Blue,
	}
}

func (d *Display) AllocNamedColor(cmap screenhack.Colormap, name string) (screenhack.Color, error) {
	ch, err := lookupColor(name)
	if err != nil {
		return screenhack.Color{}, err
	}
	return d.AllocColor(cmap, screenhack.Color{Red: ch.Red, Green: ch.Green, Blue: ch.Blue}), nil
}

// lookupColor resolves "#rrggbb" specs and SVG/X11 colour names.
func lookupColor(name string) (convert.Channels, error) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "#") {
		c, err := colorful.Hex(name)
		if err != nil {
			return convert.Channels{}, fmt.Errorf("%w: %q", ErrUnknownColor, name)
		}
		return convert.FromColor(c), nil
	}
	key := strings.ReplaceAll(strings.ToLower(name), " ", "")
	c, ok := colornames.Map[key]
	if !ok {
		return convert.Channels{}, fmt.Errorf("%w: %q", ErrUnknownColor, name)
	}
	return convert.FromColor(c), nil
}

func (d *Display) CreateGC(_ screenhack.Window, v screenhack.GCValues) (screenhack.GC, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	gc := screenhack.GC(d.id())
	d.gcs[gc] = gcEntry{font: v.Font, fg: v.Foreground}
	return gc, nil
}

func (d *Display) FreeGC(gc screenhack.GC) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.gcs, gc)
}

func (d *Display) SetWindowBackground(_ screenhack.Window, p screenhack.Pixel) {
	d.mu.Lock()
	d.background = p
	d.mu.Unlock()
}

func (d *Display) ClearWindow(screenhack.Window) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dc.ClearWithColor(gg.FromColor(d.visual.RGBA(uint32(d.background))))
}

func (d *Display) DrawString(_ screenhack.Window, gc screenhack.GC, x, y int, s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.gcs[gc]
	if !ok {
		appLog.Debug("raster: draw with unknown gc", "gc", gc)
		return
	}
	e, ok := d.fonts[g.font]
	if !ok {
		appLog.Debug("raster: draw with unknown font", "font", g.font)
		return
	}
	d.dc.SetFont(e.face)
	d.dc.SetColor(d.visual.RGBA(uint32(g.fg)))
	d.dc.DrawString(s, float64(x), float64(y))
}

// Sync is a no-op: every call completes before it returns.
func (d *Display) Sync() {}

var _ screenhack.Display = (*Display)(nil)
