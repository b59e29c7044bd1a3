// Package screenhack is the host side of a screensaver module: the
// display contract a module draws through, the module registry, and the
// run loop that schedules frames and dispatches events.
package screenhack

import (
	appLog "colourclock/internal/log"
	"colourclock/internal/resource"
)

// Handles issued by a Display. Zero is never a valid handle.
type (
	Window   uint32
	Colormap uint32
	Font     uint32
	GC       uint32
	Pixel    uint32
)

// Color is a 16-bit-per-channel colour and, once allocated, the pixel
// value the display assigned to it.
type Color struct {
	Pixel            Pixel
	Red, Green, Blue uint16
}

// WindowAttributes is the geometry and colormap of a window.
type WindowAttributes struct {
	Width, Height int
	Colormap      Colormap
}

// GCValues are the graphics-context fields a module may set.
type GCValues struct {
	Font       Font
	Foreground Pixel
}

// Display is the windowing API offered to modules. Drawing calls report
// failures through the display's own error logging, not to the caller.
type Display interface {
	WindowAttributes(w Window) WindowAttributes

	// LoadQueryFont opens the font matching name.
	LoadQueryFont(name string) (Font, error)
	FreeFont(f Font)
	// TextWidth is the advance of s in pixels when drawn with f.
	TextWidth(f Font, s string) int

	// AllocColor returns the closest colour cmap can show. The returned
	// channels may differ from the requested ones.
	AllocColor(cmap Colormap, c Color) Color
	// AllocNamedColor resolves a colour name or "#rrggbb" spec.
	AllocNamedColor(cmap Colormap, name string) (Color, error)

	CreateGC(w Window, v GCValues) (GC, error)
	FreeGC(gc GC)

	SetWindowBackground(w Window, p Pixel)
	// ClearWindow fills w with its background.
	ClearWindow(w Window)
	// DrawString draws s with its baseline starting at (x, y).
	DrawString(w Window, gc GC, x, y int, s string)

	// Sync blocks until every request so far has been processed.
	Sync()
}

var white = Color{Red: 0xFFFF, Green: 0xFFFF, Blue: 0xFFFF}

// PixelResource allocates the colour named by resource name in cmap.
// A missing or unknown colour is logged and white is used instead.
func PixelResource(d Display, cmap Colormap, db *resource.DB, name string) Pixel {
	spec, ok := db.String(name)
	if !ok || spec == "" {
		return d.AllocColor(cmap, white).Pixel
	}
	c, err := d.AllocNamedColor(cmap, spec)
	if err != nil {
		appLog.Error("screenhack: can't allocate color", err, "resource", name, "color", spec)
		return d.AllocColor(cmap, white).Pixel
	}
	return c.Pixel
}
