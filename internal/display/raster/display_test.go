package raster

import (
	"errors"
	"image/color"
	"testing"

	"colourclock/internal/screenhack"
)

func newDisplay(t *testing.T, w, h int) *Display {
	t.Helper()
	d, err := New(Options{Width: w, Height: h})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := New(Options{Width: 0, Height: 10}); err == nil {
		t.Error("zero width should fail")
	}
	if _, err := New(Options{Width: 10, Height: 10, Depth: 12}); err == nil {
		t.Error("depth 12 should fail")
	}
}

func TestParseFontName(t *testing.T) {
	tests := []struct {
		name    string
		want    fontSpec
		wantErr bool
	}{
		{"fixed", fontSpec{style: styleMono, size: fixedSize}, false},
		{"-*-courier-bold-r-normal-*-180-*", fontSpec{style: styleMono, bold: true, size: 18}, false},
		{"-*-helvetica-medium-o-*-*-14-*", fontSpec{style: styleSans, italic: true, size: 14}, false},
		{"-*-times-*", fontSpec{style: styleSerif, size: defaultSize}, false},
		{"-*-*-*-*-*-*-120-*", fontSpec{style: styleMono, size: 12}, false},
		{"helvetica:20", fontSpec{style: styleSans, size: 20}, false},
		{"/usr/share/fonts/x.ttf:16", fontSpec{path: "/usr/share/fonts/x.ttf", size: 16}, false},
		{"-*-wingdings-*", fontSpec{}, true},
		{"nosuchfont", fontSpec{}, true},
		{"", fontSpec{}, true},
	}
	for _, tt := range tests {
		got, err := parseFontName(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrNoFont) {
				t.Errorf("parseFontName(%q) err = %v, want ErrNoFont", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseFontName(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseFontName(%q) = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}

func TestLoadQueryFont(t *testing.T) {
	d := newDisplay(t, 100, 100)

	for _, name := range []string{"fixed", "-*-courier-bold-r-normal-*-180-*"} {
		f, err := d.LoadQueryFont(name)
		if err != nil {
			t.Fatalf("LoadQueryFont(%q): %v", name, err)
		}
		if f == 0 {
			t.Errorf("LoadQueryFont(%q) returned zero handle", name)
		}
	}
	if _, err := d.LoadQueryFont("/does/not/exist.ttf"); !errors.Is(err, ErrNoFont) {
		t.Errorf("missing file err = %v, want ErrNoFont", err)
	}
}

func TestTextWidth(t *testing.T) {
	d := newDisplay(t, 100, 100)
	f, err := d.LoadQueryFont("fixed")
	if err != nil {
		t.Fatal(err)
	}
	short := d.TextWidth(f, "#00")
	long := d.TextWidth(f, "#000000")
	if short <= 0 || long <= short {
		t.Errorf("widths = %d, %d; want 0 < short < long", short, long)
	}
	// Monospace: equal lengths give equal widths.
	if a, b := d.TextWidth(f, "12:00:00"), d.TextWidth(f, "#abcdef1"); a != b {
		t.Errorf("monospace widths differ: %d vs %d", a, b)
	}
	if w := d.TextWidth(screenhack.Font(9999), "abc"); w != 0 {
		t.Errorf("unknown font width = %d, want 0", w)
	}
}

func TestAllocColor(t *testing.T) {
	d := newDisplay(t, 10, 10)
	got := d.AllocColor(colormap, screenhack.Color{Red: 37041, Green: 7775, Blue: 46652})
	want := screenhack.Color{Pixel: 0x901eb6, Red: 0x90 * 257, Green: 0x1e * 257, Blue: 0xb6 * 257}
	if got != want {
		t.Errorf("AllocColor = %+v, want %+v", got, want)
	}
}

func TestAllocNamedColor(t *testing.T) {
	d := newDisplay(t, 10, 10)
	tests := []struct {
		name    string
		want    screenhack.Pixel
		wantErr bool
	}{
		{"white", 0xFFFFFF, false},
		{"Red", 0xFF0000, false},
		{"dark slate gray", 0x2F4F4F, false},
		{"#ff8000", 0xFF8000, false},
		{"#zzz", 0, true},
		{"notacolour", 0, true},
	}
	for _, tt := range tests {
		c, err := d.AllocNamedColor(colormap, tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownColor) {
				t.Errorf("%q: err = %v, want ErrUnknownColor", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", tt.name, err)
			continue
		}
		if c.Pixel != tt.want {
			t.Errorf("%q: pixel = %#06x, want %#06x", tt.name, c.Pixel, tt.want)
		}
	}
}

func TestClearWindowFillsBackground(t *testing.T) {
	d := newDisplay(t, 20, 10)
	d.SetWindowBackground(RootWindow, 0x901eb6)
	d.ClearWindow(RootWindow)

	img, err := d.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	want := color.RGBA{R: 0x90, G: 0x1e, B: 0xb6, A: 0xFF}
	for _, p := range [][2]int{{0, 0}, {19, 9}, {10, 5}} {
		if got := img.RGBAAt(p[0], p[1]); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}
}

func TestDrawStringMarksPixels(t *testing.T) {
	d := newDisplay(t, 120, 40)
	f, err := d.LoadQueryFont("fixed")
	if err != nil {
		t.Fatal(err)
	}
	gc, err := d.CreateGC(RootWindow, screenhack.GCValues{Font: f, Foreground: 0xFFFFFF})
	if err != nil {
		t.Fatal(err)
	}
	d.SetWindowBackground(RootWindow, 0)
	d.ClearWindow(RootWindow)
	d.DrawString(RootWindow, gc, 5, 25, "#######")
	d.Sync()

	img, err := d.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	lit := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 120; x++ {
			if img.RGBAAt(x, y).R > 0x80 {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("DrawString left no visible pixels")
	}
}

func TestResize(t *testing.T) {
	d := newDisplay(t, 10, 10)
	if err := d.Resize(30, 20); err != nil {
		t.Fatal(err)
	}
	attrs := d.WindowAttributes(RootWindow)
	if attrs.Width != 30 || attrs.Height != 20 || attrs.Colormap != colormap {
		t.Errorf("attrs = %+v", attrs)
	}
	img, err := d.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 30 || b.Dy() != 20 {
		t.Errorf("snapshot bounds = %v", b)
	}
	if err := d.Resize(0, 5); err == nil {
		t.Error("Resize(0, 5) should fail")
	}
}

func TestFreeFontAndGC(t *testing.T) {
	d := newDisplay(t, 10, 10)
	f, err := d.LoadQueryFont("fixed")
	if err != nil {
		t.Fatal(err)
	}
	gc, _ := d.CreateGC(RootWindow, screenhack.GCValues{Font: f})
	d.FreeGC(gc)
	d.FreeFont(f)
	d.FreeFont(f)

	if len(d.fonts) != 0 || len(d.gcs) != 0 {
		t.Errorf("fonts=%d gcs=%d after free, want 0", len(d.fonts), len(d.gcs))
	}
}
