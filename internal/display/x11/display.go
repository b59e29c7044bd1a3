// Package x11 is the Display backed by a real X server over the X11
// protocol. It draws with server-side fonts and colormaps, so colour
// allocation and text metrics are whatever the server provides.
package x11

import (
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/lucasb-eyer/go-colorful"

	"colourclock/internal/convert"
	appLog "colourclock/internal/log"
	"colourclock/internal/screenhack"
)

// Options select the X server and the window to draw on.
type Options struct {
	// Display is the X display name; empty uses $DISPLAY.
	Display string
	// Root draws on the root window.
	Root bool
	// WindowID draws on an existing window. When zero the
	// XSCREENSAVER_WINDOW environment variable is consulted.
	WindowID uint32
	// Width and Height size a newly created window.
	Width, Height int
	Title         string
}

// Display is a connection to an X server with one target window.
type Display struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	window xproto.Window
	owned  bool
	keys   keymap

	mu      sync.Mutex
	metrics map[xproto.Font]metrics

	events    chan screenhack.Event
	done      chan struct{}
	closeOnce sync.Once
}

// Open connects to the X server and prepares the target window.
func Open(opts Options) (*Display, error) {
	xgb.Logger = appLog.StdLogger("xgb", appLog.LevelDebug)

	var (
		conn *xgb.Conn
		err  error
	)
	if opts.Display != "" {
		conn, err = xgb.NewConnDisplay(opts.Display)
	} else {
		conn, err = xgb.NewConn()
	}
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}

	setup := xproto.Setup(conn)
	d := &Display{
		conn:    conn,
		screen:  setup.DefaultScreen(conn),
		metrics: map[xproto.Font]metrics{},
		events:  make(chan screenhack.Event, 16),
		done:    make(chan struct{}),
	}

	if err := d.loadKeymap(setup); err != nil {
		appLog.Error("x11: keyboard mapping unavailable", err)
	}

	id := opts.WindowID
	if id == 0 && !opts.Root {
		id = envWindowID()
	}
	switch {
	case id != 0:
		d.window = xproto.Window(id)
		err = d.selectInput()
	case opts.Root:
		d.window = d.screen.Root
		err = d.selectInput()
	default:
		err = d.createWindow(opts)
	}
	if err != nil {
		conn.Close()
		return nil, err
	}

	appLog.Info("x11 display opened",
		"window", fmt.Sprintf("0x%x", uint32(d.window)),
		"owned", d.owned,
		"depth", d.screen.RootDepth,
	)
	go d.readEvents()
	return d, nil
}

// envWindowID reads the window id a screensaver daemon hands its hacks.
func envWindowID() uint32 {
	v := strings.TrimSpace(os.Getenv("XSCREENSAVER_WINDOW"))
	if v == "" {
		return 0
	}
	id, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		appLog.Error("x11: bad XSCREENSAVER_WINDOW", err, "value", v)
		return 0
	}
	return uint32(id)
}

const eventMask = xproto.EventMaskStructureNotify |
	xproto.EventMaskExposure |
	xproto.EventMaskKeyPress |
	xproto.EventMaskButtonPress

func (d *Display) createWindow(opts Options) error {
	wid, err := xproto.NewWindowId(d.conn)
	if err != nil {
		return fmt.Errorf("x11: window id: %w", err)
	}
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		w, h = int(d.screen.WidthInPixels), int(d.screen.HeightInPixels)
	}
	err = xproto.CreateWindowChecked(d.conn, xproto.WindowClassCopyFromParent, wid, d.screen.Root,
		0, 0, uint16(w), uint16(h), 0,
		xproto.WindowClassInputOutput, d.screen.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{d.screen.BlackPixel, eventMask},
	).Check()
	if err != nil {
		return fmt.Errorf("x11: create window: %w", err)
	}
	d.window = wid
	d.owned = true

	if opts.Title != "" {
		xproto.ChangeProperty(d.conn, xproto.PropModeReplace, wid,
			xproto.AtomWmName, xproto.AtomString, 8,
			uint32(len(opts.Title)), []byte(opts.Title))
	}
	if err := xproto.MapWindowChecked(d.conn, wid).Check(); err != nil {
		return fmt.Errorf("x11: map window: %w", err)
	}
	return nil
}

// selectInput asks for events on a window this process did not create.
// Only one client may select button presses, so that part may fail.
func (d *Display) selectInput() error {
	err := xproto.ChangeWindowAttributesChecked(d.conn, d.window, xproto.CwEventMask,
		[]uint32{eventMask}).Check()
	if err == nil {
		return nil
	}
	appLog.Debug("x11: full event mask refused, retrying without buttons", "err", err)
	err = xproto.ChangeWindowAttributesChecked(d.conn, d.window, xproto.CwEventMask,
		[]uint32{xproto.EventMaskStructureNotify | xproto.EventMaskExposure}).Check()
	if err != nil {
		return fmt.Errorf("x11: select input on 0x%x: %w", uint32(d.window), err)
	}
	return nil
}

func (d *Display) loadKeymap(setup *xproto.SetupInfo) error {
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)
	r, err := xproto.GetKeyboardMapping(d.conn, setup.MinKeycode, count).Reply()
	if err != nil {
		return err
	}
	d.keys = newKeymap(setup.MinKeycode, r)
	return nil
}

// Window is the window modules should draw on.
func (d *Display) Window() screenhack.Window {
	return screenhack.Window(d.window)
}

// Events delivers input and geometry changes. It is closed when the
// connection goes away.
func (d *Display) Events() <-chan screenhack.Event {
	return d.events
}

func (d *Display) readEvents() {
	defer close(d.events)
	for {
		ev, xerr := d.conn.WaitForEvent()
		if ev == nil && xerr == nil {
			appLog.Debug("x11: connection closed")
			return
		}
		if xerr != nil {
			appLog.Error("x11: request failed", xerr)
			continue
		}
		out, ok := d.translate(ev)
		if !ok {
			continue
		}
		select {
		case d.events <- out:
		case <-d.done:
			return
		}
	}
}

func (d *Display) translate(ev xgb.Event) (screenhack.Event, bool) {
	switch e := ev.(type) {
	case xproto.ConfigureNotifyEvent:
		if e.Window != d.window {
			return nil, false
		}
		return screenhack.ConfigureEvent{Width: int(e.Width), Height: int(e.Height)}, true
	case xproto.ExposeEvent:
		if e.Count != 0 {
			return nil, false
		}
		return screenhack.ExposeEvent{}, true
	case xproto.KeyPressEvent:
		return screenhack.KeyEvent{Sym: keysymName(d.keys.keysym(e.Detail, e.State))}, true
	case xproto.ButtonPressEvent:
		return screenhack.ButtonEvent{Button: int(e.Detail), X: int(e.EventX), Y: int(e.EventY)}, true
	}
	return nil, false
}

// Close destroys the window if this process created it and disconnects.
func (d *Display) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		if d.owned {
			xproto.DestroyWindow(d.conn, d.window)
			d.Sync()
		}
		d.conn.Close()
	})
	return nil
}

// Snapshot reads back the window contents. Only 24 and 32 bit
// little-endian ZPixmap layouts are understood.
func (d *Display) Snapshot() (*image.RGBA, error) {
	geom, err := xproto.GetGeometry(d.conn, xproto.Drawable(d.window)).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: geometry: %w", err)
	}
	r, err := xproto.GetImage(d.conn, xproto.ImageFormatZPixmap, xproto.Drawable(d.window),
		0, 0, geom.Width, geom.Height, 0xffffffff).Reply()
	if err != nil {
		return nil, fmt.Errorf("x11: get image: %w", err)
	}
	w, h := int(geom.Width), int(geom.Height)
	if r.Depth != 24 && r.Depth != 32 || len(r.Data) < w*h*4 {
		return nil, fmt.Errorf("x11: unsupported image depth %d", r.Depth)
	}
	return bgrxToRGBA(r.Data, w, h), nil
}

func bgrxToRGBA(data []byte, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = data[i*4+2]
		img.Pix[i*4+1] = data[i*4+1]
		img.Pix[i*4+2] = data[i*4+0]
		img.Pix[i*4+3] = 0xff
	}
	return img
}

func (d *Display) WindowAttributes(w screenhack.Window) screenhack.WindowAttributes {
	geom, err := xproto.GetGeometry(d.conn, xproto.Drawable(w)).Reply()
	if err != nil {
		appLog.Error("x11: get geometry", err, "window", uint32(w))
		return screenhack.WindowAttributes{Colormap: screenhack.Colormap(d.screen.DefaultColormap)}
	}
	attrs := screenhack.WindowAttributes{
		Width:    int(geom.Width),
		Height:   int(geom.Height),
		Colormap: screenhack.Colormap(d.screen.DefaultColormap),
	}
	wa, err := xproto.GetWindowAttributes(d.conn, xproto.Window(w)).Reply()
	if err != nil {
		appLog.Error("x11: get window attributes", err, "window", uint32(w))
		return attrs
	}
	if wa.Colormap != 0 {
		attrs.Colormap = screenhack.Colormap(wa.Colormap)
	}
	return attrs
}

func (d *Display) LoadQueryFont(name string) (screenhack.Font, error) {
	fid, err := xproto.NewFontId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("x11: font id: %w", err)
	}
	if err := xproto.OpenFontChecked(d.conn, fid, uint16(len(name)), name).Check(); err != nil {
		return 0, fmt.Errorf("x11: open font %q: %w", name, err)
	}
	r, err := xproto.QueryFont(d.conn, xproto.Fontable(fid)).Reply()
	if err != nil {
		xproto.CloseFont(d.conn, fid)
		return 0, fmt.Errorf("x11: query font %q: %w", name, err)
	}
	d.mu.Lock()
	d.metrics[fid] = newMetrics(r)
	d.mu.Unlock()
	return screenhack.Font(fid), nil
}

func (d *Display) FreeFont(f screenhack.Font) {
	d.mu.Lock()
	delete(d.metrics, xproto.Font(f))
	d.mu.Unlock()
	xproto.CloseFont(d.conn, xproto.Font(f))
}

func (d *Display) TextWidth(f screenhack.Font, s string) int {
	d.mu.Lock()
	m, ok := d.metrics[xproto.Font(f)]
	d.mu.Unlock()
	if !ok {
		return 0
	}
	return m.textWidth(s)
}

func (d *Display) AllocColor(cmap screenhack.Colormap, c screenhack.Color) screenhack.Color {
	r, err := xproto.AllocColor(d.conn, xproto.Colormap(cmap), c.Red, c.Green, c.Blue).Reply()
	if err != nil {
		appLog.Error("x11: alloc color", err, "red", c.Red, "green", c.Green, "blue", c.Blue)
		return screenhack.Color{Pixel: screenhack.Pixel(d.screen.BlackPixel)}
	}
	return screenhack.Color{
		Pixel: screenhack.Pixel(r.Pixel),
		Red:   r.Red,
		Green: r.Green,
		Blue:  r.Blue,
	}
}

// AllocNamedColor accepts "#rrggbb" (parsed here) and names from the
// server's colour database.
func (d *Display) AllocNamedColor(cmap screenhack.Colormap, name string) (screenhack.Color, error) {
	if strings.HasPrefix(name, "#") {
		c, err := colorful.Hex(name)
		if err != nil {
			return screenhack.Color{}, fmt.Errorf("x11: bad colour %q: %w", name, err)
		}
		ch := convert.FromColor(c)
		return d.AllocColor(cmap, screenhack.Color{Red: ch.Red, Green: ch.Green, Blue: ch.Blue}), nil
	}
	r, err := xproto.AllocNamedColor(d.conn, xproto.Colormap(cmap), uint16(len(name)), name).Reply()
	if err != nil {
		return screenhack.Color{}, fmt.Errorf("x11: alloc named colour %q: %w", name, err)
	}
	return screenhack.Color{
		Pixel: screenhack.Pixel(r.Pixel),
		Red:   r.VisualRed,
		Green: r.VisualGreen,
		Blue:  r.VisualBlue,
	}, nil
}

func (d *Display) CreateGC(w screenhack.Window, v screenhack.GCValues) (screenhack.GC, error) {
	gc, err := xproto.NewGcontextId(d.conn)
	if err != nil {
		return 0, fmt.Errorf("x11: gc id: %w", err)
	}
	mask := uint32(xproto.GcForeground)
	values := []uint32{uint32(v.Foreground)}
	if v.Font != 0 {
		mask |= xproto.GcFont
		values = append(values, uint32(v.Font))
	}
	if err := xproto.CreateGCChecked(d.conn, gc, xproto.Drawable(w), mask, values).Check(); err != nil {
		return 0, fmt.Errorf("x11: create gc: %w", err)
	}
	return screenhack.GC(gc), nil
}

func (d *Display) FreeGC(gc screenhack.GC) {
	xproto.FreeGC(d.conn, xproto.Gcontext(gc))
}

func (d *Display) SetWindowBackground(w screenhack.Window, p screenhack.Pixel) {
	xproto.ChangeWindowAttributes(d.conn, xproto.Window(w), xproto.CwBackPixel, []uint32{uint32(p)})
}

func (d *Display) ClearWindow(w screenhack.Window) {
	xproto.ClearArea(d.conn, false, xproto.Window(w), 0, 0, 0, 0)
}

func (d *Display) DrawString(w screenhack.Window, gc screenhack.GC, x, y int, s string) {
	if s == "" {
		return
	}
	xproto.PolyText8(d.conn, xproto.Drawable(w), xproto.Gcontext(gc), int16(x), int16(y), textItems(s))
}

// Sync waits for a reply, which the server sends only after handling
// every earlier request.
func (d *Display) Sync() {
	if _, err := xproto.GetInputFocus(d.conn).Reply(); err != nil {
		appLog.Error("x11: sync", err)
	}
}

var _ screenhack.Display = (*Display)(nil)
