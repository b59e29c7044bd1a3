// Package window hosts a module in a desktop window. Frames are drawn
// into a raster display and copied to the screen by ebiten's game loop.
package window

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"colourclock/internal/display/raster"
	appLog "colourclock/internal/log"
	"colourclock/internal/model"
	"colourclock/internal/resource"
	"colourclock/internal/screenhack"
)

// Config describes one windowed run.
type Config struct {
	Module    screenhack.Module
	Display   *raster.Display
	Resources *resource.DB
	Recorder  *model.Recorder

	Title      string
	Fullscreen bool
	// MaxFrames closes the window after that many frames. Zero means no limit.
	MaxFrames int
}

// buttons in X numbering order: 1 left, 2 middle, 3 right.
var buttons = []ebiten.MouseButton{ebiten.MouseButtonLeft, ebiten.MouseButtonMiddle, ebiten.MouseButtonRight}

type game struct {
	ctx     context.Context
	session *screenhack.Session
	display *raster.Display

	next      time.Time
	frames    int
	maxFrames int
	dirty     bool

	frame *ebiten.Image
	keys  []ebiten.Key
}

// Run opens the window and blocks until it is closed, ctx is cancelled
// or an unhandled quit key is pressed. It must be called from the main
// goroutine.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Display == nil {
		return errors.New("window: nil display")
	}
	s, err := screenhack.NewSession(cfg.Module, cfg.Display, raster.RootWindow, cfg.Resources, cfg.Recorder)
	if err != nil {
		return err
	}
	defer s.Close()

	w, h := s.Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetFullscreen(cfg.Fullscreen)

	g := &game{
		ctx:       ctx,
		session:   s,
		display:   cfg.Display,
		maxFrames: cfg.MaxFrames,
	}
	err = ebiten.RunGame(g)
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}

func (g *game) Update() error {
	if err := g.ctx.Err(); err != nil {
		appLog.Info("window closing", "reason", err)
		return ebiten.Termination
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	for _, k := range g.keys {
		if g.dispatch(screenhack.KeyEvent{Sym: keyName(k, shift)}) {
			return ebiten.Termination
		}
	}
	for i, b := range buttons {
		if !inpututil.IsMouseButtonJustPressed(b) {
			continue
		}
		x, y := ebiten.CursorPosition()
		if g.dispatch(screenhack.ButtonEvent{Button: i + 1, X: x, Y: y}) {
			return ebiten.Termination
		}
	}

	if g.step(time.Now()) {
		return ebiten.Termination
	}
	return nil
}

func (g *game) dispatch(ev screenhack.Event) bool {
	if g.session.Dispatch(ev) {
		appLog.Info("quit key pressed")
		return true
	}
	return false
}

// step draws a frame once the module's delay has passed. It reports
// whether the frame limit was reached.
func (g *game) step(now time.Time) bool {
	if now.Before(g.next) {
		return false
	}
	delay := g.session.Frame()
	g.next = now.Add(delay)
	g.dirty = true
	g.frames++
	if g.maxFrames > 0 && g.frames >= g.maxFrames {
		appLog.Info("frame limit reached", "frames", g.frames)
		return true
	}
	return false
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.dirty || g.frame == nil {
		img, err := g.display.Snapshot()
		if err != nil {
			appLog.Error("window: snapshot", err)
			return
		}
		b := img.Bounds()
		if g.frame == nil || g.frame.Bounds().Dx() != b.Dx() || g.frame.Bounds().Dy() != b.Dy() {
			if g.frame != nil {
				g.frame.Deallocate()
			}
			g.frame = ebiten.NewImage(b.Dx(), b.Dy())
		}
		g.frame.WritePixels(img.Pix)
		g.dirty = false
	}
	screen.DrawImage(g.frame, nil)
}

// Layout keeps the raster the size of the window so the module sees
// real resizes.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth <= 0 || outsideHeight <= 0 {
		return g.session.Size()
	}
	if w, h := g.session.Size(); w != outsideWidth || h != outsideHeight {
		if err := g.display.Resize(outsideWidth, outsideHeight); err != nil {
			appLog.Error("window: resize", err)
			return g.session.Size()
		}
		g.session.Dispatch(screenhack.ConfigureEvent{Width: outsideWidth, Height: outsideHeight})
		g.dirty = true
		// Redraw at once rather than showing a cleared raster.
		g.next = time.Time{}
	}
	return outsideWidth, outsideHeight
}

// keyName converts an ebiten key to an X-style keysym name: letters are
// lower case unless shifted, digits are bare.
func keyName(k ebiten.Key, shift bool) string {
	name := k.String()
	switch {
	case len(name) == 1 && name[0] >= 'A' && name[0] <= 'Z':
		if shift {
			return name
		}
		return strings.ToLower(name)
	case strings.HasPrefix(name, "Digit") && len(name) == len("Digit")+1:
		return name[len("Digit"):]
	}
	return name
}
