package screenhack

import (
	"context"
	"errors"
	"time"

	appLog "colourclock/internal/log"
	"colourclock/internal/model"
	"colourclock/internal/resource"
)

// Session is an initialized module bound to one window. It tracks the
// window size so that Reshape only fires on real changes. Hosts with their
// own event loop drive a Session directly; others use Run.
type Session struct {
	display  Display
	window   Window
	hack     Hack
	recorder *model.Recorder
	now      func() time.Time

	width, height int
	freed         bool
}

// NewSession initializes m on window w.
func NewSession(m Module, d Display, w Window, db *resource.DB, rec *model.Recorder) (*Session, error) {
	if d == nil {
		return nil, errors.New("screenhack: nil display")
	}
	if m.Init == nil {
		return nil, errors.New("screenhack: module has no Init")
	}
	if db == nil {
		db = m.Resources(nil)
	}
	attrs := d.WindowAttributes(w)
	s := &Session{
		display:  d,
		window:   w,
		recorder: rec,
		now:      time.Now,
		width:    attrs.Width,
		height:   attrs.Height,
	}
	s.hack = m.Init(d, w, db)
	if s.hack == nil {
		return nil, errors.New("screenhack: module Init returned nil")
	}
	appLog.Info("module initialized", "module", m.Name, "width", s.width, "height", s.height)
	return s, nil
}

// Frame draws one frame and returns the delay the module asked for.
func (s *Session) Frame() time.Duration {
	delay := s.hack.Draw()
	s.display.Sync()
	if delay < 0 {
		delay = 0
	}
	s.recorder.Frame(s.now(), delay, s.width, s.height)
	return delay
}

// Dispatch hands ev to the module. It reports whether the host should
// stop: an unhandled quit key.
func (s *Session) Dispatch(ev Event) (quit bool) {
	if c, ok := ev.(ConfigureEvent); ok {
		s.Resize(c.Width, c.Height)
		return false
	}
	if s.hack.Event(ev) {
		return false
	}
	return IsQuitKey(ev)
}

// Resize reshapes the module if the size differs from the last known one.
func (s *Session) Resize(width, height int) {
	if width == s.width && height == s.height {
		return
	}
	s.width, s.height = width, height
	appLog.Debug("reshape", "width", width, "height", height)
	s.hack.Reshape(width, height)
}

// Size returns the last known window size.
func (s *Session) Size() (width, height int) {
	return s.width, s.height
}

// Close frees the module. Further calls are no-ops.
func (s *Session) Close() {
	if s.freed {
		return
	}
	s.freed = true
	s.hack.Free()
}

// RunConfig describes one host run.
type RunConfig struct {
	Module    Module
	Display   Display
	Window    Window
	Resources *resource.DB

	// Events delivers input from the display. A nil channel means no input;
	// a closed channel ends the run.
	Events <-chan Event

	// MaxFrames stops the run after that many frames. Zero means no limit.
	MaxFrames int

	Recorder *model.Recorder
}

// Run initializes the module, then draws frames until ctx is cancelled,
// the event channel closes, an unhandled quit key arrives or MaxFrames is
// reached. The module is freed exactly once before Run returns.
func Run(ctx context.Context, cfg RunConfig) error {
	s, err := NewSession(cfg.Module, cfg.Display, cfg.Window, cfg.Resources, cfg.Recorder)
	if err != nil {
		return err
	}
	defer s.Close()

	timer := time.NewTimer(0)
	defer timer.Stop()

	frames := 0
	for {
		delay := s.Frame()
		frames++
		if cfg.MaxFrames > 0 && frames >= cfg.MaxFrames {
			appLog.Info("frame limit reached", "frames", frames)
			return nil
		}

		timer.Reset(delay)
		if stop := wait(ctx, s, cfg.Events, timer.C); stop {
			return nil
		}
	}
}

// wait dispatches events until the timer fires. Events already queued
// when it fires are still handled before the next frame. It reports
// whether the run should end.
func wait(ctx context.Context, s *Session, events <-chan Event, tick <-chan time.Time) bool {
	for {
		select {
		case <-ctx.Done():
			appLog.Info("run cancelled", "reason", ctx.Err())
			return true
		case ev, ok := <-events:
			if handle(s, ev, ok) {
				return true
			}
		case <-tick:
			return drain(s, events)
		}
	}
}

// drain handles queued events without blocking.
func drain(s *Session, events <-chan Event) bool {
	for {
		select {
		case ev, ok := <-events:
			if handle(s, ev, ok) {
				return true
			}
		default:
			return false
		}
	}
}

func handle(s *Session, ev Event, ok bool) (stop bool) {
	if !ok {
		appLog.Info("display closed")
		return true
	}
	if s.Dispatch(ev) {
		appLog.Info("quit key pressed")
		return true
	}
	return false
}
