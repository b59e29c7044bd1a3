// Package preview writes PNG snapshots of the drawable so the web
// server (or anything else) can show what the screensaver looks like.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/robfig/cron/v3"

	"colourclock/internal/config"
	appLog "colourclock/internal/log"
)

// Snapshotter is a display that can copy out its pixels.
type Snapshotter interface {
	Snapshot() (*image.RGBA, error)
}

// Writer writes snapshots of one display to one path.
type Writer struct {
	path string
	src  Snapshotter

	mu sync.Mutex
}

// NewWriter returns a Writer for src.
func NewWriter(path string, src Snapshotter) *Writer {
	return &Writer{path: path, src: src}
}

// Path is where snapshots are written.
func (w *Writer) Path() string {
	return w.path
}

// WriteOnce takes one snapshot and replaces the file atomically.
func (w *Writer) WriteOnce() error {
	if w.path == "" {
		return errors.New("preview: empty path")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	img, err := w.src.Snapshot()
	if err != nil {
		return fmt.Errorf("preview: snapshot: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("preview: encode: %w", err)
	}
	if err := config.WriteFileAtomic(w.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("preview: write %s: %w", w.path, err)
	}
	appLog.Debug("preview written", "path", w.path, "bytes", buf.Len())
	return nil
}

// Schedule writes a snapshot on every tick of the cron spec until ctx is
// cancelled. It returns once the scheduler has started; a bad spec is an
// error.
func Schedule(ctx context.Context, spec string, w *Writer) error {
	logger := cron.PrintfLogger(appLog.StdLogger("cron", appLog.LevelDebug))
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if err := w.WriteOnce(); err != nil {
			appLog.Error("preview failed", err, "path", w.Path())
		}
	}); err != nil {
		return fmt.Errorf("preview: schedule %q: %w", spec, err)
	}

	c.Start()
	appLog.Info("preview schedule started", "schedule", spec, "path", w.Path())
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		appLog.Debug("preview schedule stopped")
	}()
	return nil
}
