package model

import (
	"sync"
	"time"
)

// FrameStats describes the running module as seen by the host.
// It is the payload of the status API.
type FrameStats struct {
	Module  string `json:"module"`
	Backend string `json:"backend"`

	// Frames counts completed Draw calls.
	Frames    int64     `json:"frames"`
	LastFrame time.Time `json:"last_frame"`

	// Delay is the wait requested by the last Draw.
	Delay time.Duration `json:"delay"`

	// Width / Height are the drawable size at the last frame.
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Recorder keeps the latest FrameStats. The run loop writes it; the web
// server reads copies from other goroutines.
type Recorder struct {
	mu    sync.RWMutex
	stats FrameStats
}

// NewRecorder returns a Recorder for the given module and backend names.
func NewRecorder(module, backend string) *Recorder {
	return &Recorder{stats: FrameStats{Module: module, Backend: backend}}
}

// Frame records one completed frame.
func (r *Recorder) Frame(at time.Time, delay time.Duration, width, height int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.stats.Frames++
	r.stats.LastFrame = at
	r.stats.Delay = delay
	r.stats.Width = width
	r.stats.Height = height
	r.mu.Unlock()
}

// Snapshot returns a copy of the current stats.
func (r *Recorder) Snapshot() FrameStats {
	if r == nil {
		return FrameStats{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}
