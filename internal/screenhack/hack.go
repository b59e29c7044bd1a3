package screenhack

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"colourclock/internal/resource"
)

// Event is input delivered to a running module.
type Event interface {
	event()
}

// KeyEvent is a key press. Sym is the key name, e.g. "q", "Q", "Escape".
type KeyEvent struct {
	Sym string
}

// ButtonEvent is a mouse button press at (X, Y).
type ButtonEvent struct {
	Button int
	X, Y   int
}

// ConfigureEvent reports the window's new size.
type ConfigureEvent struct {
	Width, Height int
}

// ExposeEvent reports that part of the window needs repainting.
type ExposeEvent struct{}

func (KeyEvent) event()       {}
func (ButtonEvent) event()    {}
func (ConfigureEvent) event() {}
func (ExposeEvent) event()    {}

// Hack is one initialized module. The host calls its methods from a
// single goroutine, one at a time, and calls Free exactly once.
type Hack interface {
	// Draw renders one frame and returns how long the host should wait
	// before calling Draw again.
	Draw() time.Duration
	// Reshape records the window's new size.
	Reshape(width, height int)
	// Event reports whether the module consumed ev.
	Event(ev Event) bool
	// Free releases what the module created in Init.
	Free()
}

// Module describes a screensaver module to the host.
type Module struct {
	Name string
	// Defaults are resource lines such as ".foreground: white".
	Defaults []string
	// Options are the module's command-line options.
	Options []resource.Option
	// Init creates the module's state for drawing into w.
	Init func(d Display, w Window, db *resource.DB) Hack
}

// ErrUnknownModule is returned by Lookup for unregistered names.
var ErrUnknownModule = errors.New("screenhack: unknown module")

var (
	registryMu sync.RWMutex
	registry   = map[string]Module{}
)

// Register adds m to the module table. Names are case-insensitive and
// must be unique.
func Register(m Module) error {
	if m.Name == "" {
		return errors.New("screenhack: module has no name")
	}
	if m.Init == nil {
		return fmt.Errorf("screenhack: module %q has no Init", m.Name)
	}
	key := strings.ToLower(m.Name)

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[key]; dup {
		return fmt.Errorf("screenhack: module %q already registered", m.Name)
	}
	registry[key] = m
	return nil
}

// Lookup returns the module registered under name.
func Lookup(name string) (Module, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	m, ok := registry[strings.ToLower(name)]
	if !ok {
		return Module{}, fmt.Errorf("%w: %q", ErrUnknownModule, name)
	}
	return m, nil
}

// Modules returns the registered module names, sorted.
func Modules() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for _, m := range registry {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}

// Resources builds the resource database for m: the module defaults
// overlaid with overrides.
func (m Module) Resources(overrides map[string]string) *resource.DB {
	db := resource.New(m.Defaults...)
	db.Merge(overrides)
	return db
}

// IsQuitKey reports whether an unhandled ev should stop the host.
func IsQuitKey(ev Event) bool {
	k, ok := ev.(KeyEvent)
	if !ok {
		return false
	}
	return k.Sym == "q" || k.Sym == "Q" || k.Sym == "Escape"
}
