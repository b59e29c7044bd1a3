package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the host configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Module resources (font, foreground, delay) live under
// Resources and are handed to the resource database unchanged.

// Backend names accepted in Config.Backend.
const (
	BackendWindow   = "window"
	BackendX11      = "x11"
	BackendHeadless = "headless"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the status server.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// PreviewConfig controls periodic PNG snapshots of the drawable.
type PreviewConfig struct {
	// Path is where the PNG snapshot is written.
	Path string `yaml:"path" json:"path"`

	// Schedule is a cron spec (e.g. "@every 1m" or "*/5 * * * *").
	// Empty disables snapshots.
	Schedule string `yaml:"schedule" json:"schedule"`
}

// Config is the top-level host configuration.
type Config struct {
	// Module is the registered screensaver module to run.
	Module string `yaml:"module" json:"module"`

	// Backend selects the display: "window" (desktop window), "x11"
	// (X server via the wire protocol) or "headless" (offscreen raster).
	Backend string `yaml:"backend" json:"backend"`

	// Display is the X display name, e.g. ":0". Empty uses $DISPLAY.
	Display string `yaml:"display" json:"display"`

	// Root draws on the X root window instead of a new window.
	Root bool `yaml:"root" json:"root"`

	// WindowID draws into an existing X window. Zero means unset.
	WindowID uint32 `yaml:"window_id" json:"window_id"`

	// Width and Height are the initial drawable size for new windows and
	// the headless raster.
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`

	// Fullscreen toggles fullscreen for the window backend.
	Fullscreen bool `yaml:"fullscreen" json:"fullscreen"`

	// Frames stops the host after this many frames. Zero runs until stopped.
	Frames int `yaml:"frames" json:"frames"`

	// LogLevel is one of "debug", "info", "error".
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Resources are module resources keyed by resource name.
	Resources map[string]string `yaml:"resources" json:"resources"`

	Preview PreviewConfig `yaml:"preview" json:"preview"`

	// Listen is the HTTP listen address for the status server. Empty
	// disables the server.
	Listen string `yaml:"listen" json:"listen"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

const (
	defaultModule      = "ColourClock"
	defaultWidth       = 1024
	defaultHeight      = 768
	defaultPreviewPath = "./cache/preview.png"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Module:    defaultModule,
		Backend:   BackendWindow,
		Width:     defaultWidth,
		Height:    defaultHeight,
		LogLevel:  "info",
		Resources: map[string]string{},
		Preview: PreviewConfig{
			Path: defaultPreviewPath,
		},
	}
}

// DefaultPath returns the per-user config location,
// e.g. ~/.config/colourclock/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", "colourclock.yaml")
	}
	return filepath.Join(dir, "colourclock", "config.yaml")
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Module == "" {
		c.Module = defaultModule
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendWindow, BackendX11, BackendHeadless:
		// ok
	default:
		c.Backend = BackendWindow
	}
	if c.Width <= 0 {
		c.Width = defaultWidth
	}
	if c.Height <= 0 {
		c.Height = defaultHeight
	}
	if c.Frames < 0 {
		c.Frames = 0
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "error":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = "info"
	}
	if c.Resources == nil {
		c.Resources = map[string]string{}
	}
	if c.Preview.Path == "" {
		c.Preview.Path = defaultPreviewPath
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return WriteFileAtomic(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// WriteFileAtomic writes data to a temp file in the same directory and
// renames it over path, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
