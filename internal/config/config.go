// Package config aggregates the per-component settings and loads overrides
// from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/slicecam/internal/capture"
	"github.com/ayusman/slicecam/internal/detector"
	"github.com/ayusman/slicecam/internal/game"
	"github.com/ayusman/slicecam/internal/physics"
	"github.com/ayusman/slicecam/internal/session"
	"github.com/ayusman/slicecam/internal/spawner"
	"github.com/ayusman/slicecam/internal/tracker"
)

// Landmark provider modes.
const (
	ProviderAuto   = "auto"
	ProviderCamera = "camera"
	ProviderStream = "stream"
)

// DataDirName is the directory under the user's home holding the database
// and the optional config file.
const DataDirName = ".slicecam"

// ProviderConfig selects where hand landmarks come from.
type ProviderConfig struct {
	// Mode is auto (MediaPipe if available, else stream), camera or stream.
	Mode string `yaml:"mode"`
	// StreamStalenessMs is how long a pushed landmark set stays current.
	StreamStalenessMs int64 `yaml:"streamStalenessMs"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"staticDir"`
}

// StoreConfig locates the results database.
type StoreConfig struct {
	// Path defaults to slicecam.db in the data directory.
	Path string `yaml:"path"`
}

// Config is the full application configuration.
type Config struct {
	Tracker  tracker.Config  `yaml:"tracker"`
	Physics  physics.Config  `yaml:"physics"`
	Spawner  spawner.Config  `yaml:"spawner"`
	Session  session.Config  `yaml:"session"`
	Game     game.Config     `yaml:"game"`
	Camera   capture.Config  `yaml:"camera"`
	Detector detector.Config `yaml:"detector"`
	Provider ProviderConfig  `yaml:"provider"`
	Server   ServerConfig    `yaml:"server"`
	Store    StoreConfig     `yaml:"store"`
}

// Default returns the tuned defaults for every component.
func Default() Config {
	return Config{
		Tracker:  tracker.DefaultConfig(),
		Physics:  physics.DefaultConfig(),
		Spawner:  spawner.DefaultConfig(),
		Session:  session.DefaultConfig(),
		Game:     game.DefaultConfig(),
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Provider: ProviderConfig{
			Mode:              ProviderAuto,
			StreamStalenessMs: detector.DefaultStreamStaleness.Milliseconds(),
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:7447",
			StaticDir: "web",
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to the defaults when
// it does not.
func LoadOrDefault(path string) (Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks every section and names the one that failed.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"tracker", c.Tracker.Validate},
		{"physics", c.Physics.Validate},
		{"spawner", c.Spawner.Validate},
		{"session", c.Session.Validate},
		{"game", c.Game.Validate},
		{"camera", c.Camera.Validate},
		{"provider", c.Provider.validate},
	}
	for _, check := range checks {
		if err := check.fn(); err != nil {
			return fmt.Errorf("%s: %w", check.name, err)
		}
	}
	return nil
}

func (p ProviderConfig) validate() error {
	switch p.Mode {
	case ProviderAuto, ProviderCamera, ProviderStream:
	default:
		return fmt.Errorf("unknown provider mode %q", p.Mode)
	}
	if p.StreamStalenessMs < 0 {
		return fmt.Errorf("stream staleness must not be negative, got %d", p.StreamStalenessMs)
	}
	return nil
}

// DataDir returns ~/.slicecam.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DataDirName), nil
}

// StorePath returns the configured database path, or slicecam.db inside
// dataDir.
func (c Config) StorePath(dataDir string) string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(dataDir, "slicecam.db")
}
