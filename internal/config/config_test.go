package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/slicecam/internal/tracker"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
tracker:
  detectionIntervalMs: 66
  smoothingWindow: 4
session:
  durationSec: 90
spawner:
  steps:
    - fromSec: 0
      intervalSec: 2
    - fromSec: 30
      intervalSec: 1
provider:
  mode: stream
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Tracker.DetectionIntervalMs != 66 || cfg.Tracker.SmoothingWindow != 4 {
		t.Errorf("tracker overrides not applied: %+v", cfg.Tracker)
	}
	if cfg.Tracker.MaxTrailLength != tracker.DefaultConfig().MaxTrailLength {
		t.Errorf("unset keys should keep defaults, got max trail %d", cfg.Tracker.MaxTrailLength)
	}
	if cfg.Session.DurationSec != 90 || cfg.Session.FruitPoints != 10 {
		t.Errorf("unexpected session config %+v", cfg.Session)
	}
	if len(cfg.Spawner.Steps) != 2 || cfg.Spawner.Steps[1].IntervalSec != 1 {
		t.Errorf("spawner steps not replaced: %+v", cfg.Spawner.Steps)
	}
	if cfg.Provider.Mode != ProviderStream {
		t.Errorf("provider mode = %q, want stream", cfg.Provider.Mode)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad yaml", "tracker: [unclosed"},
		{"zero detection interval", "tracker:\n  detectionIntervalMs: 0\n"},
		{"unknown provider", "provider:\n  mode: telepathy\n"},
		{"negative duration", "session:\n  durationSec: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a wrapped not-exist error, got %v", err)
	}

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Provider.Mode != ProviderAuto {
		t.Errorf("expected defaults, got mode %q", cfg.Provider.Mode)
	}
}

func TestValidate_NamesSection(t *testing.T) {
	cfg := Default()
	cfg.Physics.HitThresholdPx = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); len(got) < 8 || got[:8] != "physics:" {
		t.Errorf("error should name the section, got %q", got)
	}
}

func TestStorePath(t *testing.T) {
	cfg := Default()
	if got := cfg.StorePath("/data"); got != filepath.Join("/data", "slicecam.db") {
		t.Errorf("StorePath() = %q", got)
	}
	cfg.Store.Path = "/tmp/custom.db"
	if got := cfg.StorePath("/data"); got != "/tmp/custom.db" {
		t.Errorf("StorePath() = %q, want the configured path", got)
	}
}
