package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "globe.yaml")
	yaml := `
device: tablet
overlay:
  batch_size: 5
  hide_delay: 300ms
zoom:
  max: 6
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("GLOBE_LOG__LEVEL", "debug")
	t.Setenv("GLOBE_WINDOW__WIDTH", "1920")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Device != "tablet" {
		t.Errorf("Device = %q, want tablet", cfg.Device)
	}
	if cfg.Overlay.BatchSize != 5 {
		t.Errorf("BatchSize = %d, want 5", cfg.Overlay.BatchSize)
	}
	if cfg.Overlay.HideDelay != 300*time.Millisecond {
		t.Errorf("HideDelay = %v, want 300ms", cfg.Overlay.HideDelay)
	}
	if cfg.Zoom.Max != 6 {
		t.Errorf("Zoom.Max = %v, want 6", cfg.Zoom.Max)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Window.Width != 1920 {
		t.Errorf("Window.Width = %d, want 1920", cfg.Window.Width)
	}
	// untouched defaults survive the layering
	if cfg.Overlay.TeardownDelay != 150*time.Millisecond {
		t.Errorf("TeardownDelay = %v, want 150ms", cfg.Overlay.TeardownDelay)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(c *Config)
		field string
	}{
		{"bad device", func(c *Config) { c.Device = "watch" }, "Device"},
		{"zero batch", func(c *Config) { c.Overlay.BatchSize = 0 }, "BatchSize"},
		{"max below min", func(c *Config) { c.Zoom.Max = 0.5 }, "Max"},
		{"step not growing", func(c *Config) { c.Zoom.Step = 1 }, "Step"},
		{"bad url", func(c *Config) { c.Data.FacilitiesURL = "not a url" }, "FacilitiesURL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mod(c)
			err := c.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention %s", err, tt.field)
			}
		})
	}
}

func TestGlobeOptions(t *testing.T) {
	cfg := Default()
	cfg.Device = "mobile"
	cfg.Overlay.BatchSize = 7
	cfg.Overlay.PopupWidth = 300
	cfg.Zoom.Max = 5

	opts, err := cfg.GlobeOptions()
	if err != nil {
		t.Fatalf("GlobeOptions: %v", err)
	}
	if !opts.Device.IsTouchPrimary || opts.Device.GlobeRadius() != 2.7 {
		t.Errorf("device = %+v, want mobile", opts.Device)
	}
	if opts.Scheduler.BatchSize != 7 || opts.Scheduler.MarkerScale != 0.6 {
		t.Errorf("scheduler = %+v", opts.Scheduler)
	}
	if opts.Popup.Panel.W != 300 || opts.Popup.Panel.H != 500 || opts.Popup.HideDelay != 150*time.Millisecond {
		t.Errorf("popup = %+v", opts.Popup)
	}
	if opts.Zoom.Max != 5 || opts.Zoom.BaseDistance != 24 {
		t.Errorf("zoom = %+v", opts.Zoom)
	}

	cfg.Device = "watch"
	if _, err := cfg.GlobeOptions(); err == nil {
		t.Error("expected error for unknown device")
	}
}
