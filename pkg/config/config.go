// Package config loads viewer configuration from defaults, an optional YAML
// file and GLOBE_ environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/sudorandom/dc-globe/pkg/globe"
	"github.com/sudorandom/dc-globe/pkg/sources"
)

// EnvPrefix is stripped from environment variables. A double underscore
// separates nesting levels: GLOBE_DATA__REFRESH_INTERVAL -> data.refresh_interval.
const EnvPrefix = "GLOBE_"

// DefaultConfigPaths are searched when no explicit path is given.
var DefaultConfigPaths = []string{
	"globe.yaml",
	"globe.yml",
}

type Config struct {
	Window  WindowConfig  `koanf:"window"`
	Device  string        `koanf:"device" validate:"oneof=desktop tablet mobile"`
	Data    DataConfig    `koanf:"data"`
	Overlay OverlayConfig `koanf:"overlay"`
	Zoom    ZoomConfig    `koanf:"zoom"`
	Log     LogConfig     `koanf:"log"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type WindowConfig struct {
	Width      int    `koanf:"width" validate:"gt=0"`
	Height     int    `koanf:"height" validate:"gt=0"`
	Headless   bool   `koanf:"headless"`
	TPS        int    `koanf:"tps" validate:"gte=10,lte=240"`
	Title      string `koanf:"title"`
	CaptureDir string `koanf:"capture_dir"`
}

type DataConfig struct {
	FacilitiesURL   string        `koanf:"facilities_url" validate:"required,url"`
	BoundariesURL   string        `koanf:"boundaries_url" validate:"omitempty,url"`
	CacheDir        string        `koanf:"cache_dir" validate:"required"`
	SnapshotDir     string        `koanf:"snapshot_dir"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`
	FetchTimeout    time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
}

type OverlayConfig struct {
	BatchSize     int           `koanf:"batch_size" validate:"gt=0"`
	BatchInterval time.Duration `koanf:"batch_interval" validate:"gte=0"`
	HideDelay     time.Duration `koanf:"hide_delay" validate:"gt=0"`
	TeardownDelay time.Duration `koanf:"teardown_delay" validate:"gte=0"`
	PopupWidth    float64       `koanf:"popup_width" validate:"gt=0"`
	PopupHeight   float64       `koanf:"popup_height" validate:"gt=0"`
	PopupMargin   float64       `koanf:"popup_margin" validate:"gte=0"`
}

type ZoomConfig struct {
	Initial      float64 `koanf:"initial" validate:"gt=0"`
	Min          float64 `koanf:"min" validate:"gt=0"`
	Max          float64 `koanf:"max" validate:"gtfield=Min"`
	Step         float64 `koanf:"step" validate:"gt=1"`
	TiltDegrees  float64 `koanf:"tilt_degrees" validate:"gte=0"`
	BaseDistance float64 `koanf:"base_distance" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type MetricsConfig struct {
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			TPS:    60,
			Title:  "Data Center Globe",
		},
		Device: "desktop",
		Data: DataConfig{
			FacilitiesURL:   sources.FacilitiesURL,
			BoundariesURL:   sources.BoundariesURL,
			CacheDir:        "data/cache",
			SnapshotDir:     "data/snapshot",
			RefreshInterval: 0,
			FetchTimeout:    30 * time.Second,
		},
		Overlay: OverlayConfig{
			BatchSize:     3,
			BatchInterval: 50 * time.Millisecond,
			HideDelay:     150 * time.Millisecond,
			TeardownDelay: 150 * time.Millisecond,
			PopupWidth:    380,
			PopupHeight:   500,
			PopupMargin:   20,
		},
		Zoom: ZoomConfig{
			Initial:      1.4,
			Min:          0.8,
			Max:          8.0,
			Step:         1.2,
			TiltDegrees:  5,
			BaseDistance: 24,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load layers defaults, the config file and the environment. An empty path
// searches DefaultConfigPaths; a missing default file is not an error, a
// missing explicit file is.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and returns a single error listing every
// violated field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(fields, ", "))
}

// GlobeOptions converts the overlay, zoom and device sections into overlay
// options.
func (c *Config) GlobeOptions() (globe.Options, error) {
	device, err := globe.ParseDeviceClass(c.Device)
	if err != nil {
		return globe.Options{}, err
	}
	opts := globe.DefaultOptions()
	opts.Device = device
	opts.Scheduler.BatchSize = c.Overlay.BatchSize
	opts.Scheduler.BatchInterval = c.Overlay.BatchInterval
	opts.Popup = globe.PopupConfig{
		HideDelay:     c.Overlay.HideDelay,
		TeardownDelay: c.Overlay.TeardownDelay,
		Panel:         globe.Size{W: c.Overlay.PopupWidth, H: c.Overlay.PopupHeight},
		Margin:        c.Overlay.PopupMargin,
	}
	opts.Zoom = globe.ZoomConfig{
		Initial:      c.Zoom.Initial,
		Min:          c.Zoom.Min,
		Max:          c.Zoom.Max,
		Step:         c.Zoom.Step,
		TiltDegrees:  c.Zoom.TiltDegrees,
		BaseDistance: c.Zoom.BaseDistance,
	}
	return opts, nil
}
