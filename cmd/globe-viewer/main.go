package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"

	"github.com/sudorandom/dc-globe/pkg/config"
	"github.com/sudorandom/dc-globe/pkg/globe"
	"github.com/sudorandom/dc-globe/pkg/logging"
	"github.com/sudorandom/dc-globe/pkg/metrics"
	"github.com/sudorandom/dc-globe/pkg/render"
	"github.com/sudorandom/dc-globe/pkg/sources"
	"github.com/sudorandom/dc-globe/pkg/utils"
)

type Globals struct {
	Config   string `short:"c" type:"path" help:"YAML config file. Defaults to ./globe.yaml when present."`
	LogLevel string `help:"Override log.level (trace, debug, info, warn, error)."`
}

type CLI struct {
	Globals `embed:""`

	View  ViewCmd  `cmd:"" default:"withargs" help:"Open the globe window."`
	Fetch FetchCmd `cmd:"" help:"Fetch facilities once, refresh the offline snapshot and log a region summary."`
}

type ViewCmd struct {
	Width     int     `help:"Initial window width."`
	Height    int     `help:"Initial window height."`
	Headless  bool    `help:"Run without a local window (Xvfb rendering active)."`
	Device    string  `help:"Device class: desktop, tablet or mobile."`
	TPS       int     `help:"Ticks per second."`
	Longitude float64 `default:"10" help:"Longitude facing the camera at start."`
}

type FetchCmd struct{}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("globe-viewer"),
		kong.Description("Rotating globe of Internet Computer data centers."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

// load reads the config and initializes logging from it.
func (g *Globals) load(override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	return cfg, nil
}

func (c *ViewCmd) override(cfg *config.Config) {
	if c.Width > 0 {
		cfg.Window.Width = c.Width
	}
	if c.Height > 0 {
		cfg.Window.Height = c.Height
	}
	if c.Headless {
		cfg.Window.Headless = true
	}
	if c.Device != "" {
		cfg.Device = c.Device
	}
	if c.TPS > 0 {
		cfg.Window.TPS = c.TPS
	}
}

func (c *ViewCmd) Run(g *Globals) error {
	cfg, err := g.load(c.override)
	if err != nil {
		return err
	}
	opts, err := cfg.GlobeOptions()
	if err != nil {
		return err
	}
	opts.MobileSelect = func(f globe.Facility) {
		logging.Info().
			Str("id", f.ID).
			Str("name", f.Name).
			Str("region", f.Region).
			Int("nodes", f.TotalNodes).
			Msg("Facility selected")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logging.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	store := openSnapshots(cfg.Data.SnapshotDir)
	if store != nil {
		defer closeSnapshots(store)
	}
	feed := newFeed(cfg, store)

	facilities := make(chan []globe.Facility, 1)
	go feed.Run(ctx, facilities)

	boundaries := make(chan []sources.Polyline, 1)
	if cfg.Data.BoundariesURL != "" {
		go func() {
			lines, err := sources.FetchBoundaries(ctx, &http.Client{Timeout: cfg.Data.FetchTimeout}, cfg.Data.BoundariesURL, cfg.Data.CacheDir)
			if err != nil {
				logging.Warn().Err(err).Msg("Continent boundaries unavailable, drawing grid only")
				return
			}
			boundaries <- lines
		}()
	}

	game := render.NewGame(render.Options{
		Width:            cfg.Window.Width,
		Height:           cfg.Window.Height,
		InitialLongitude: c.Longitude,
		CaptureDir:       cfg.Window.CaptureDir,
		Overlay:          opts,
		Done:             ctx.Done(),
	}, facilities, boundaries)
	defer game.Close()

	ebiten.SetTPS(cfg.Window.TPS)
	if cfg.Window.Headless {
		logging.Info().Msg("Running in HEADLESS mode (Rendering active).")
	} else {
		ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
		ebiten.SetWindowTitle(cfg.Window.Title)
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}
	logging.Info().
		Str("device", opts.Device.Name).
		Int("width", cfg.Window.Width).
		Int("height", cfg.Window.Height).
		Msg("Starting viewer")
	return ebiten.RunGame(game)
}

func (c *FetchCmd) Run(g *Globals) error {
	cfg, err := g.load(nil)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := openSnapshots(cfg.Data.SnapshotDir)
	if store != nil {
		defer closeSnapshots(store)
	}

	facilities, fromSnapshot, err := newFeed(cfg, store).Once(ctx)
	if err != nil {
		return err
	}
	clusters := globe.Cluster(facilities)
	for _, grp := range clusters.Groups() {
		logging.Debug().Str("region", grp.Key).Int("facilities", len(grp.Members)).Msg("Region")
	}
	logging.Info().
		Int("facilities", len(facilities)).
		Int("with_nodes", len(clusters.Flatten())).
		Int("regions", clusters.Len()).
		Bool("from_snapshot", fromSnapshot).
		Msg("Fetch complete")
	return nil
}

func newFeed(cfg *config.Config, store *utils.SnapshotStore) *sources.Feed {
	src := sources.NewFacilitySource(cfg.Data.FacilitiesURL, cfg.Data.FetchTimeout)
	var snaps sources.Snapshots
	if store != nil {
		snaps = store
	}
	return sources.NewFeed(src, snaps, cfg.Data.RefreshInterval)
}

// openSnapshots returns nil when snapshots are disabled or unavailable; the
// viewer then runs online only.
func openSnapshots(dir string) *utils.SnapshotStore {
	if dir == "" {
		return nil
	}
	store, err := utils.OpenSnapshotStore(dir)
	if err != nil {
		logging.Warn().Err(err).Msg("Snapshot store unavailable")
		return nil
	}
	return store
}

func closeSnapshots(store *utils.SnapshotStore) {
	if err := store.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing snapshot store")
	}
}
