package globe

import (
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/sudorandom/dc-globe/pkg/logging"
	"github.com/sudorandom/dc-globe/pkg/metrics"
)

// markerLift keeps marker sprites just above the sphere surface.
const markerLift = 0.02

type Options struct {
	Device       DeviceClass
	Scheduler    SchedulerConfig
	Popup        PopupConfig
	Zoom         ZoomConfig
	MobileSelect func(Facility)
	Now          func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Device:    Desktop,
		Scheduler: DefaultSchedulerConfig(),
		Popup:     DefaultPopupConfig(),
		Zoom:      DefaultZoomConfig(),
	}
}

// Overlay owns the popup controller, the zoom controller and the current
// marker scheduler for one globe instance.
type Overlay struct {
	opts    Options
	surface Surface
	popup   *HoverController
	zoom    *ZoomController

	sched      *Scheduler
	clusters   *Clusters
	facilities []Facility
	radius     float64
	disposed   bool

	log zerolog.Logger
}

func NewOverlay(surface Surface, view PopupView, opts Options) *Overlay {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	o := &Overlay{
		opts:     opts,
		surface:  surface,
		popup:    NewHoverController(opts.Popup, opts.Device, surface, view, opts.Now),
		zoom:     NewZoomController(surface, opts.Zoom),
		clusters: Cluster(nil),
		radius:   opts.Device.GlobeRadius(),
		log:      logging.Component("overlay"),
	}
	surface.CreateSphere(o.radius)
	o.zoom.Apply()
	return o
}

func (o *Overlay) Popup() *HoverController { return o.popup }
func (o *Overlay) Zoom() *ZoomController   { return o.zoom }
func (o *Overlay) Clusters() *Clusters     { return o.clusters }
func (o *Overlay) Radius() float64         { return o.radius }

// Scheduler is the scheduler for the current dataset, nil before the first Load.
func (o *Overlay) Scheduler() *Scheduler { return o.sched }

// Load replaces the dataset. Groups are rebuilt wholesale: the previous
// scheduler is cancelled, its markers removed and any open popup closed.
// An identical dataset is ignored. Reports whether a rebuild happened.
func (o *Overlay) Load(facilities []Facility) bool {
	if o.disposed {
		return false
	}
	normalized := make([]Facility, len(facilities))
	for i, f := range facilities {
		normalized[i] = f.Normalized()
	}
	if o.sched != nil && slices.Equal(normalized, o.facilities) {
		return false
	}

	if o.sched != nil {
		o.sched.Cancel()
	}
	o.popup.Reset()

	o.facilities = normalized
	o.clusters = Cluster(normalized)
	o.sched = NewScheduler(
		o.clusters.Groups(),
		o.radius+markerLift,
		o.surface,
		o.opts.Scheduler,
		WiringFor(o.opts.Device, o.popup, o.opts.MobileSelect),
	)

	metrics.Facilities.Set(float64(len(o.clusters.Flatten())))
	metrics.Regions.Set(float64(o.clusters.Len()))
	o.log.Info().
		Int("facilities", len(facilities)).
		Int("regions", o.clusters.Len()).
		Str("device", o.opts.Device.Name).
		Msg("Dataset loaded")
	return true
}

// Tick runs one frame of scheduled work.
func (o *Overlay) Tick(now time.Time) {
	if o.disposed {
		return
	}
	if o.sched != nil {
		o.sched.Step(now)
	}
	o.popup.Tick(now)
}

// Dispose cancels pending batches and timers and releases the surface.
func (o *Overlay) Dispose() {
	if o.disposed {
		return
	}
	o.disposed = true
	if o.sched != nil {
		o.sched.Cancel()
	}
	o.popup.Dispose()
	o.surface.Dispose()
}
