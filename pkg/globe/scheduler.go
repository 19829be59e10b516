package globe

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/sudorandom/dc-globe/pkg/logging"
	"github.com/sudorandom/dc-globe/pkg/metrics"
)

type SchedulerConfig struct {
	BatchSize     int
	BatchInterval time.Duration
	MarkerScale   float64
	MarkerOpacity float64
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		BatchSize:     3,
		BatchInterval: 50 * time.Millisecond,
		MarkerScale:   0.6,
		MarkerOpacity: 1,
	}
}

// HoverTarget receives desktop pointer callbacks from markers.
type HoverTarget interface {
	Hover(marker int, g *RegionGroup)
	Leave(marker int)
}

// Wiring decides, once, which callbacks each marker gets.
type Wiring struct {
	Touch        bool
	Hover        HoverTarget
	MobileSelect func(Facility)
}

// WiringFor builds the wiring for a device class.
func WiringFor(d DeviceClass, hover HoverTarget, mobileSelect func(Facility)) Wiring {
	return Wiring{Touch: d.IsTouchPrimary, Hover: hover, MobileSelect: mobileSelect}
}

// Marker ties a placed handle to the group it represents.
type Marker struct {
	Handle MarkerHandle
	Group  *RegionGroup
}

// Scheduler builds markers a few at a time so a large dataset never stalls a
// frame. Step is called from the render loop; each call that is due builds
// one batch and then waits BatchInterval.
type Scheduler struct {
	cfg    SchedulerConfig
	groups []*RegionGroup
	radius float64
	sink   MarkerSink
	wiring Wiring

	next        int
	nextBatchAt time.Time
	cancelled   bool
	markers     []Marker
	failed      int

	log zerolog.Logger
}

func NewScheduler(groups []*RegionGroup, radius float64, sink MarkerSink, cfg SchedulerConfig, w Wiring) *Scheduler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &Scheduler{
		cfg:    cfg,
		groups: groups,
		radius: radius,
		sink:   sink,
		wiring: w,
		log:    logging.Component("scheduler"),
	}
}

// Step builds the next batch if one is due and reports whether scheduling
// has finished (all groups handled, or cancelled).
func (s *Scheduler) Step(now time.Time) bool {
	if s.Done() {
		return true
	}
	if now.Before(s.nextBatchAt) {
		return false
	}

	end := min(s.next+s.cfg.BatchSize, len(s.groups))
	for ; s.next < end; s.next++ {
		s.build(s.groups[s.next])
	}
	s.nextBatchAt = now.Add(s.cfg.BatchInterval)

	if s.next >= len(s.groups) {
		s.log.Debug().Int("markers", len(s.markers)).Int("failed", s.failed).Msg("Marker scheduling complete")
	}
	return s.Done()
}

func (s *Scheduler) build(g *RegionGroup) {
	first := g.First()
	kind := IconFor(g)
	pos := Project(first.Latitude, first.Longitude, s.radius)

	h, err := s.sink.AddMarker(kind, pos, s.cfg.MarkerScale, s.cfg.MarkerOpacity)
	if err != nil || h == nil {
		s.failed++
		metrics.MarkerErrors.Inc()
		s.log.Warn().Err(err).Str("region", g.Key).Msg("Skipping marker")
		return
	}

	id := h.ID()
	if s.wiring.Touch {
		h.OnTap(func() {
			if s.cancelled || s.wiring.MobileSelect == nil {
				return
			}
			metrics.MobileSelects.Inc()
			s.wiring.MobileSelect(first)
		})
	} else if s.wiring.Hover != nil {
		h.OnPointerEnter(func() {
			if !s.cancelled {
				s.wiring.Hover.Hover(id, g)
			}
		})
		h.OnPointerLeave(func() {
			if !s.cancelled {
				s.wiring.Hover.Leave(id)
			}
		})
	}

	metrics.MarkersCreated.WithLabelValues(kind.String()).Inc()
	s.markers = append(s.markers, Marker{Handle: h, Group: g})
}

// Done reports whether no more batches will run.
func (s *Scheduler) Done() bool {
	return s.cancelled || s.next >= len(s.groups)
}

// Cancel stops any remaining batches and removes every marker built so far.
func (s *Scheduler) Cancel() {
	if s.cancelled {
		return
	}
	s.cancelled = true
	for _, m := range s.markers {
		m.Handle.Remove()
	}
	s.markers = nil
}

func (s *Scheduler) Markers() []Marker {
	return s.markers
}

// Failed is the number of groups the surface refused to place.
func (s *Scheduler) Failed() int {
	return s.failed
}
