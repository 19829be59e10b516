package globe

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/sudorandom/dc-globe/pkg/logging"
	"github.com/sudorandom/dc-globe/pkg/metrics"
)

type Phase int

const (
	PhaseHidden Phase = iota
	PhaseShowing
	PhaseVisible
	PhaseHiding
)

func (p Phase) String() string {
	switch p {
	case PhaseShowing:
		return "showing"
	case PhaseVisible:
		return "visible"
	case PhaseHiding:
		return "hiding"
	default:
		return "hidden"
	}
}

// PopupView draws the info panel. It never changes controller state.
type PopupView interface {
	RenderPopup(c PopupContent) error
	PlacePopup(at Point)
	SetPopupPhase(p Phase)
	ClearPopup()
}

type PopupConfig struct {
	HideDelay     time.Duration
	TeardownDelay time.Duration
	Panel         Size
	Margin        float64
}

func DefaultPopupConfig() PopupConfig {
	return PopupConfig{
		HideDelay:     150 * time.Millisecond,
		TeardownDelay: 150 * time.Millisecond,
		Panel:         Size{W: 380, H: 500},
		Margin:        20,
	}
}

// PopupState is the single popup record. Only HoverController writes it.
type PopupState struct {
	Region         *RegionGroup
	ExpandedMember int
	Phase          Phase
	PendingHide    time.Time
	Positioned     bool
	Pointer        Point
	Placement      Point
	Generation     uint64
}

// HoverController runs the popup show/hide state machine.
//
// Every show or hide cycle bumps the generation. A hide deadline remembers
// the generation it was armed in and is dropped if the generation moved on,
// so a late timer can never close a popup opened after it.
type HoverController struct {
	cfg     PopupConfig
	device  DeviceClass
	surface Surface
	toggler InteractionToggler
	view    PopupView
	now     func() time.Time

	bounds Rect
	state  PopupState

	hoveredMarker  int
	hoveringMarker bool
	hoveringPanel  bool
	hideGen        uint64
	teardownAt     time.Time
	disposed       bool

	log zerolog.Logger
}

func NewHoverController(cfg PopupConfig, device DeviceClass, surface Surface, view PopupView, now func() time.Time) *HoverController {
	if now == nil {
		now = time.Now
	}
	c := &HoverController{
		cfg:     cfg,
		device:  device,
		surface: surface,
		view:    view,
		now:     now,
		log:     logging.Component("popup"),
	}
	if t, ok := surface.(InteractionToggler); ok {
		c.toggler = t
	}
	return c
}

// State returns a copy of the popup state.
func (c *HoverController) State() PopupState {
	return c.state
}

func (c *HoverController) Phase() Phase {
	return c.state.Phase
}

// PanelRect is the on-screen panel area while the popup is not hidden.
func (c *HoverController) PanelRect() (Rect, bool) {
	if c.state.Phase == PhaseHidden || !c.state.Positioned {
		return Rect{}, false
	}
	return Rect{X: c.state.Placement.X, Y: c.state.Placement.Y, W: c.cfg.Panel.W, H: c.cfg.Panel.H}, true
}

func (c *HoverController) hoverEnabled() bool {
	return !c.device.IsTouchPrimary && !c.disposed
}

// Hover is called when the pointer enters a marker.
func (c *HoverController) Hover(marker int, g *RegionGroup) {
	if !c.hoverEnabled() || g == nil {
		return
	}
	c.hoveredMarker = marker
	c.hoveringMarker = true
	c.cancelHide()

	if (c.state.Phase == PhaseShowing || c.state.Phase == PhaseVisible) &&
		c.state.Region != nil && c.state.Region.Key == g.Key {
		return
	}

	c.state.Generation++
	c.teardownAt = time.Time{}
	c.state.Region = g
	c.state.ExpandedMember = 0
	c.state.Phase = PhaseShowing
	c.state.Positioned = false
	c.position()

	if err := c.renderContent(); err != nil {
		c.log.Warn().Err(err).Str("region", g.Key).Msg("Popup render failed")
		c.teardown()
		return
	}
	c.view.SetPopupPhase(PhaseShowing)
}

// Leave is called when the pointer exits a marker. Leaves for a marker other
// than the one last entered are stale and ignored.
func (c *HoverController) Leave(marker int) {
	if !c.hoverEnabled() {
		return
	}
	if !c.hoveringMarker || marker != c.hoveredMarker {
		return
	}
	c.hoveringMarker = false
	if c.hoveringPanel {
		return
	}
	c.scheduleHide()
}

// PanelEnter marks the pointer as over the panel, suppressing any hide.
func (c *HoverController) PanelEnter() {
	if !c.hoverEnabled() {
		return
	}
	c.hoveringPanel = true
	c.cancelHide()
	if c.state.Phase == PhaseHiding {
		c.state.Generation++
		c.teardownAt = time.Time{}
		c.state.Phase = PhaseVisible
		c.view.SetPopupPhase(PhaseVisible)
	}
}

func (c *HoverController) PanelLeave() {
	if !c.hoverEnabled() {
		return
	}
	c.hoveringPanel = false
	if !c.hoveringMarker {
		c.scheduleHide()
	}
}

// PointerOut is called when the pointer leaves the globe area entirely.
func (c *HoverController) PointerOut() {
	if !c.hoverEnabled() {
		return
	}
	c.hoveringMarker = false
	c.hoveringPanel = false
	c.scheduleHide()
}

// PointerMove records the pointer. Placement is only computed if it has not
// been computed for the current region yet.
func (c *HoverController) PointerMove(x, y float64) {
	c.state.Pointer = Point{X: x, Y: y}
	if c.state.Phase == PhaseShowing || c.state.Phase == PhaseVisible {
		c.position()
	}
}

// Resize updates the anchor bounds and forces the next placement.
func (c *HoverController) Resize(bounds Rect) {
	c.bounds = bounds
	c.state.Positioned = false
	if c.state.Phase == PhaseShowing || c.state.Phase == PhaseVisible {
		c.position()
	}
}

// ToggleMember expands another facility of a multi-facility region in place.
func (c *HoverController) ToggleMember(index int) {
	if c.state.Phase != PhaseVisible || c.state.Region == nil || !c.state.Region.IsMultiple() {
		return
	}
	if index < 0 || index >= len(c.state.Region.Members) || index == c.state.ExpandedMember {
		return
	}
	c.state.ExpandedMember = index
	if err := c.renderContent(); err != nil {
		c.log.Warn().Err(err).Int("member", index).Msg("Popup re-render failed")
	}
}

// ForceHide starts the hide transition immediately, skipping the debounce.
func (c *HoverController) ForceHide() {
	if c.disposed || c.state.Phase == PhaseHidden || c.state.Phase == PhaseHiding {
		return
	}
	c.cancelHide()
	c.hoveringMarker = false
	c.hoveringPanel = false
	c.startHiding(c.now())
}

// Tick advances timers. It is called once per frame.
func (c *HoverController) Tick(now time.Time) {
	if c.disposed {
		return
	}

	if c.state.Phase == PhaseShowing {
		c.state.Phase = PhaseVisible
		c.freeze()
		c.view.SetPopupPhase(PhaseVisible)
	}

	if !c.state.PendingHide.IsZero() && !now.Before(c.state.PendingHide) {
		gen := c.hideGen
		c.state.PendingHide = time.Time{}
		if gen == c.state.Generation && !c.hoveringMarker && !c.hoveringPanel &&
			(c.state.Phase == PhaseVisible || c.state.Phase == PhaseShowing) {
			c.startHiding(now)
		}
	}

	if c.state.Phase == PhaseHiding && !now.Before(c.teardownAt) {
		c.teardown()
	}
}

// Reset hides immediately without a transition, e.g. when the dataset the
// current region came from is replaced.
func (c *HoverController) Reset() {
	if c.state.Phase == PhaseHidden && c.state.PendingHide.IsZero() {
		return
	}
	c.teardown()
}

// Dispose tears the popup down for good. No later call has any effect.
func (c *HoverController) Dispose() {
	if c.disposed {
		return
	}
	c.teardown()
	c.disposed = true
}

func (c *HoverController) scheduleHide() {
	if c.state.Phase == PhaseHidden || c.state.Phase == PhaseHiding {
		return
	}
	c.state.PendingHide = c.now().Add(c.cfg.HideDelay)
	c.hideGen = c.state.Generation
}

func (c *HoverController) cancelHide() {
	c.state.PendingHide = time.Time{}
}

func (c *HoverController) startHiding(now time.Time) {
	c.state.Generation++
	c.state.Phase = PhaseHiding
	c.teardownAt = now.Add(c.cfg.TeardownDelay)
	c.view.SetPopupPhase(PhaseHiding)
}

func (c *HoverController) position() {
	if c.state.Positioned {
		return
	}
	c.state.Placement = Place(c.state.Pointer, c.bounds, c.cfg.Panel, c.cfg.Margin)
	c.state.Positioned = true
	c.view.PlacePopup(c.state.Placement)
}

func (c *HoverController) renderContent() error {
	content := BuildContent(c.state.Region, c.state.ExpandedMember)
	if err := c.view.RenderPopup(content); err != nil {
		return err
	}
	metrics.PopupShows.Inc()
	return nil
}

// teardown returns to Hidden. A view that panics while clearing is logged
// and the camera is still restored.
func (c *HoverController) teardown() {
	defer c.unfreeze()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("Popup view failed while clearing")
		}
	}()

	c.state.Generation++
	c.state.Phase = PhaseHidden
	c.state.Region = nil
	c.state.ExpandedMember = 0
	c.state.Positioned = false
	c.state.PendingHide = time.Time{}
	c.teardownAt = time.Time{}
	c.hoveringMarker = false
	c.hoveringPanel = false
	c.view.ClearPopup()
}

func (c *HoverController) freeze() {
	c.surface.SetAutoRotate(false)
	if c.toggler != nil {
		c.toggler.SetInteractive(false)
	}
}

func (c *HoverController) unfreeze() {
	c.surface.SetAutoRotate(true)
	if c.toggler != nil {
		c.toggler.SetInteractive(true)
	}
}
