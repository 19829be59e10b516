package render

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/rs/zerolog"

	"github.com/sudorandom/dc-globe/pkg/globe"
	"github.com/sudorandom/dc-globe/pkg/logging"
	"github.com/sudorandom/dc-globe/pkg/sources"
)

// tapSlop is how far a touch may travel and still count as a tap.
const tapSlop = 10

type Options struct {
	Width, Height    int
	InitialLongitude float64
	CaptureDir       string
	Overlay          globe.Options
	// Done stops the game loop when closed.
	Done <-chan struct{}
}

type touchTrack struct {
	startX, startY int
	lastX, lastY   int
	moved          bool
}

// Game is the ebiten game. Update is the only place overlay state changes:
// new datasets arrive on channels drained there, and every timer in the
// overlay is advanced from it.
type Game struct {
	opts    Options
	surface *Surface
	panel   *Panel
	overlay *globe.Overlay

	facilities <-chan []globe.Facility
	boundaries <-chan []sources.Polyline

	width, height int
	last          time.Time

	hovered       *Marker
	overPanel     bool
	pointerInside bool
	dragging      bool
	dragX, dragY  int

	touches  map[ebiten.TouchID]touchTrack
	touchIDs []ebiten.TouchID

	captureNext bool

	log zerolog.Logger
}

func NewGame(opts Options, facilities <-chan []globe.Facility, boundaries <-chan []sources.Polyline) *Game {
	surface := NewSurface(opts.Width, opts.Height, opts.InitialLongitude)
	panel := NewPanel(opts.Overlay.Popup.Panel)
	g := &Game{
		opts:       opts,
		surface:    surface,
		panel:      panel,
		overlay:    globe.NewOverlay(surface, panel, opts.Overlay),
		facilities: facilities,
		boundaries: boundaries,
		touches:    make(map[ebiten.TouchID]touchTrack),
		log:        logging.Component("game"),
	}
	g.resize(opts.Width, opts.Height)
	return g
}

func (g *Game) Overlay() *globe.Overlay { return g.overlay }
func (g *Game) Surface() *Surface       { return g.surface }

func (g *Game) Update() error {
	now := time.Now()
	var dt time.Duration
	if !g.last.IsZero() {
		dt = now.Sub(g.last)
	}
	g.last = now

	select {
	case <-g.opts.Done:
		return ebiten.Termination
	default:
	}
	g.drain()
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}
	g.handleKeys()
	if g.opts.Overlay.Device.IsTouchPrimary {
		g.handleTouch()
	} else {
		g.handlePointer()
	}

	g.surface.Step(dt, g.hovered, g.hovered != nil)
	g.overlay.Tick(now)
	g.panel.Step(dt)
	return nil
}

// drain applies at most one pending dataset and boundary set per frame.
func (g *Game) drain() {
	select {
	case fs := <-g.facilities:
		if g.overlay.Load(fs) {
			g.hovered = nil
			g.overPanel = false
		}
	default:
	}
	select {
	case lines := <-g.boundaries:
		g.surface.SetBoundaries(lines)
		g.log.Info().Int("lines", len(lines)).Msg("Boundaries loaded")
	default:
	}
}

func (g *Game) handleKeys() {
	zoom := g.overlay.Zoom()
	_, wy := ebiten.Wheel()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyNumpadAdd), wy > 0:
		zoom.ZoomIn()
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyNumpadSubtract), wy < 0:
		zoom.ZoomOut()
	case inpututil.IsKeyJustPressed(ebiten.Key0), inpututil.IsKeyJustPressed(ebiten.KeyNumpad0):
		zoom.Reset()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.overlay.Popup().ForceHide()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.captureNext = true
	}
}

func (g *Game) handlePointer() {
	x, y := ebiten.CursorPosition()
	inside := ebiten.IsFocused() && x >= 0 && y >= 0 && x < g.width && y < g.height
	if !inside {
		if g.pointerInside {
			g.pointerOut()
		}
		return
	}
	g.pointerInside = true
	g.pointerAt(float64(x), float64(y))

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.click(x, y)
	}
	if g.dragging {
		if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			g.dragging = false
		} else {
			g.surface.Drag(float64(x-g.dragX), float64(y-g.dragY))
			g.dragX, g.dragY = x, y
		}
	}
}

// pointerAt routes a pointer position to the panel and marker callbacks.
// The panel sits above the globe, so markers under it are not hoverable.
func (g *Game) pointerAt(x, y float64) {
	popup := g.overlay.Popup()
	popup.PointerMove(x, y)

	rect, shown := popup.PanelRect()
	over := shown && rect.Contains(globe.Point{X: x, Y: y})
	g.setOverPanel(over)

	var target *Marker
	if !over {
		target = g.surface.MarkerAt(x, y)
	}
	g.setHovered(target)
}

func (g *Game) click(x, y int) {
	fx, fy := float64(x), float64(y)
	if g.overPanel {
		if i := g.panel.MemberAt(fx, fy); i >= 0 {
			g.overlay.Popup().ToggleMember(i)
		}
		return
	}
	if g.surface.OnGlobe(fx, fy) {
		g.dragging = true
		g.dragX, g.dragY = x, y
	}
}

func (g *Game) pointerOut() {
	g.pointerInside = false
	g.dragging = false
	g.setHovered(nil)
	g.setOverPanel(false)
	g.overlay.Popup().PointerOut()
}

func (g *Game) setHovered(m *Marker) {
	if m == g.hovered {
		return
	}
	old := g.hovered
	g.hovered = m
	if old != nil {
		old.leave()
	}
	if m != nil {
		m.enter()
	}
}

func (g *Game) setOverPanel(over bool) {
	if over == g.overPanel {
		return
	}
	g.overPanel = over
	if over {
		g.overlay.Popup().PanelEnter()
	} else {
		g.overlay.Popup().PanelLeave()
	}
}

func (g *Game) handleTouch() {
	g.touchIDs = inpututil.AppendJustPressedTouchIDs(g.touchIDs[:0])
	for _, id := range g.touchIDs {
		x, y := ebiten.TouchPosition(id)
		g.touches[id] = touchTrack{startX: x, startY: y, lastX: x, lastY: y}
	}

	for id, tr := range g.touches {
		if inpututil.IsTouchJustReleased(id) {
			if !tr.moved {
				g.tapAt(float64(tr.lastX), float64(tr.lastY))
			}
			delete(g.touches, id)
			continue
		}
		x, y := ebiten.TouchPosition(id)
		if abs(x-tr.startX)+abs(y-tr.startY) > tapSlop {
			tr.moved = true
		}
		if tr.moved && len(g.touches) == 1 {
			g.surface.Drag(float64(x-tr.lastX), float64(y-tr.lastY))
		}
		tr.lastX, tr.lastY = x, y
		g.touches[id] = tr
	}

	// mouse clicks act as taps so touch layouts can be tried on a desktop
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		g.tapAt(float64(x), float64(y))
	}
}

func (g *Game) tapAt(x, y float64) {
	if m := g.surface.MarkerAt(x, y); m != nil {
		m.tap()
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.surface.Draw(screen)
	g.panel.Draw(screen)
	g.drawStatus(screen)

	if g.captureNext {
		g.captureNext = false
		captureFrame(screen, g.opts.CaptureDir, time.Now())
	}
}

func (g *Game) statusLine() string {
	c := g.overlay.Clusters()
	z := g.overlay.Zoom().State()
	line := fmt.Sprintf("DATA CENTERS %d   REGIONS %d   ZOOM %.1fx", len(c.Flatten()), c.Len(), z.Level)
	switch z.Level {
	case z.Max:
		line += " (MAX)"
	case z.Min:
		line += " (MIN)"
	}
	return line
}

func (g *Game) drawStatus(screen *ebiten.Image) {
	if g.panel.regular == nil {
		return
	}
	margin, fontSize := 20.0, 14.0
	if g.width > 2000 {
		margin, fontSize = 40.0, 28.0
	}
	face := &text.GoTextFace{Source: g.panel.regular, Size: fontSize}
	op := &text.DrawOptions{}
	op.GeoM.Translate(margin, float64(g.height)-margin-fontSize)
	op.ColorScale.ScaleWithColor(color.White)
	op.ColorScale.ScaleAlpha(0.6)
	text.Draw(screen, g.statusLine(), face, op)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.resize(outsideWidth, outsideHeight)
	}
	return g.width, g.height
}

func (g *Game) resize(w, h int) {
	g.width, g.height = w, h
	g.surface.Resize(w, h)
	g.overlay.Popup().Resize(globe.Rect{W: float64(w), H: float64(h)})
}

// Close disposes the overlay and the surface.
func (g *Game) Close() {
	g.overlay.Dispose()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
