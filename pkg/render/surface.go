package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sudorandom/dc-globe/pkg/globe"
	"github.com/sudorandom/dc-globe/pkg/sources"
)

var (
	ColorSpace    = color.RGBA{5, 8, 20, 255}
	ColorOcean    = color.RGBA{14, 22, 48, 255}
	ColorRim      = color.RGBA{60, 80, 140, 255}
	ColorGrid     = color.RGBA{100, 116, 139, 38}  // Slate, 15%
	ColorBoundary = color.RGBA{202, 49, 254, 180}  // Purple
	ColorSingle   = color.RGBA{41, 171, 226, 255}  // Sky Blue
	ColorMulti    = color.RGBA{241, 90, 36, 255}   // Orange
	ColorHovered  = color.RGBA{255, 255, 255, 255} // White
)

var ErrSurfaceDisposed = errors.New("surface disposed")

const (
	// markerWorldSize is the world-space radius of a marker at scale 1.
	markerWorldSize = 0.2
	hoverScale      = 1.5
	hoverLerp       = 0.1
	boundaryLift    = 0.01
	gridLift        = 0.005
	minPitch        = -80.0
	maxPitch        = 80.0
)

// Marker is a sprite pinned to a point on the globe.
type Marker struct {
	id      int
	kind    globe.IconKind
	pos     globe.Vec3
	scale   float64
	opacity float64
	grow    float64 // hover feedback, lerped toward hoverScale
	removed bool

	onEnter, onLeave, onTap func()

	screen Projected
}

func (m *Marker) ID() int                  { return m.id }
func (m *Marker) OnPointerEnter(fn func()) { m.onEnter = fn }
func (m *Marker) OnPointerLeave(fn func()) { m.onLeave = fn }
func (m *Marker) OnTap(fn func())          { m.onTap = fn }
func (m *Marker) Remove()                  { m.removed = true }

func (m *Marker) Kind() globe.IconKind { return m.kind }

func (m *Marker) enter() {
	if m.onEnter != nil && !m.removed {
		m.onEnter()
	}
}

func (m *Marker) leave() {
	if m.onLeave != nil && !m.removed {
		m.onLeave()
	}
}

func (m *Marker) tap() {
	if m.onTap != nil && !m.removed {
		m.onTap()
	}
}

// Surface is the ebiten implementation of globe.Surface. It also implements
// globe.Tilter and globe.InteractionToggler.
type Surface struct {
	Camera      Camera
	RotateSpeed float64 // radians per second

	radius      float64
	autoRotate  bool
	interactive bool
	disposed    bool

	markers []*Marker
	nextID  int
	frames  int

	boundaries []sources.Polyline
	grid       []sources.Polyline

	sprites map[globe.IconKind]*ebiten.Image
}

func NewSurface(width, height int, initialLng float64) *Surface {
	return &Surface{
		Camera: Camera{
			Yaw:    YawFacing(initialLng),
			FOV:    20,
			Width:  float64(width),
			Height: float64(height),
		},
		RotateSpeed: 0.08,
		autoRotate:  true,
		interactive: true,
		grid:        gridLines(),
	}
}

func (s *Surface) CreateSphere(radius float64) {
	s.radius = radius
}

func (s *Surface) Radius() float64 { return s.radius }

func (s *Surface) AddMarker(kind globe.IconKind, pos globe.Vec3, scale, opacity float64) (globe.MarkerHandle, error) {
	if s.disposed {
		return nil, ErrSurfaceDisposed
	}
	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) {
		return nil, fmt.Errorf("marker position %+v is not a number", pos)
	}
	if scale <= 0 || opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("marker scale %v / opacity %v out of range", scale, opacity)
	}
	s.nextID++
	m := &Marker{id: s.nextID, kind: kind, pos: pos, scale: scale, opacity: opacity, grow: 1}
	m.screen = s.Camera.Project(pos)
	s.markers = append(s.markers, m)
	return m, nil
}

func (s *Surface) SetCameraDistance(d float64) { s.Camera.Distance = d }
func (s *Surface) SetAutoRotate(enabled bool)  { s.autoRotate = enabled }
func (s *Surface) SetInteractive(enabled bool) { s.interactive = enabled }

func (s *Surface) AutoRotating() bool { return s.autoRotate }
func (s *Surface) Interactive() bool  { return s.interactive }

func (s *Surface) TiltCamera(deltaDegrees float64) {
	s.Camera.Pitch = clamp(s.Camera.Pitch+deltaDegrees, minPitch, maxPitch)
}

// Render refreshes the cached screen positions used for hit testing. The
// frame itself is drawn by Draw on the next ebiten frame.
func (s *Surface) Render() {
	s.frames++
	s.markers = slices.DeleteFunc(s.markers, func(m *Marker) bool { return m.removed })
	for _, m := range s.markers {
		m.screen = s.Camera.Project(m.pos)
	}
}

func (s *Surface) Dispose() {
	s.disposed = true
	for _, m := range s.markers {
		m.removed = true
	}
	s.markers = nil
	for _, img := range s.sprites {
		img.Deallocate()
	}
	s.sprites = nil
}

func (s *Surface) SetBoundaries(lines []sources.Polyline) {
	s.boundaries = lines
}

func (s *Surface) Resize(width, height int) {
	s.Camera.Width, s.Camera.Height = float64(width), float64(height)
	s.Render()
}

// Drag rotates the globe by a pointer delta in pixels. It is ignored while
// interaction is frozen.
func (s *Surface) Drag(dx, dy float64) {
	if !s.interactive || s.disposed {
		return
	}
	s.Camera.Yaw += dx * 0.005
	s.Camera.Pitch = clamp(s.Camera.Pitch+dy*0.2, minPitch, maxPitch)
	s.Render()
}

// Step advances auto-rotation and hover feedback by dt.
func (s *Surface) Step(dt time.Duration, hovered *Marker, paused bool) {
	if s.disposed {
		return
	}
	if s.autoRotate && !paused {
		s.Camera.Yaw += s.RotateSpeed * dt.Seconds()
	}
	for _, m := range s.markers {
		target := 1.0
		if m == hovered {
			target = hoverScale
		}
		m.grow += (target - m.grow) * hoverLerp
	}
	s.Render()
}

// Markers returns the live markers in creation order.
func (s *Surface) Markers() []*Marker {
	return s.markers
}

func (s *Surface) markerRadius(m *Marker) float64 {
	return s.Camera.ScreenSize(markerWorldSize*m.scale*m.grow, m.screen.Depth)
}

// MarkerAt returns the nearest visible marker under the screen point.
func (s *Surface) MarkerAt(x, y float64) *Marker {
	var best *Marker
	for _, m := range s.markers {
		if m.removed || !m.screen.OK || !m.screen.Facing {
			continue
		}
		r := s.markerRadius(m)
		if math.Hypot(x-m.screen.X, y-m.screen.Y) > r {
			continue
		}
		if best == nil || m.screen.Depth < best.screen.Depth {
			best = m
		}
	}
	return best
}

// OnGlobe reports whether the screen point is over the sphere.
func (s *Surface) OnGlobe(x, y float64) bool {
	r := s.Camera.ApparentRadius(s.radius)
	return math.Hypot(x-s.Camera.Width/2, y-s.Camera.Height/2) <= r
}

func (s *Surface) Draw(screen *ebiten.Image) {
	screen.Fill(ColorSpace)
	if s.disposed || s.radius <= 0 {
		return
	}
	s.ensureSprites()

	cx, cy := float32(s.Camera.Width/2), float32(s.Camera.Height/2)
	r := float32(s.Camera.ApparentRadius(s.radius))
	vector.DrawFilledCircle(screen, cx, cy, r, ColorOcean, true)
	vector.StrokeCircle(screen, cx, cy, r, 1.5, ColorRim, true)

	for _, line := range s.grid {
		s.drawPolyline(screen, line, s.radius+gridLift, ColorGrid, 1)
	}
	for _, line := range s.boundaries {
		s.drawPolyline(screen, line, s.radius+boundaryLift, ColorBoundary, 1)
	}

	visible := make([]*Marker, 0, len(s.markers))
	for _, m := range s.markers {
		if !m.removed && m.screen.OK && m.screen.Facing {
			visible = append(visible, m)
		}
	}
	// back to front
	slices.SortFunc(visible, func(a, b *Marker) int {
		switch {
		case a.screen.Depth > b.screen.Depth:
			return -1
		case a.screen.Depth < b.screen.Depth:
			return 1
		}
		return 0
	})

	op := &ebiten.DrawImageOptions{}
	for _, m := range visible {
		img := s.sprites[m.kind]
		size := float64(img.Bounds().Dx())
		scale := 2 * s.markerRadius(m) / size
		op.GeoM.Reset()
		op.GeoM.Translate(-size/2, -size/2)
		op.GeoM.Scale(scale, scale)
		op.GeoM.Translate(m.screen.X, m.screen.Y)
		c := markerColor(m)
		a := float32(m.opacity)
		op.ColorScale.Reset()
		op.ColorScale.Scale(float32(c.R)/255*a, float32(c.G)/255*a, float32(c.B)/255*a, a)
		screen.DrawImage(img, op)
	}
}

func markerColor(m *Marker) color.RGBA {
	if m.grow > 1.05 {
		return ColorHovered
	}
	if m.kind == globe.IconMulti {
		return ColorMulti
	}
	return ColorSingle
}

func (s *Surface) drawPolyline(screen *ebiten.Image, line sources.Polyline, radius float64, c color.RGBA, width float32) {
	var prev Projected
	for i, pt := range line {
		p := s.Camera.Project(globe.Project(pt.Lat, pt.Lng, radius))
		if i > 0 && prev.Facing && p.Facing {
			vector.StrokeLine(screen, float32(prev.X), float32(prev.Y), float32(p.X), float32(p.Y), width, c, true)
		}
		prev = p
	}
}

func (s *Surface) ensureSprites() {
	if s.sprites != nil {
		return
	}
	s.sprites = map[globe.IconKind]*ebiten.Image{
		globe.IconSingle: newMarkerSprite(64, false),
		globe.IconMulti:  newMarkerSprite(64, true),
	}
}

// gridLines builds latitude rings every 20 degrees and meridians every 20
// degrees, sampled finely enough to look round.
func gridLines() []sources.Polyline {
	var lines []sources.Polyline
	for lat := -80.0; lat <= 80; lat += 20 {
		var l sources.Polyline
		for lng := -180.0; lng <= 180; lng += 3 {
			l = append(l, sources.LatLng{Lat: lat, Lng: lng})
		}
		lines = append(lines, l)
	}
	for lng := -180.0; lng < 180; lng += 20 {
		var l sources.Polyline
		for lat := -90.0; lat <= 90; lat += 3 {
			l = append(l, sources.LatLng{Lat: lat, Lng: lng})
		}
		lines = append(lines, l)
	}
	return lines
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
