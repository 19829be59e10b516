package globe

import (
	"errors"
	"time"
)

type fakeHandle struct {
	id      int
	kind    IconKind
	pos     Vec3
	enter   func()
	leave   func()
	tap     func()
	removed bool
}

func (h *fakeHandle) ID() int                  { return h.id }
func (h *fakeHandle) OnPointerEnter(fn func()) { h.enter = fn }
func (h *fakeHandle) OnPointerLeave(fn func()) { h.leave = fn }
func (h *fakeHandle) OnTap(fn func())          { h.tap = fn }
func (h *fakeHandle) Remove()                  { h.removed = true }

type fakeSurface struct {
	sphereRadius float64
	distance     float64
	autoRotate   bool
	interactive  bool
	tilt         float64
	renders      int
	disposed     bool
	handles      []*fakeHandle
	failOn       map[int]bool // AddMarker call index -> fail
	calls        int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{autoRotate: true, interactive: true}
}

func (s *fakeSurface) CreateSphere(radius float64) { s.sphereRadius = radius }

func (s *fakeSurface) AddMarker(kind IconKind, pos Vec3, scale, opacity float64) (MarkerHandle, error) {
	call := s.calls
	s.calls++
	if s.failOn[call] {
		return nil, errors.New("texture upload failed")
	}
	h := &fakeHandle{id: len(s.handles) + 1, kind: kind, pos: pos}
	s.handles = append(s.handles, h)
	return h, nil
}

func (s *fakeSurface) SetCameraDistance(d float64)     { s.distance = d }
func (s *fakeSurface) SetAutoRotate(enabled bool)      { s.autoRotate = enabled }
func (s *fakeSurface) SetInteractive(enabled bool)     { s.interactive = enabled }
func (s *fakeSurface) TiltCamera(deltaDegrees float64) { s.tilt += deltaDegrees }
func (s *fakeSurface) Render()                         { s.renders++ }
func (s *fakeSurface) Dispose()                        { s.disposed = true }

// plainSurface lacks the optional capabilities.
type plainSurface struct {
	distance   float64
	autoRotate bool
}

func (s *plainSurface) CreateSphere(float64) {}
func (s *plainSurface) AddMarker(IconKind, Vec3, float64, float64) (MarkerHandle, error) {
	return &fakeHandle{}, nil
}
func (s *plainSurface) SetCameraDistance(d float64) { s.distance = d }
func (s *plainSurface) SetAutoRotate(b bool)        { s.autoRotate = b }
func (s *plainSurface) Render()                     {}
func (s *plainSurface) Dispose()                    {}

type fakeView struct {
	renders   []PopupContent
	placed    []Point
	phases    []Phase
	clears    int
	failNext  bool
	panicNext bool
}

func (v *fakeView) RenderPopup(c PopupContent) error {
	if v.failNext {
		v.failNext = false
		return errors.New("layout failed")
	}
	v.renders = append(v.renders, c)
	return nil
}

func (v *fakeView) PlacePopup(at Point)   { v.placed = append(v.placed, at) }
func (v *fakeView) SetPopupPhase(p Phase) { v.phases = append(v.phases, p) }

func (v *fakeView) ClearPopup() {
	v.clears++
	if v.panicNext {
		v.panicNext = false
		panic("view gone")
	}
}

func (v *fakeView) sawPhase(p Phase) bool {
	for _, got := range v.phases {
		if got == p {
			return true
		}
	}
	return false
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.t = c.t.Add(d)
	return c.t
}

func facility(id, region string, nodes int) Facility {
	return Facility{ID: id, Name: "DC " + id, OwnerName: "Owner " + id, Region: region, TotalNodes: nodes}
}
