package render

import (
	"math"
	"testing"
	"time"

	"github.com/sudorandom/dc-globe/pkg/globe"
)

func newTestSurface() *Surface {
	s := NewSurface(1280, 720, 0)
	s.CreateSphere(2.5)
	s.SetCameraDistance(24 / 1.4)
	return s
}

func TestSurfaceAddMarker(t *testing.T) {
	s := newTestSurface()
	tests := []struct {
		name    string
		pos     globe.Vec3
		scale   float64
		opacity float64
		ok      bool
	}{
		{"valid", globe.Project(0, 0, 2.52), 0.6, 1, true},
		{"nan", globe.Vec3{X: math.NaN()}, 0.6, 1, false},
		{"zero scale", globe.Vec3{}, 0, 1, false},
		{"opacity over one", globe.Vec3{}, 0.6, 1.5, false},
	}
	for _, tt := range tests {
		h, err := s.AddMarker(globe.IconSingle, tt.pos, tt.scale, tt.opacity)
		if (err == nil) != tt.ok {
			t.Errorf("%s: err = %v, want ok=%v", tt.name, err, tt.ok)
		}
		if tt.ok && h == nil {
			t.Errorf("%s: nil handle", tt.name)
		}
	}
	if len(s.Markers()) != 1 {
		t.Errorf("markers = %d, want 1", len(s.Markers()))
	}

	s.Dispose()
	if _, err := s.AddMarker(globe.IconSingle, globe.Vec3{}, 1, 1); err != ErrSurfaceDisposed {
		t.Errorf("AddMarker after dispose: err = %v", err)
	}
}

func TestSurfaceMarkerAt(t *testing.T) {
	s := newTestSurface()
	front, _ := s.AddMarker(globe.IconSingle, globe.Project(0, 0, 2.52), 0.6, 1)
	_, _ = s.AddMarker(globe.IconMulti, globe.Project(0, 180, 2.52), 0.6, 1)
	s.Render()

	if m := s.MarkerAt(640, 360); m == nil || m.ID() != front.ID() {
		t.Fatalf("MarkerAt(centre) = %v, want front marker", m)
	}
	if m := s.MarkerAt(10, 10); m != nil {
		t.Errorf("MarkerAt(corner) = %d, want none", m.ID())
	}

	// rotate the far marker into view
	s.Camera.Yaw = YawFacing(180)
	s.Render()
	if m := s.MarkerAt(640, 360); m == nil || m.Kind() != globe.IconMulti {
		t.Errorf("after rotation MarkerAt(centre) = %v, want far marker", m)
	}

	front.Remove()
	s.Camera.Yaw = YawFacing(0)
	s.Render()
	if m := s.MarkerAt(640, 360); m != nil {
		t.Error("removed marker still hit")
	}
	if len(s.Markers()) != 1 {
		t.Errorf("removed marker not pruned: %d markers", len(s.Markers()))
	}
}

func TestSurfaceCallbacks(t *testing.T) {
	s := newTestSurface()
	h, _ := s.AddMarker(globe.IconSingle, globe.Vec3{Z: 2.52}, 0.6, 1)
	calls := 0
	h.OnPointerEnter(func() { calls++ })
	h.OnTap(func() { calls += 10 })

	m := h.(*Marker)
	m.enter()
	m.leave()
	m.tap()
	if calls != 11 {
		t.Errorf("calls = %d, want 11", calls)
	}
	h.Remove()
	m.enter()
	if calls != 11 {
		t.Error("removed marker fired callback")
	}
}

func TestSurfaceStep(t *testing.T) {
	s := newTestSurface()
	h, _ := s.AddMarker(globe.IconSingle, globe.Vec3{Z: 2.52}, 0.6, 1)
	m := h.(*Marker)
	yaw := s.Camera.Yaw

	s.Step(time.Second, m, false)
	if math.Abs(s.Camera.Yaw-yaw-0.08) > 1e-9 {
		t.Errorf("yaw advanced by %v, want 0.08", s.Camera.Yaw-yaw)
	}
	for i := 0; i < 200; i++ {
		s.Step(0, m, false)
	}
	if math.Abs(m.grow-hoverScale) > 1e-3 {
		t.Errorf("hovered marker grow = %v, want %v", m.grow, hoverScale)
	}

	yaw = s.Camera.Yaw
	s.Step(time.Second, m, true)
	s.SetAutoRotate(false)
	s.Step(time.Second, nil, false)
	if s.Camera.Yaw != yaw {
		t.Error("globe rotated while paused or auto-rotate off")
	}
	if m.grow >= hoverScale {
		t.Error("marker did not shrink after hover ended")
	}
}

func TestSurfaceInteraction(t *testing.T) {
	s := newTestSurface()
	s.Drag(100, 0)
	if math.Abs(s.Camera.Yaw-YawFacing(0)-0.5) > 1e-9 {
		t.Errorf("drag yaw = %v", s.Camera.Yaw)
	}

	s.SetInteractive(false)
	yaw := s.Camera.Yaw
	s.Drag(100, 100)
	if s.Camera.Yaw != yaw || s.Camera.Pitch != 0 {
		t.Error("drag applied while interaction frozen")
	}

	s.TiltCamera(200)
	if s.Camera.Pitch != maxPitch {
		t.Errorf("pitch = %v, want clamp at %v", s.Camera.Pitch, maxPitch)
	}
}

func TestSurfaceOnGlobe(t *testing.T) {
	s := newTestSurface()
	if !s.OnGlobe(640, 360) || s.OnGlobe(0, 0) {
		t.Error("OnGlobe misclassified centre or corner")
	}
}

func TestMarkerPixels(t *testing.T) {
	const size = 32
	single := markerPixels(size, false)
	multi := markerPixels(size, true)

	centre := (size/2*size + size/2) * 4
	if single[centre+3] != 255 {
		t.Errorf("centre alpha = %d, want opaque", single[centre+3])
	}
	if single[3] != 0 {
		t.Error("corner pixel not transparent")
	}

	// near the outer edge only multi markers have a ring
	edge := (size/2*size + size - 2) * 4
	if single[edge+3] != 0 || multi[edge+3] == 0 {
		t.Errorf("outer ring alpha single=%d multi=%d", single[edge+3], multi[edge+3])
	}
}

func TestGridLines(t *testing.T) {
	lines := gridLines()
	if len(lines) != 9+18 {
		t.Errorf("grid lines = %d, want 27", len(lines))
	}
}
