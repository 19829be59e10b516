package globe

import (
	"math"
	"testing"
)

func TestProjectDistance(t *testing.T) {
	for _, radius := range []float64{0.5, 1, 2.5, 2.7, 100} {
		for lat := -90.0; lat <= 90; lat += 15 {
			for lng := -180.0; lng <= 180; lng += 20 {
				got := Project(lat, lng, radius).Len()
				if math.Abs(got-radius) > 1e-9 {
					t.Fatalf("Project(%v, %v, %v) length = %v, want %v", lat, lng, radius, got, radius)
				}
			}
		}
	}
}

func TestProjectKnownPoints(t *testing.T) {
	const r = 2.5
	tests := []struct {
		name     string
		lat, lng float64
		want     Vec3
	}{
		{"north pole", 90, 0, Vec3{0, r, 0}},
		{"south pole", -90, 0, Vec3{0, -r, 0}},
		{"null island", 0, 0, Vec3{r, 0, 0}},
		{"antimeridian", 0, 180, Vec3{-r, 0, 0}},
		{"90 east", 0, 90, Vec3{0, 0, -r}},
		{"90 west", 0, -90, Vec3{0, 0, r}},
	}
	for _, tt := range tests {
		got := Project(tt.lat, tt.lng, r)
		if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 || math.Abs(got.Z-tt.want.Z) > 1e-9 {
			t.Errorf("%s: Project(%v, %v) = %+v, want %+v", tt.name, tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestProjectOutOfRangeNotClamped(t *testing.T) {
	a := Project(100, 0, 1)
	b := Project(90, 0, 1)
	if a == b {
		t.Fatal("out-of-range latitude was clamped")
	}
	if math.Abs(a.Len()-1) > 1e-9 {
		t.Errorf("out-of-range point left the sphere: %v", a.Len())
	}
}
