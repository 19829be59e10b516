// Package render draws the data center globe with ebiten and implements the
// surface and popup view the overlay drives.
package render

import (
	"math"

	"github.com/sudorandom/dc-globe/pkg/globe"
)

// Camera looks at the origin from +Z. The world is spun by Yaw around the
// vertical axis and then pitched by Pitch degrees before projection.
type Camera struct {
	Distance float64
	Yaw      float64 // radians
	Pitch    float64 // degrees
	FOV      float64 // vertical, degrees
	Width    float64
	Height   float64
}

// YawFacing returns the yaw that puts the given longitude at the centre of
// the view.
func YawFacing(lng float64) float64 {
	return -(math.Pi/2 + lng*math.Pi/180)
}

func (c Camera) focal() float64 {
	return (c.Height / 2) / math.Tan(c.FOV*math.Pi/360)
}

// view rotates a world point into camera space.
func (c Camera) view(v globe.Vec3) globe.Vec3 {
	sy, cy := math.Sincos(c.Yaw)
	x := v.X*cy + v.Z*sy
	z := -v.X*sy + v.Z*cy

	sp, cp := math.Sincos(c.Pitch * math.Pi / 180)
	y := v.Y*cp - z*sp
	z = v.Y*sp + z*cp
	return globe.Vec3{X: x, Y: y, Z: z}
}

// Projected is a world point on screen.
type Projected struct {
	X, Y   float64
	Depth  float64 // distance along the view axis, larger is farther
	Facing bool    // on the camera side of the sphere the point lies on
	OK     bool    // in front of the camera
}

// Project maps a world point to screen coordinates.
func (c Camera) Project(v globe.Vec3) Projected {
	p := c.view(v)
	depth := c.Distance - p.Z
	if depth <= 1e-6 {
		return Projected{}
	}
	f := c.focal()
	r2 := v.X*v.X + v.Y*v.Y + v.Z*v.Z
	return Projected{
		X:      c.Width/2 + f*p.X/depth,
		Y:      c.Height/2 - f*p.Y/depth,
		Depth:  depth,
		Facing: p.Z*c.Distance > r2,
		OK:     true,
	}
}

// ApparentRadius is the on-screen radius of a sphere of the given radius
// centred on the origin.
func (c Camera) ApparentRadius(r float64) float64 {
	if c.Distance <= r {
		return math.Max(c.Width, c.Height)
	}
	return c.focal() * r / math.Sqrt(c.Distance*c.Distance-r*r)
}

// ScreenSize converts a world length at the given depth to pixels.
func (c Camera) ScreenSize(worldSize, depth float64) float64 {
	if depth <= 0 {
		return 0
	}
	return c.focal() * worldSize / depth
}
