package globe

import "math"

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Project converts geographic coordinates to a point on a sphere of the given
// radius centred at the origin, Y up. Longitude is offset by 180° so the
// prime meridian lines up with the equirectangular texture seam.
//
// Inputs are not clamped; out-of-range values still yield a point on the
// sphere, just not a meaningful one.
func Project(lat, lng, radius float64) Vec3 {
	phi := (90 - lat) * math.Pi / 180
	theta := (lng + 180) * math.Pi / 180

	sinPhi := math.Sin(phi)
	return Vec3{
		X: -(radius * sinPhi * math.Cos(theta)),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Sin(theta),
	}
}
