package globe

import "math"

type Point struct {
	X, Y float64
}

type Size struct {
	W, H float64
}

type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// Place positions a panel of the given size near the pointer so that it lies
// inside anchor shrunk by margin on every side.
//
// Horizontally it prefers the right of the pointer, then the left, then a
// position centred on the pointer. Vertically it prefers below, then above,
// then whichever side has more room. The final clamp makes the containment a
// guarantee; a panel too large for the shrunk anchor is pinned to its
// top-left corner.
func Place(pointer Point, anchor Rect, panel Size, margin float64) Point {
	spaceRight := anchor.Right() - pointer.X
	spaceLeft := pointer.X - anchor.X
	spaceBelow := anchor.Bottom() - pointer.Y
	spaceAbove := pointer.Y - anchor.Y

	var left, top float64

	switch {
	case spaceRight >= panel.W+margin:
		left = pointer.X + margin
	case spaceLeft >= panel.W+margin:
		left = pointer.X - panel.W - margin
	default:
		left = pointer.X - panel.W/2
	}

	switch {
	case spaceBelow >= panel.H+margin:
		top = pointer.Y + margin
	case spaceAbove >= panel.H+margin:
		top = pointer.Y - panel.H - margin
	case spaceBelow > spaceAbove:
		top = pointer.Y - panel.H + spaceBelow - margin
	default:
		top = pointer.Y - margin
	}

	return Point{
		X: clampSpan(left, anchor.X+margin, anchor.Right()-panel.W-margin),
		Y: clampSpan(top, anchor.Y+margin, anchor.Bottom()-panel.H-margin),
	}
}

// clampSpan clamps v into [lo, hi]; when the span is empty lo wins.
func clampSpan(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
