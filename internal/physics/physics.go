// Package physics provides rectangle geometry and broad-phase lookup.
package physics

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 {
	return r.X + r.Width
}

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 {
	return r.Y + r.Height
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Overlaps reports whether a and b share a positive-area region.
// Rectangles that only touch along an edge do not overlap.
func Overlaps(a, b Rect) bool {
	return a.X < b.X+b.Width &&
		a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height &&
		a.Y+a.Height > b.Y
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
