package bulb

import "math"

// Vec2 is a 2D vector in surface-normalized units. It carries pointer
// deltas, the rotation target and the smoothed rotation.
type Vec2 struct {
	X, Y float64
}

// V2 returns Vec2{x, y}.
func V2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns v - w.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Mul returns v scaled by s on both axes.
func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Scale divides each axis by the matching extent. A zero extent leaves
// that axis at zero.
func (v Vec2) Scale(w, h float64) Vec2 {
	var out Vec2
	if w != 0 {
		out.X = v.X / w
	}
	if h != 0 {
		out.Y = v.Y / h
	}
	return out
}

// IsZero reports whether both components are exactly zero.
func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Approx reports whether each component of v is within epsilon of w.
func (v Vec2) Approx(w Vec2, epsilon float64) bool {
	return math.Abs(v.X-w.X) < epsilon && math.Abs(v.Y-w.Y) < epsilon
}
