// Package geom provides the 2D primitives used by the placement engine.
//
// All coordinates are float64 logical units. A Rect is axis-aligned and
// stored as min/max corners so that union and containment checks stay
// branch-free. The zero Rect is deliberately inside-out (see EmptyRect) so
// that unioning it with any finite rect yields that rect.
package geom

import "math"

// Point represents a 2D point or vector.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Div returns the point divided by a scalar.
func (p Point) Div(s float64) Point {
	return Point{X: p.X / s, Y: p.Y / s}
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Rect is an axis-aligned rectangle stored as min/max corners.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// R constructs a Rect from position and size.
func R(x, y, w, h float64) Rect {
	return Rect{MinX: x, MinY: y, MaxX: x + w, MaxY: y + h}
}

// EmptyRect returns the inside-out rect that acts as the identity for Union.
func EmptyRect() Rect {
	return Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// Width returns the horizontal extent. Negative for inside-out rects.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent. Negative for inside-out rects.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the centroid of the rect.
func (r Rect) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// Union returns the smallest rect containing both r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		MinX: math.Min(r.MinX, s.MinX),
		MinY: math.Min(r.MinY, s.MinY),
		MaxX: math.Max(r.MaxX, s.MaxX),
		MaxY: math.Max(r.MaxY, s.MaxY),
	}
}

// ExtendPoint grows the rect to include p.
func (r Rect) ExtendPoint(p Point) Rect {
	return Rect{
		MinX: math.Min(r.MinX, p.X),
		MinY: math.Min(r.MinY, p.Y),
		MaxX: math.Max(r.MaxX, p.X),
		MaxY: math.Max(r.MaxY, p.Y),
	}
}

// Translate returns the rect shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{
		MinX: r.MinX + dx, MinY: r.MinY + dy,
		MaxX: r.MaxX + dx, MaxY: r.MaxY + dy,
	}
}

// Scale returns the rect with both corners multiplied by s.
func (r Rect) Scale(s float64) Rect {
	return Rect{
		MinX: r.MinX * s, MinY: r.MinY * s,
		MaxX: r.MaxX * s, MaxY: r.MaxY * s,
	}
}

// IsFinite reports whether all four bounds are finite numbers.
func (r Rect) IsFinite() bool {
	return isFinite(r.MinX) && isFinite(r.MinY) && isFinite(r.MaxX) && isFinite(r.MaxY)
}

// IsDegenerate reports whether the rect must be excluded from bounds
// accumulation: non-finite, inside-out, or with a zero-area extent.
func (r Rect) IsDegenerate() bool {
	return !r.IsFinite() || r.Width() <= 0 || r.Height() <= 0
}

func isFinite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
