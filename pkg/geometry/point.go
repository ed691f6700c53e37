package geometry

import (
	"fmt"
	"math"
	"strconv"
)

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x" yaml:"x" bson:"x"`
	Y float64 `json:"y" yaml:"y" bson:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Lerp interpolates between p and q; f=0 yields p, f=1 yields q.
func (p Point) Lerp(q Point, f float64) Point {
	return Point{p.X + (q.X-p.X)*f, p.Y + (q.Y-p.Y)*f}
}

// RotateAround rotates p by radians about c.
func (p Point) RotateAround(c Point, radians float64) Point {
	sin, cos := math.Sincos(radians)
	dx, dy := p.X-c.X, p.Y-c.Y
	return Point{
		X: c.X + dx*cos - dy*sin,
		Y: c.Y + dx*sin + dy*cos,
	}
}

// Theta returns the angle in radians of the vector from p1 to p2.
func Theta(p1, p2 Point) float64 {
	return math.Atan2(p2.Y-p1.Y, p2.X-p1.X)
}

// Distance returns the Euclidean distance between p1 and p2.
func Distance(p1, p2 Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// Degrees converts radians to degrees.
func Degrees(radians float64) float64 { return radians * 180 / math.Pi }

// Radians converts degrees to radians.
func Radians(degrees float64) float64 { return degrees / 180 * math.Pi }

// =============================================================================
// Rect
// =============================================================================

// Rect is an axis-aligned bounding box.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// RectAround returns the rect of size w×h centered on c.
func RectAround(c Point, w, h float64) Rect {
	return Rect{X: c.X - w/2, Y: c.Y - h/2, Width: w, Height: h}
}

// BoundsOf returns the smallest rect containing all points.
func BoundsOf(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// IsEmpty reports whether r has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// IsZero reports whether r is the zero rect.
func (r Rect) IsZero() bool { return r == Rect{} }

// Union returns the smallest rect containing both rects. Zero rects are
// ignored so that a union can be folded from an empty accumulator; degenerate
// rects with a position (a horizontal segment, a point) still count.
func (r Rect) Union(other Rect) Rect {
	if r.IsZero() {
		return other
	}
	if other.IsZero() {
		return r
	}
	minX := math.Min(r.X, other.X)
	minY := math.Min(r.Y, other.Y)
	maxX := math.Max(r.X+r.Width, other.X+other.Width)
	maxY := math.Max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Center returns the center point of r.
func (r Rect) Center() Point {
	return Point{r.X + r.Width/2, r.Y + r.Height/2}
}

// =============================================================================
// Transform
// =============================================================================

// Transform maps model coordinates to screen coordinates: screen = model*K + (X, Y).
type Transform struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Identity is the transform that leaves points unchanged.
var Identity = Transform{K: 1}

// Apply maps a model point to screen coordinates.
func (t Transform) Apply(p Point) Point {
	return Point{p.X*t.K + t.X, p.Y*t.K + t.Y}
}

// Invert maps a screen point to model coordinates. A zero scale is treated
// as identity scale so the result is always finite.
func (t Transform) Invert(p Point) Point {
	k := t.K
	if k == 0 {
		k = 1
	}
	return Point{(p.X - t.X) / k, (p.Y - t.Y) / k}
}

// Lerp interpolates each component between t and to.
func (t Transform) Lerp(to Transform, f float64) Transform {
	return Transform{
		K: t.K + (to.K-t.K)*f,
		X: t.X + (to.X-t.X)*f,
		Y: t.Y + (to.Y-t.Y)*f,
	}
}

// String formats t as an SVG transform attribute.
func (t Transform) String() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", FormatNumber(t.X), FormatNumber(t.Y), FormatNumber(t.K))
}

// FormatNumber renders v with at most three decimals and no trailing zeros.
func FormatNumber(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // normalize -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
