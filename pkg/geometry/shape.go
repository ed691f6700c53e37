package geometry

import (
	"math"
	"strings"
)

// ShapeKind selects the intersection algorithm used for a node shape.
type ShapeKind int

const (
	// ShapeEllipse covers circles, ellipses and polygons. It is also the
	// fallback for shapes of unknown kind.
	ShapeEllipse ShapeKind = iota
	// ShapeRect is a rectangle, optionally rotated about its center.
	ShapeRect
	// ShapePath is an outline given as simple path data.
	ShapePath
)

// String returns the canonical name of the kind.
func (k ShapeKind) String() string {
	switch k {
	case ShapeRect:
		return "rect"
	case ShapePath:
		return "path"
	default:
		return "ellipse"
	}
}

// ParseShapeKind parses a kind name. Accepted names are "rect", "rectangle",
// "path", "ellipse", "circle" and "polygon"; matching is case-insensitive.
func ParseShapeKind(s string) (ShapeKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rect", "rectangle":
		return ShapeRect, true
	case "path":
		return ShapePath, true
	case "ellipse", "circle", "polygon", "":
		return ShapeEllipse, true
	}
	return ShapeEllipse, false
}

// Size is a width/height pair.
type Size struct {
	Width  float64
	Height float64
}

// Shape describes how a node is drawn, in the node's local frame centered on
// the node position.
type Shape struct {
	Kind     ShapeKind
	Width    float64
	Height   float64
	Rotation float64 // degrees, clockwise in screen space; rectangles only
	Path     string  // path data for ShapePath
}

// Circle returns an ellipse shape with the given diameter.
func Circle(diameter float64) Shape {
	return Shape{Kind: ShapeEllipse, Width: diameter, Height: diameter}
}

// Bounds returns the axis-aligned bounding box of the shape placed at c.
// Rotated rectangles report the box of their rotated corners.
func (s Shape) Bounds(c Point) Rect {
	switch {
	case s.Kind == ShapeRect && s.Rotation != 0:
		return BoundsOf(s.corners(c)...)
	case s.Kind == ShapePath && (s.Width == 0 || s.Height == 0):
		if pts, _, err := ParsePath(s.Path); err == nil {
			b := BoundsOf(pts...)
			return RectAround(c, b.Width, b.Height)
		}
	}
	return RectAround(c, s.Width, s.Height)
}

// Contains reports whether p hits the shape placed at c.
// Paths are hit-tested against their bounding box.
func (s Shape) Contains(c Point, p Point) bool {
	switch s.Kind {
	case ShapeRect:
		q := p
		if s.Rotation != 0 {
			q = p.RotateAround(c, -Radians(s.Rotation))
		}
		return RectAround(c, s.Width, s.Height).Contains(q)
	case ShapePath:
		return s.Bounds(c).Contains(p)
	default:
		rx, ry := s.Width/2, s.Height/2
		if rx <= 0 || ry <= 0 {
			return false
		}
		dx, dy := (p.X-c.X)/rx, (p.Y-c.Y)/ry
		return dx*dx+dy*dy <= 1
	}
}

// corners returns the rectangle corners placed at c, rotated about c,
// in order top-left, top-right, bottom-right, bottom-left.
func (s Shape) corners(c Point) []Point {
	r := RectAround(c, s.Width, s.Height)
	pts := []Point{
		{r.X, r.Y},
		{r.X + r.Width, r.Y},
		{r.X + r.Width, r.Y + r.Height},
		{r.X, r.Y + r.Height},
	}
	if s.Rotation != 0 {
		angle := Radians(math.Mod(s.Rotation, 360))
		for i := range pts {
			pts[i] = pts[i].RotateAround(c, angle)
		}
	}
	return pts
}

// Registry resolves a type name to the shape used to draw it.
type Registry interface {
	Shape(typeName string) (Shape, bool)
}

// RegistryFunc adapts a function to [Registry].
type RegistryFunc func(typeName string) (Shape, bool)

// Shape implements Registry.
func (f RegistryFunc) Shape(typeName string) (Shape, bool) { return f(typeName) }

// Endpoint is one end of an edge: a center and, when the end is a resolved
// node, the shape drawn there. A nil Shape marks a bare point such as the
// pointer position of an edge being dragged.
type Endpoint struct {
	Center Point
	Shape  *Shape
}

// BarePoint returns an endpoint without a shape.
func BarePoint(p Point) Endpoint { return Endpoint{Center: p} }
