package geometry

import "math"

// DefaultArrowShrink divides the arrowhead dimensions before they are
// subtracted from a rectangle or path offset.
const DefaultArrowShrink = 1.25

// IntersectionKind reports which algorithm produced an [Offset].
type IntersectionKind string

const (
	IntersectNone    IntersectionKind = "none"
	IntersectRect    IntersectionKind = "rect"
	IntersectPath    IntersectionKind = "path"
	IntersectEllipse IntersectionKind = "ellipse"
)

// Offset is the distance from a target center back to where an edge stops.
// The stop point is (center.X - X, center.Y - Y).
type Offset struct {
	X     float64
	Y     float64
	Point Point // boundary intersection, before any arrow adjustment
	Kind  IntersectionKind
}

// Found reports whether a boundary intersection exists.
func (o Offset) Found() bool { return o.Kind != IntersectNone }

func noIntersection() Offset { return Offset{Kind: IntersectNone} }

// Side is the side of a rectangle an edge arrives at.
type Side int

const (
	SideRight Side = iota
	SideLeft
	SideTop
	SideBottom
)

// Engine computes edge geometry for shapes resolved through a [Registry].
// The zero value is not usable; create one with [NewEngine].
type Engine struct {
	shapes   Registry
	arrow    Size
	shrink   float64
	nodeSize float64
}

// EngineOption configures an [Engine].
type EngineOption func(*Engine)

// WithArrow sets the arrowhead size subtracted at target ends.
func WithArrow(s Size) EngineOption { return func(e *Engine) { e.arrow = s } }

// WithArrowShrink sets the divisor applied to arrowhead dimensions.
func WithArrowShrink(f float64) EngineOption {
	return func(e *Engine) {
		if f > 0 {
			e.shrink = f
		}
	}
}

// WithNodeSize sets the diameter of the circle assumed for nodes whose type
// the registry cannot resolve. Zero disables the fallback, and such nodes
// are treated as bare points.
func WithNodeSize(d float64) EngineOption { return func(e *Engine) { e.nodeSize = d } }

// NewEngine creates an engine. A nil registry resolves nothing.
func NewEngine(shapes Registry, opts ...EngineOption) *Engine {
	e := &Engine{shapes: shapes, shrink: DefaultArrowShrink}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Arrow returns the configured arrowhead size.
func (e *Engine) Arrow() Size { return e.arrow }

// ShapeOf resolves the shape for a type name, falling back to a circle of
// the configured node size.
func (e *Engine) ShapeOf(typeName string) (Shape, bool) {
	if e.shapes != nil {
		if s, ok := e.shapes.Shape(typeName); ok {
			return s, true
		}
	}
	if e.nodeSize > 0 {
		return Circle(e.nodeSize), true
	}
	return Shape{}, false
}

// Resolve returns the endpoint for a node of the given type centered at c.
func (e *Engine) Resolve(c Point, typeName string) Endpoint {
	s, ok := e.ShapeOf(typeName)
	if !ok {
		return BarePoint(c)
	}
	return Endpoint{Center: c, Shape: &s}
}

// CalculateOffset returns how far back from trg the edge src→trg must stop to
// touch the boundary of shape drawn at trg. With includesArrow the offset
// also leaves room for the arrowhead.
func (e *Engine) CalculateOffset(src, trg Point, shape Shape, includesArrow bool) Offset {
	if src == trg {
		return noIntersection()
	}
	switch shape.Kind {
	case ShapeRect:
		return e.rectOffset(src, trg, shape, includesArrow)
	case ShapePath:
		return e.pathOffset(src, trg, shape, includesArrow)
	default:
		return e.ellipseOffset(src, trg, shape, includesArrow)
	}
}

func (e *Engine) rectOffset(src, trg Point, s Shape, includesArrow bool) Offset {
	if s.Width <= 0 || s.Height <= 0 {
		return noIntersection()
	}
	p, ok := nearestIntersection(src, trg, s.corners(trg), true)
	if !ok {
		return noIntersection()
	}

	var aw, ah float64
	switch ClassifySide(p, RectAround(trg, s.Width, s.Height)) {
	case SideBottom:
		ah = e.arrow.Height
	case SideTop:
		ah = -e.arrow.Height
	case SideLeft:
		aw = -e.arrow.Width
	default:
		aw = e.arrow.Width
	}
	return e.offsetTo(trg, p, aw, ah, includesArrow, IntersectRect)
}

// ClassifySide reports which side of the unrotated box r the point p was hit
// on. Points strictly between the left and right edges resolve to the top or
// bottom side, and points strictly between the top and bottom edges resolve to
// the left or right side. A point on a corner, or outside both spans, resolves
// to the top or bottom side by the sign of its offset from the center, and only
// falls back to left or right when it sits at the vertical center.
func ClassifySide(p Point, r Rect) Side {
	c := r.Center()
	eps := 1e-9 * math.Max(1, math.Max(r.Width, r.Height))
	insideX := p.X > r.X+eps && p.X < r.X+r.Width-eps
	insideY := p.Y > r.Y+eps && p.Y < r.Y+r.Height-eps

	vertical := insideX || !insideY
	if vertical && p.Y > c.Y {
		return SideBottom
	}
	if vertical && p.Y < c.Y {
		return SideTop
	}
	if p.X < c.X {
		return SideLeft
	}
	return SideRight
}

func (e *Engine) pathOffset(src, trg Point, s Shape, includesArrow bool) Offset {
	pts, closed, err := ParsePath(s.Path)
	if err != nil {
		return noIntersection()
	}
	w, h := s.Width, s.Height
	if w == 0 || h == 0 {
		b := BoundsOf(pts...)
		w, h = b.Width, b.Height
	}
	origin := Point{trg.X - w/2, trg.Y - h/2}
	for i := range pts {
		pts[i] = pts[i].Add(origin)
	}

	p, ok := nearestIntersection(src, trg, pts, closed)
	if !ok {
		return noIntersection()
	}
	aw, ah := e.arrow.Width, e.arrow.Height
	if p.X < trg.X {
		aw = -aw
	}
	if p.Y < trg.Y {
		ah = -ah
	}
	return e.offsetTo(trg, p, aw, ah, includesArrow, IntersectPath)
}

func (e *Engine) ellipseOffset(src, trg Point, s Shape, includesArrow bool) Offset {
	if s.Width <= 0 || s.Height <= 0 {
		return noIntersection()
	}
	rx, ry := s.Width/2, s.Height/2
	if includesArrow {
		rx += e.arrow.Height
		ry += e.arrow.Height
	}
	p, ok := ellipseIntersection(src, trg, rx, ry)
	if !ok {
		return noIntersection()
	}
	return Offset{X: trg.X - p.X, Y: trg.Y - p.Y, Point: p, Kind: IntersectEllipse}
}

func (e *Engine) offsetTo(trg, p Point, aw, ah float64, includesArrow bool, kind IntersectionKind) Offset {
	off := Offset{X: trg.X - p.X, Y: trg.Y - p.Y, Point: p, Kind: kind}
	if includesArrow {
		off.X -= aw / e.shrink
		off.Y -= ah / e.shrink
	}
	return off
}
