package geometry

import (
	"fmt"
	"strings"
)

// Segment is the visible part of an edge after both ends have been pulled
// back to their node boundaries.
type Segment struct {
	From Point
	To   Point
}

// Midpoint returns the point halfway along the segment.
func (s Segment) Midpoint() Point { return s.From.Lerp(s.To, 0.5) }

// DistanceTo returns the distance from p to the closest point of the segment.
func (s Segment) DistanceTo(p Point) float64 {
	d := s.To.Sub(s.From)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return Distance(p, s.From)
	}
	t := ((p.X-s.From.X)*d.X + (p.Y-s.From.Y)*d.Y) / l2
	t = max(0, min(1, t))
	return Distance(p, s.From.Lerp(s.To, t))
}

// Segment computes the stop points of an edge from src to trg.
//
// Each end is offset as seen by the node being approached: the source end
// swaps roles and never leaves room for an arrowhead, the target end does.
// Bare-point ends are not offset, and ends whose shape yields no intersection
// stay at the node center.
func (e *Engine) Segment(src, trg Endpoint) Segment {
	seg := Segment{From: src.Center, To: trg.Center}
	if src.Shape != nil {
		if off := e.CalculateOffset(trg.Center, src.Center, *src.Shape, false); off.Found() {
			seg.From = Point{src.Center.X - off.X, src.Center.Y - off.Y}
		}
	}
	if trg.Shape != nil {
		if off := e.CalculateOffset(src.Center, trg.Center, *trg.Shape, true); off.Found() {
			seg.To = Point{trg.Center.X - off.X, trg.Center.Y - off.Y}
		}
	}
	return seg
}

// PathDescription returns the path data for the edge from src to trg,
// formatted as "M<x>,<y>L<x>,<y>".
func (e *Engine) PathDescription(src, trg Endpoint) string {
	return LinePath(e.Segment(src, trg))
}

// LinePath formats a segment as straight-line path data.
func LinePath(s Segment) string {
	var b strings.Builder
	b.WriteByte('M')
	b.WriteString(FormatNumber(s.From.X))
	b.WriteByte(',')
	b.WriteString(FormatNumber(s.From.Y))
	b.WriteByte('L')
	b.WriteString(FormatNumber(s.To.X))
	b.WriteByte(',')
	b.WriteString(FormatNumber(s.To.Y))
	return b.String()
}

// RotationTransform returns the rotation aligning a glyph with the direction
// from src to trg. With negate the angle is mirrored, which counter-rotates
// content that must stay upright.
func RotationTransform(src, trg Point, negate bool) string {
	deg := Degrees(Theta(src, trg))
	if negate {
		deg = -deg
	}
	return "rotate(" + FormatNumber(deg) + ")"
}

// MidpointTransform returns the translation to the midpoint of the visible
// edge segment, where labels and handles are anchored.
func (e *Engine) MidpointTransform(src, trg Endpoint) string {
	return e.Segment(src, trg).MidpointTransform()
}

// MidpointTransform returns the translation to the midpoint of s.
func (s Segment) MidpointTransform() string {
	m := s.Midpoint()
	return fmt.Sprintf("translate(%s, %s)", FormatNumber(m.X), FormatNumber(m.Y))
}

// HandleTransform places an edge handle glyph of the given size: translated
// to the segment midpoint, rotated along the edge, then shifted by half its
// size so it is centered.
func (e *Engine) HandleTransform(src, trg Endpoint, handleSize float64) string {
	return e.Segment(src, trg).HandleTransform(src.Center, trg.Center, handleSize)
}

// HandleTransform is [Engine.HandleTransform] for an already computed
// segment of the edge between the centers src and trg.
func (s Segment) HandleTransform(src, trg Point, handleSize float64) string {
	off := FormatNumber(-handleSize / 2)
	return fmt.Sprintf("%s %s translate(%s, %s)",
		s.MidpointTransform(),
		RotationTransform(src, trg, false),
		off, off)
}
