// Package geometry computes where edges meet node boundaries.
//
// Everything here is pure math on float64 coordinates in model space: no
// rendering backend is consulted. Node shapes are described explicitly by
// [Shape] values, resolved by name through a [Registry], so the same code path
// serves the SVG scene, the terminal editor and tests.
//
// # Edge Termination
//
// An edge is drawn as a straight segment between two node centers. To stop
// the segment at the visible boundary of the node it approaches,
// [Engine.CalculateOffset] intersects the center-to-center line with the
// target shape:
//
//   - [ShapeRect]: a rectangle, optionally rotated about its center
//   - [ShapePath]: a simple "M x y L x y ... Z" outline
//   - [ShapeEllipse]: circles, ellipses and any polygon approximated by one
//
// The returned [Offset] is how far back from the center the segment must end.
// When the end carries an arrowhead the offset also accounts for the arrow,
// so the arrow tip rather than the line touches the boundary.
//
// No intersection is not an error. Coincident points, a source inside the
// shape or unsupported path data all yield an [Offset] of kind
// [IntersectNone] and zero length, which draws the edge to the center.
//
// # Usage
//
//	eng := geometry.NewEngine(registry, geometry.WithArrow(geometry.Size{Width: 8, Height: 8}))
//	d := eng.PathDescription(
//	    eng.Resolve(geometry.Point{X: 0, Y: 0}, "empty"),
//	    eng.Resolve(geometry.Point{X: 100, Y: 0}, "empty"),
//	)
//	// d == "M...,...L...,..."
package geometry
