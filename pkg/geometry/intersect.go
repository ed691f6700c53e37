package geometry

import "math"

// segmentIntersection returns the intersection of segments a1-a2 and b1-b2.
// Parallel and coincident segments report no intersection.
func segmentIntersection(a1, a2, b1, b2 Point) (Point, bool) {
	d := (b2.Y-b1.Y)*(a2.X-a1.X) - (b2.X-b1.X)*(a2.Y-a1.Y)
	if d == 0 {
		return Point{}, false
	}
	ua := ((b2.X-b1.X)*(a1.Y-b1.Y) - (b2.Y-b1.Y)*(a1.X-b1.X)) / d
	ub := ((a2.X-a1.X)*(a1.Y-b1.Y) - (a2.Y-a1.Y)*(a1.X-b1.X)) / d
	if ua < 0 || ua > 1 || ub < 0 || ub > 1 {
		return Point{}, false
	}
	return a1.Lerp(a2, ua), true
}

// polylineIntersections returns every intersection of segment a1-a2 with the
// polyline pts, including the closing segment when closed is set.
func polylineIntersections(a1, a2 Point, pts []Point, closed bool) []Point {
	var out []Point
	n := len(pts)
	last := n - 1
	if closed {
		last = n
	}
	for i := 0; i < last; i++ {
		if p, ok := segmentIntersection(a1, a2, pts[i], pts[(i+1)%n]); ok {
			out = append(out, p)
		}
	}
	return out
}

// nearestIntersection returns the intersection of a1-a2 with the polyline
// that lies closest to a1, the point where a line leaving a1 first meets
// the outline.
func nearestIntersection(a1, a2 Point, pts []Point, closed bool) (Point, bool) {
	hits := polylineIntersections(a1, a2, pts, closed)
	if len(hits) == 0 {
		return Point{}, false
	}
	best := hits[0]
	bestDist := Distance(a1, best)
	for _, p := range hits[1:] {
		if d := Distance(a1, p); d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, true
}

// ellipseIntersection intersects the segment from src to the ellipse center c
// with the ellipse boundary. There is no intersection when src lies strictly
// inside the ellipse or coincides with c.
func ellipseIntersection(src, c Point, rx, ry float64) (Point, bool) {
	if rx <= 0 || ry <= 0 {
		return Point{}, false
	}
	dx, dy := src.X-c.X, src.Y-c.Y
	q := dx*dx/(rx*rx) + dy*dy/(ry*ry)
	if q == 0 || q < 1 || math.IsInf(q, 0) || math.IsNaN(q) {
		return Point{}, false
	}
	t := 1 / math.Sqrt(q)
	return Point{c.X + dx*t, c.Y + dy*t}, true
}
