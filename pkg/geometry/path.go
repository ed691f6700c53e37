package geometry

import (
	"errors"

	pstrconv "github.com/tdewolff/parse/v2/strconv"
)

// ErrUnsupportedPath is returned by [ParsePath] for path data outside the
// supported grammar.
var ErrUnsupportedPath = errors.New("unsupported path data")

// ParsePath parses path data of the form "M x y (L? x y)* Z?".
//
// Only absolute move, line and close commands are accepted. Coordinates may be
// separated by whitespace or commas, and "L" may be omitted between points as
// SVG allows after a move. Relative commands, curves, arcs and multiple
// subpaths are rejected with [ErrUnsupportedPath].
func ParsePath(d string) (pts []Point, closed bool, err error) {
	b := []byte(d)
	var nums []float64
	moved := false

	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == 'M':
			if moved {
				return nil, false, ErrUnsupportedPath
			}
			moved = true
			i++
		case c == 'L':
			if !moved || len(nums)%2 != 0 {
				return nil, false, ErrUnsupportedPath
			}
			i++
		case c == 'Z':
			if !moved || closed || len(nums)%2 != 0 {
				return nil, false, ErrUnsupportedPath
			}
			closed = true
			i++
		default:
			if !moved || closed {
				return nil, false, ErrUnsupportedPath
			}
			f, n := pstrconv.ParseFloat(b[i:])
			if n == 0 {
				return nil, false, ErrUnsupportedPath
			}
			nums = append(nums, f)
			i += n
		}
	}

	if len(nums) < 4 || len(nums)%2 != 0 {
		return nil, false, ErrUnsupportedPath
	}
	pts = make([]Point, 0, len(nums)/2)
	for i := 0; i < len(nums); i += 2 {
		pts = append(pts, Point{nums[i], nums[i+1]})
	}
	return pts, closed, nil
}
