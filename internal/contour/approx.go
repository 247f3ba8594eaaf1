package contour

import (
	"math"

	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

// span is a run of contour indices [start, end]. end may exceed the contour
// length; indices are taken modulo the length.
type span struct {
	start, end int
}

// ApproxPolyDP simplifies a closed contour into a polygon whose vertices are
// a subset of the contour points (Ramer-Douglas-Peucker).
//
// Parameters:
//   - points: Closed contour in tracing order.
//   - epsilon: Maximum distance, in pixels, between the contour and the
//     polygon edge that replaces it.
//
// Returns:
//   - []imaging.Point: Polygon vertices. A contour that fits inside epsilon
//     of a single point collapses to that point. Empty input returns nil.
//
// # Algorithm
//
// A closed curve has no natural endpoints, so two far-apart points are found
// first: starting at index 0, the farthest point is located three times in a
// row, each search starting from the previous winner. The contour is split
// there into two arcs, and each arc is subdivided with an explicit stack:
// the point of maximum deviation from the chord becomes a vertex unless the
// deviation is within epsilon, in which case the arc's start point is
// emitted and the arc is dropped.
func ApproxPolyDP(points []imaging.Point, epsilon float64) []imaging.Point {
	n := len(points)
	if n == 0 {
		return nil
	}

	eps := epsilon * epsilon
	var poly []imaging.Point
	var stack []span

	var startPt imaging.Point
	var maxDist float64
	k, far := 0, 0

	for i := 0; i < 3; i++ {
		maxDist = 0

		k = (k + far) % n
		startPt = points[k]
		if k++; k == n {
			k = 0
		}

		for j := 1; j < n; j++ {
			pt := points[k]
			if k++; k == n {
				k = 0
			}

			if d := pt.DistanceSq(startPt); d > maxDist {
				maxDist = d
				far = j
			}
		}
	}

	if maxDist <= eps {
		poly = append(poly, startPt)
	} else {
		left := span{start: k, end: k + far}
		right := span{start: left.end, end: left.start}
		if right.start >= n {
			right.start -= n
		}
		if right.end < right.start {
			right.end += n
		}
		stack = append(stack, right, left)
	}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		endPt := points[s.end%n]
		k = s.start % n
		startPt = points[k]
		if k++; k == n {
			k = 0
		}

		within := true
		if s.end > s.start+1 {
			maxDist = 0
			dx := endPt.X - startPt.X
			dy := endPt.Y - startPt.Y

			for i := s.start + 1; i < s.end; i++ {
				pt := points[k]
				if k++; k == n {
					k = 0
				}

				d := math.Abs((pt.Y-startPt.Y)*dx - (pt.X-startPt.X)*dy)
				if d > maxDist {
					maxDist = d
					far = i
				}
			}

			within = maxDist*maxDist <= eps*(dx*dx+dy*dy)
		}

		if within {
			poly = append(poly, startPt)
		} else {
			stack = append(stack, span{start: far, end: s.end}, span{start: s.start, end: far})
		}
	}

	return poly
}
