package contour

import (
	"math"

	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

// IsConvex reports whether the closed polygon turns the same way at every
// vertex. Polygons with fewer than three vertices, or with a straight angle
// (collinear consecutive edges) or a zero-length edge, are not convex.
func IsConvex(poly []imaging.Point) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	const (
		turnLeft  = 1
		turnRight = 2
	)

	orientation := 0
	prev := poly[n-1].Sub(poly[n-2])
	for i := 0; i < n; i++ {
		j := i - 1
		if j < 0 {
			j = n - 1
		}
		edge := poly[i].Sub(poly[j])

		switch c := prev.Cross(edge); {
		case c > 0:
			orientation |= turnLeft
		case c < 0:
			orientation |= turnRight
		default:
			return false
		}
		if orientation == turnLeft|turnRight {
			return false
		}
		prev = edge
	}

	return true
}

// Perimeter returns the length of the closed polygon.
func Perimeter(poly []imaging.Point) float64 {
	p := 0.0
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		p += poly[i].Distance(poly[j])
	}
	return p
}

// MinEdgeLength returns the length of the shortest edge of the closed
// polygon, or +Inf for an empty polygon.
func MinEdgeLength(poly []imaging.Point) float64 {
	min := math.Inf(1)
	for i, j := 0, len(poly)-1; i < len(poly); j, i = i, i+1 {
		if d := poly[i].DistanceSq(poly[j]); d < min {
			min = d
		}
	}
	return math.Sqrt(min)
}
