package detection

import (
	"github.com/ironsheep/aruco-mcp/internal/contour"
	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

// Candidate is a convex, clockwise quadrilateral that may outline a marker.
type Candidate [4]imaging.Point

// Perimeter returns the length of the candidate outline.
func (c Candidate) Perimeter() float64 {
	return contour.Perimeter(c[:])
}

// findCandidates reduces each long enough contour to a polygon and keeps the
// convex quadrilaterals whose shortest edge is at least minEdge.
//
// Contours shorter than minSize points are skipped. The approximation
// tolerance is epsilon times the contour length. Returned candidates are in
// contour order, already clockwise.
func findCandidates(contours []contour.Contour, minSize, epsilon, minEdge float64) []Candidate {
	var candidates []Candidate
	for _, c := range contours {
		if float64(len(c.Points)) < minSize {
			continue
		}

		poly := contour.ApproxPolyDP(c.Points, float64(len(c.Points))*epsilon)
		if len(poly) != 4 || !contour.IsConvex(poly) {
			continue
		}
		if contour.MinEdgeLength(poly) < minEdge {
			continue
		}

		candidates = append(candidates, clockwise(Candidate{poly[0], poly[1], poly[2], poly[3]}))
	}
	return candidates
}

// clockwise returns c with its corners in clockwise screen order (Y down),
// keeping c[0] in place and swapping c[1] and c[3] if needed.
func clockwise(c Candidate) Candidate {
	if c[1].Sub(c[0]).Cross(c[2].Sub(c[0])) < 0 {
		c[1], c[3] = c[3], c[1]
	}
	return c
}

// dedupe drops near-duplicate candidates.
//
// Two candidates are near-duplicates when the mean squared distance between
// their corresponding corners is below minDist². Of each such pair the one
// with the larger perimeter is dropped, so the tighter outline survives.
// Survivors keep their input order.
func dedupe(candidates []Candidate, minDist float64) []Candidate {
	limit := minDist * minDist
	tooNear := make([]bool, len(candidates))

	for i := range candidates {
		for j := i + 1; j < len(candidates); j++ {
			dist := 0.0
			for k := 0; k < 4; k++ {
				dist += candidates[i][k].DistanceSq(candidates[j][k])
			}
			if dist/4 >= limit {
				continue
			}

			if candidates[i].Perimeter() > candidates[j].Perimeter() {
				tooNear[i] = true
			} else {
				tooNear[j] = true
			}
		}
	}

	kept := make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		if !tooNear[i] {
			kept = append(kept, c)
		}
	}
	return kept
}
