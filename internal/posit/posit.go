package posit

import (
	"errors"
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

const (
	numPoints = 4

	// maxIterations caps the refinement loop of each hypothesis.
	maxIterations = 100

	// convergence is the change in corrected image points, summed over both
	// axes of every point, below which refinement stops.
	convergence = 0.01
)

// ErrDegenerateModel is returned when the model points do not span a plane.
var ErrDegenerateModel = errors.New("degenerate model: points are collinear")

// rotation is a 3x3 rotation matrix stored as rows.
type rotation [3]r3.Vector

// rotationFromRows completes two orthonormal rows with their cross product.
func rotationFromRows(row1, row2 r3.Vector) rotation {
	return rotation{row1, row2, row1.Cross(row2)}
}

// apply returns R·v.
func (r rotation) apply(v r3.Vector) r3.Vector {
	return r3.Vector{X: r[0].Dot(v), Y: r[1].Dot(v), Z: r[2].Dot(v)}
}

func (r rotation) matrix() [3][3]float64 {
	var m [3][3]float64
	for i, row := range r {
		m[i] = [3]float64{row.X, row.Y, row.Z}
	}
	return m
}

func rotationFromMatrix(m [3][3]float64) rotation {
	var r rotation
	for i, row := range m {
		r[i] = r3.Vector{X: row[0], Y: row[1], Z: row[2]}
	}
	return r
}

// Posit estimates the pose of a planar four-point model from its image.
//
// The model geometry and its pseudo-inverse are computed once by New and
// shared by every Pose call. A Posit is read-only after construction and
// safe for concurrent use.
type Posit struct {
	// objectPoints are the model points in model coordinates.
	objectPoints [numPoints]r3.Vector

	// objectVectors are the model points relative to objectPoints[0].
	objectVectors [numPoints]r3.Vector

	// normal is the unit normal of the model plane.
	normal r3.Vector

	// objectMatrix is the pseudo-inverse of objectVectors as a 4x3 matrix.
	objectMatrix [3][numPoints]float64

	focalLength float64
}

// New builds an estimator for a square marker.
//
// Parameters:
//   - modelSize: Edge length of the marker, in the units the translation
//     should be reported in (e.g. millimetres).
//   - focalLength: Camera focal length in pixels.
//
// The model corners are (-h,h,0), (h,h,0), (h,-h,0) and (-h,-h,0) with
// h = modelSize/2: top-left, top-right, bottom-right, bottom-left, matching
// the corner order of detected markers once converted with CenterCorners.
func New(modelSize, focalLength float64) (*Posit, error) {
	if !(modelSize > 0) {
		return nil, fmt.Errorf("model size %g: must be positive", modelSize)
	}
	h := modelSize / 2
	return NewWithModel([numPoints]r3.Vector{
		{X: -h, Y: h, Z: 0},
		{X: h, Y: h, Z: 0},
		{X: h, Y: -h, Z: 0},
		{X: -h, Y: -h, Z: 0},
	}, focalLength)
}

// NewWithModel builds an estimator for an arbitrary planar four-point model.
// The points must be coplanar.
//
// Returns ErrDegenerateModel if no pair of model vectors spans a plane.
func NewWithModel(points [numPoints]r3.Vector, focalLength float64) (*Posit, error) {
	if !(focalLength > 0) {
		return nil, fmt.Errorf("focal length %g: must be positive", focalLength)
	}

	p := &Posit{objectPoints: points, focalLength: focalLength}
	for i, pt := range points {
		p.objectVectors[i] = pt.Sub(points[0])
	}

	// The first vector crossed with each later one until a non-zero normal
	// turns up.
	for row := 2; row < numPoints; row++ {
		n := p.objectVectors[1].Cross(p.objectVectors[row])
		if l := n.Norm(); l != 0 {
			p.normal = n.Mul(1 / l)
			break
		}
	}
	if p.normal == (r3.Vector{}) {
		return nil, ErrDegenerateModel
	}

	m, err := pseudoInverse(p.objectVectors)
	if err != nil {
		return nil, fmt.Errorf("model pseudo-inverse: %w", err)
	}
	p.objectMatrix = m
	return p, nil
}

// Pose estimates the model pose from its four image points.
//
// Parameters:
//   - imagePoints: Image of each model point, in the same order, relative to
//     the principal point with Y up (see CenterCorners).
//
// Returns:
//   - Pose: Both mirror solutions, ranked. A hypothesis whose initial
//     estimate puts part of the model behind the camera is not refined and
//     carries InvalidError; it always ranks behind a valid one. Image
//     points with no orthographic solution, such as coincident corners,
//     give two unusable hypotheses: identity rotation, zero translation
//     and InvalidError.
//
// # Algorithm
//
//  1. Scaled orthographic estimate: the image vectors relative to point 0
//     are multiplied by the model pseudo-inverse, giving the first two
//     rotation rows up to a component along the plane normal. Solving for
//     that component yields two solutions, mirror images through the plane.
//  2. Each valid solution is refined: image points are corrected by the
//     perspective factor the current pose implies and the orthographic
//     estimate is repeated on the corrected points, keeping whichever of
//     the two new solutions reprojects better. This stops when the rounded
//     reprojection is exact, the corrected points stop moving, or after
//     100 rounds.
//  3. Translations are moved from model point 0 to the model origin.
func (p *Posit) Pose(imagePoints [4]imaging.Point) Pose {
	rot1, rot2, t, ok := p.pos(imagePoints)
	if !ok {
		return Pose{Best: unusable, Alternative: unusable}
	}

	h1 := p.refine(imagePoints, rot1, t)
	h2 := p.refine(imagePoints, rot2, t)

	if h1.Error.better(h2.Error) {
		return Pose{Best: h1, Alternative: h2}
	}
	return Pose{Best: h2, Alternative: h1}
}

// Error reprojects the model through the given pose with a perspective
// camera and compares the result with imagePoints.
//
// Returns InvalidError if any model point lies behind the camera or on its
// image plane.
func (p *Posit) Error(imagePoints [4]imaging.Point, rot [3][3]float64, translation [3]float64) Error {
	t := r3.Vector{X: translation[0], Y: translation[1], Z: translation[2]}
	return p.error(imagePoints, rotationFromMatrix(rot), t)
}

// refine iterates one initial hypothesis and returns it in model-origin
// coordinates.
func (p *Posit) refine(imagePoints [numPoints]imaging.Point, rot rotation, t r3.Vector) Hypothesis {
	e := InvalidError
	if p.isValid(rot, t) {
		rot, t, e = p.iterate(imagePoints, rot, t)
	}

	t = t.Sub(rot.apply(p.objectPoints[0]))
	h := Hypothesis{
		Rotation:    rot.matrix(),
		Translation: [3]float64{t.X, t.Y, t.Z},
		Error:       e,
	}
	if !h.finite() {
		return unusable
	}
	return h
}

// pos computes the two scaled orthographic pose estimates. The translation,
// shared by both, locates model point 0. ok is false when the image points
// span no scale, which leaves the rotation rows undefined.
func (p *Posit) pos(imagePoints [numPoints]imaging.Point) (rot1, rot2 rotation, t r3.Vector, ok bool) {
	var i0, j0 r3.Vector
	for j := 0; j < numPoints; j++ {
		col := r3.Vector{X: p.objectMatrix[0][j], Y: p.objectMatrix[1][j], Z: p.objectMatrix[2][j]}
		i0 = i0.Add(col.Mul(imagePoints[j].X - imagePoints[0].X))
		j0 = j0.Add(col.Mul(imagePoints[j].Y - imagePoints[0].Y))
	}

	i0i0 := i0.Dot(i0)
	j0j0 := j0.Dot(j0)
	i0j0 := i0.Dot(j0)

	// λ and μ are the components of I and J along the normal; they satisfy
	// λ² - μ² = J0·J0 - I0·I0 and λμ = -I0·J0.
	d := j0j0 - i0i0
	delta := d*d + 4*i0j0*i0j0
	var q float64
	if d >= 0 {
		q = (d + math.Sqrt(delta)) / 2
	} else {
		q = (d - math.Sqrt(delta)) / 2
	}

	var lambda, mu float64
	if q >= 0 {
		lambda = math.Sqrt(q)
		if lambda != 0 {
			mu = -i0j0 / lambda
		}
	} else {
		lambda = math.Sqrt(-(i0j0 * i0j0) / q)
		if lambda == 0 {
			mu = math.Sqrt(i0i0 - j0j0)
		} else {
			mu = -i0j0 / lambda
		}
	}

	iv := i0.Add(p.normal.Mul(lambda))
	jv := j0.Add(p.normal.Mul(mu))
	scale := iv.Norm()
	if !(scale > 0) || math.IsInf(scale, 0) || math.IsNaN(mu) {
		return rot1, rot2, t, false
	}
	rot1 = rotationFromRows(iv.Mul(1/scale), jv.Mul(1/scale))

	iv = i0.Sub(p.normal.Mul(lambda))
	jv = j0.Sub(p.normal.Mul(mu))
	rot2 = rotationFromRows(iv.Mul(1/scale), jv.Mul(1/scale))

	t = r3.Vector{
		X: imagePoints[0].X / scale,
		Y: imagePoints[0].Y / scale,
		Z: p.focalLength / scale,
	}
	return rot1, rot2, t, true
}

// isValid reports whether every model point lies in front of the camera for
// a pose whose translation locates model point 0.
func (p *Posit) isValid(rot rotation, t r3.Vector) bool {
	for _, v := range p.objectVectors {
		if t.Z+rot[2].Dot(v) < 0 {
			return false
		}
	}
	return true
}

// iterate refines a valid initial pose. It returns the final rotation, the
// translation of model point 0 and the reprojection error.
func (p *Posit) iterate(imagePoints [numPoints]imaging.Point, rot rotation, t r3.Vector) (rotation, r3.Vector, Error) {
	sop := p.sopPoints(imagePoints, rot, t)
	diff := pointsDifference(sop, imagePoints)

	e := p.error(imagePoints, rot, t.Sub(rot.apply(p.objectPoints[0])))
	converged := e.Pixels == 0 || diff < convergence

	for i := 0; i < maxIterations && !converged; i++ {
		old := sop

		rot1, rot2, tNext, ok := p.pos(sop)
		if !ok {
			break
		}
		t = tNext
		e1 := p.error(imagePoints, rot1, t.Sub(rot1.apply(p.objectPoints[0])))
		e2 := p.error(imagePoints, rot2, t.Sub(rot2.apply(p.objectPoints[0])))

		switch {
		case e1.Valid() && e2.Valid():
			if e2.Euclidean < e1.Euclidean {
				rot, e = rot2, e2
			} else {
				rot, e = rot1, e1
			}
		case e2.Valid():
			rot, e = rot2, e2
		case e1.Valid():
			rot, e = rot1, e1
		}

		sop = p.sopPoints(imagePoints, rot, t)
		prev := diff
		diff = pointsDifference(sop, old)
		converged = e.Pixels == 0 || math.Abs(diff-prev) < convergence
	}

	return rot, t, e
}

// sopPoints corrects the image points by the perspective factor
// 1 + (R₃·vᵢ)/Tz so they fit a scaled orthographic projection.
func (p *Posit) sopPoints(imagePoints [numPoints]imaging.Point, rot rotation, t r3.Vector) [numPoints]imaging.Point {
	var out [numPoints]imaging.Point
	for i, v := range p.objectVectors {
		f := 1 + rot[2].Dot(v)/t.Z
		out[i] = imaging.Point{X: f * imagePoints[i].X, Y: f * imagePoints[i].Y}
	}
	return out
}

func pointsDifference(a, b [numPoints]imaging.Point) float64 {
	d := 0.0
	for i := range a {
		d += math.Abs(a[i].X-b[i].X) + math.Abs(a[i].Y-b[i].Y)
	}
	return d
}

// error reprojects the model through (rot, t), with t locating the model
// origin.
func (p *Posit) error(imagePoints [numPoints]imaging.Point, rot rotation, t r3.Vector) Error {
	var cam [numPoints]r3.Vector
	for i, op := range p.objectPoints {
		cam[i] = rot.apply(op).Add(t)
		if cam[i].Z < 0 {
			return InvalidError
		}
	}

	var e Error
	for i, c := range cam {
		px := p.focalLength * c.X / c.Z
		py := p.focalLength * c.Y / c.Z
		ex := px - imagePoints[i].X
		ey := py - imagePoints[i].Y

		e.Euclidean += math.Sqrt(ex*ex + ey*ey)
		e.Pixels += math.Abs(roundHalfUp(px)-roundHalfUp(imagePoints[i].X)) +
			math.Abs(roundHalfUp(py)-roundHalfUp(imagePoints[i].Y))
		e.Maximum = math.Max(e.Maximum, math.Max(math.Abs(ex), math.Abs(ey)))
	}
	e.Euclidean /= numPoints
	if !e.finite() {
		return InvalidError
	}
	return e
}

// roundHalfUp rounds .5 toward +Inf, unlike math.Round.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
