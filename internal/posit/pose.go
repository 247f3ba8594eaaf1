package posit

import (
	"math"

	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

// Error measures how well a pose reprojects the model onto the image.
type Error struct {
	// Euclidean is the mean distance, in pixels, between each projected
	// model point and its image point.
	Euclidean float64 `json:"euclidean"`

	// Pixels is the summed per-axis difference after rounding both the
	// projection and the image point to whole pixels.
	Pixels float64 `json:"pixels"`

	// Maximum is the largest per-axis difference, in pixels.
	Maximum float64 `json:"maximum"`
}

// InvalidError is reported for a pose that puts part of the model behind the
// camera.
var InvalidError = Error{Euclidean: -1, Pixels: -1, Maximum: -1}

// Valid reports whether e belongs to a pose with the whole model in front of
// the camera.
func (e Error) Valid() bool {
	return e.Euclidean >= 0
}

// better reports whether e should rank ahead of other: a valid error always
// beats an invalid one, and between valid errors the lower Euclidean wins.
func (e Error) better(other Error) bool {
	if !e.Valid() {
		return false
	}
	return !other.Valid() || e.Euclidean < other.Euclidean
}

func (e Error) finite() bool {
	return isFinite(e.Euclidean) && isFinite(e.Pixels) && isFinite(e.Maximum)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Hypothesis is one candidate pose of the model in camera space.
type Hypothesis struct {
	// Rotation maps model coordinates to camera coordinates, row-major.
	Rotation [3][3]float64 `json:"rotation"`

	// Translation is the position of the model centre in camera
	// coordinates, in model units.
	Translation [3]float64 `json:"translation"`

	// Error is the reprojection error, or InvalidError.
	Error Error `json:"error"`
}

// unusable stands in for a pose that could not be computed at all.
var unusable = Hypothesis{
	Rotation: [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
	Error:    InvalidError,
}

func (h Hypothesis) finite() bool {
	for i := range h.Rotation {
		for _, v := range h.Rotation[i] {
			if !isFinite(v) {
				return false
			}
		}
		if !isFinite(h.Translation[i]) {
			return false
		}
	}
	return h.Error.finite()
}

// Angles returns the rotation as yaw (about Y), pitch (about X) and roll
// (about Z), in radians.
func (h Hypothesis) Angles() (yaw, pitch, roll float64) {
	r := h.Rotation
	yaw = -math.Atan2(r[0][2], r[2][2])
	pitch = -math.Asin(-r[1][2])
	roll = math.Atan2(r[1][0], r[1][1])
	return yaw, pitch, roll
}

// Pose holds the two mirror solutions of a planar pose. Best has the lower
// error; check Best.Error.Valid() before trusting it.
type Pose struct {
	Best        Hypothesis `json:"best"`
	Alternative Hypothesis `json:"alternative"`
}

// CenterCorners converts pixel coordinates (origin top-left, Y down) to the
// camera image plane used by Pose: origin at the image centre, Y up.
func CenterCorners(corners [4]imaging.Point, width, height int) [4]imaging.Point {
	cx := float64(width) / 2
	cy := float64(height) / 2

	var out [4]imaging.Point
	for i, c := range corners {
		out[i] = imaging.Point{X: c.X - cx, Y: cy - c.Y}
	}
	return out
}
