package posit

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

const (
	testModelSize   = 35.0
	testFocalLength = 800.0
)

func newTestPosit(t *testing.T) *Posit {
	t.Helper()
	p, err := New(testModelSize, testFocalLength)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

// rotationXYZ returns Rz·Ry·Rx.
func rotationXYZ(ax, ay, az float64) [3][3]float64 {
	cx, sx := math.Cos(ax), math.Sin(ax)
	cy, sy := math.Cos(ay), math.Sin(ay)
	cz, sz := math.Cos(az), math.Sin(az)

	rx := mat.NewDense(3, 3, []float64{1, 0, 0, 0, cx, -sx, 0, sx, cx})
	ry := mat.NewDense(3, 3, []float64{cy, 0, sy, 0, 1, 0, -sy, 0, cy})
	rz := mat.NewDense(3, 3, []float64{cz, -sz, 0, sz, cz, 0, 0, 0, 1})

	var r mat.Dense
	r.Product(rz, ry, rx)

	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r.At(i, j)
		}
	}
	return out
}

// project images the model of p through a pinhole camera.
func project(p *Posit, rot [3][3]float64, t [3]float64) [4]imaging.Point {
	r := rotationFromMatrix(rot)
	tv := r3.Vector{X: t[0], Y: t[1], Z: t[2]}

	var out [4]imaging.Point
	for i, op := range p.objectPoints {
		c := r.apply(op).Add(tv)
		out[i] = imaging.Point{X: p.focalLength * c.X / c.Z, Y: p.focalLength * c.Y / c.Z}
	}
	return out
}

func maxAbsDiff(a, b [3][3]float64) float64 {
	d := 0.0
	for i := range a {
		for j := range a[i] {
			d = math.Max(d, math.Abs(a[i][j]-b[i][j]))
		}
	}
	return d
}

func TestPose_SyntheticProjection(t *testing.T) {
	tests := []struct {
		name        string
		ax, ay, az  float64
		translation [3]float64
	}{
		{"facing camera", 0, 0, 0, [3]float64{0, 0, 150}},
		{"small tilt", 0.2, -0.15, 0.1, [3]float64{10, -5, 150}},
		{"far and rolled", -0.3, 0.25, 0.6, [3]float64{-20, 15, 300}},
		{"pitched", 0.5, 0, 0, [3]float64{0, 0, 200}},
		{"close", 0.1, 0.2, 0.3, [3]float64{5, 5, 120}},
	}

	p := newTestPosit(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rot := rotationXYZ(tt.ax, tt.ay, tt.az)
			pose := p.Pose(project(p, rot, tt.translation))

			best := pose.Best
			if !best.Error.Valid() {
				t.Fatalf("best hypothesis is invalid: %+v", best.Error)
			}
			if best.Error.Euclidean >= 0.5 {
				t.Errorf("Euclidean error = %g, want < 0.5", best.Error.Euclidean)
			}
			if best.Error.Pixels != 0 {
				t.Errorf("Pixels error = %g, want 0", best.Error.Pixels)
			}
			if d := maxAbsDiff(best.Rotation, rot); d > 0.01 {
				t.Errorf("rotation off by %g:\ngot  %v\nwant %v", d, best.Rotation, rot)
			}

			tol := 0.01 * tt.translation[2]
			for i := range tt.translation {
				if math.Abs(best.Translation[i]-tt.translation[i]) > tol {
					t.Errorf("translation = %v, want %v within %g", best.Translation, tt.translation, tol)
					break
				}
			}

			if alt := pose.Alternative.Error; alt.Valid() && alt.Euclidean < best.Error.Euclidean {
				t.Errorf("alternative error %g ranks below best %g", alt.Euclidean, best.Error.Euclidean)
			}
		})
	}
}

func TestPose_RotationIsOrthonormal(t *testing.T) {
	p := newTestPosit(t)
	pose := p.Pose(project(p, rotationXYZ(0.3, -0.2, 1.1), [3]float64{12, -8, 250}))

	for _, h := range []Hypothesis{pose.Best, pose.Alternative} {
		if !h.Error.Valid() {
			continue
		}
		r := mat.NewDense(3, 3, nil)
		for i := range h.Rotation {
			r.SetRow(i, h.Rotation[i][:])
		}
		var rrt mat.Dense
		rrt.Mul(r, r.T())
		if !mat.EqualApprox(&rrt, identity(), 1e-9) {
			t.Errorf("R·Rᵀ is not identity:\n%v", mat.Formatted(&rrt))
		}
	}
}

func identity() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}

func TestPose_Deterministic(t *testing.T) {
	p := newTestPosit(t)
	img := project(p, rotationXYZ(0.2, 0.1, -0.4), [3]float64{3, 4, 180})

	if diff := cmp.Diff(p.Pose(img), p.Pose(img)); diff != "" {
		t.Errorf("repeated Pose differs:\n%s", diff)
	}
}

func TestPose_DegenerateImagePoints(t *testing.T) {
	p := newTestPosit(t)

	coincident := [4]imaging.Point{{X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}, {X: 5, Y: 5}}
	pose := p.Pose(coincident)
	if diff := cmp.Diff(Pose{Best: unusable, Alternative: unusable}, pose); diff != "" {
		t.Errorf("coincident corners (-want +got):\n%s", diff)
	}

	tests := []struct {
		name   string
		points [4]imaging.Point
	}{
		{"coincident", coincident},
		{"collinear", [4]imaging.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 20, Y: 0}, {X: 30, Y: 0}}},
		{"three coincident", [4]imaging.Point{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 40, Y: -20}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pose := p.Pose(tt.points)
			for _, h := range []Hypothesis{pose.Best, pose.Alternative} {
				if !h.finite() {
					t.Fatalf("non-finite hypothesis: %+v", h)
				}
				if !h.Error.Valid() && h.Error != InvalidError {
					t.Errorf("invalid error is not the sentinel: %+v", h.Error)
				}
			}
		})
	}
}

func TestError_Sentinel(t *testing.T) {
	p := newTestPosit(t)
	identityRot := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	// Quarter turn about X: model Y maps to camera Z.
	quarterTurn := [3][3]float64{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}}
	img := project(p, identityRot, [3]float64{0, 0, 150})

	tests := []struct {
		name        string
		rot         [3][3]float64
		translation [3]float64
		wantValid   bool
	}{
		{"in front", identityRot, [3]float64{0, 0, 150}, true},
		{"behind camera", identityRot, [3]float64{0, 0, -10}, false},
		{"straddles image plane", quarterTurn, [3]float64{0, 0, 5}, false},
		{"edge on, in front", quarterTurn, [3]float64{0, 0, 20}, true},
		{"on image plane", identityRot, [3]float64{0, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Error(img, tt.rot, tt.translation)
			if got.Valid() != tt.wantValid {
				t.Fatalf("Valid() = %v, want %v (error %+v)", got.Valid(), tt.wantValid, got)
			}
			if !tt.wantValid && got != InvalidError {
				t.Errorf("got %+v, want %+v", got, InvalidError)
			}
		})
	}
}

func TestError_ExactProjection(t *testing.T) {
	p := newTestPosit(t)
	rot := rotationXYZ(0.1, 0.2, 0.3)
	tr := [3]float64{4, -2, 160}

	got := p.Error(project(p, rot, tr), rot, tr)
	want := Error{}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Error mismatch (-want +got):\n%s", diff)
	}
}

func TestError_Metrics(t *testing.T) {
	p := newTestPosit(t)
	rot := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tr := [3]float64{0, 0, 100}

	// Model corners project to (±140, ±140). Shift one image point by
	// (3, 4) and another by (-0.4, 0).
	img := project(p, rot, tr)
	img[1].X += 3
	img[1].Y += 4
	img[3].X -= 0.4

	got := p.Error(img, rot, tr)
	want := Error{Euclidean: (5 + 0.4) / 4, Pixels: 7, Maximum: 4}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Error mismatch (-want +got):\n%s", diff)
	}
}

func TestErrorBetter(t *testing.T) {
	tests := []struct {
		name string
		a, b Error
		want bool
	}{
		{"lower wins", Error{Euclidean: 1}, Error{Euclidean: 2}, true},
		{"higher loses", Error{Euclidean: 2}, Error{Euclidean: 1}, false},
		{"tie loses", Error{Euclidean: 1}, Error{Euclidean: 1}, false},
		{"valid beats invalid", Error{Euclidean: 50}, InvalidError, true},
		{"invalid never wins", InvalidError, Error{Euclidean: 50}, false},
		{"both invalid", InvalidError, InvalidError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.better(tt.b); got != tt.want {
				t.Errorf("better() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew_InvalidArguments(t *testing.T) {
	tests := []struct {
		name        string
		size, focal float64
	}{
		{"zero size", 0, 800},
		{"negative size", -1, 800},
		{"zero focal length", 35, 0},
		{"negative focal length", 35, -800},
		{"NaN size", math.NaN(), 800},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.size, tt.focal); err == nil {
				t.Error("New should fail")
			}
		})
	}
}

func TestNewWithModel_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		points [4]r3.Vector
	}{
		{"collinear", [4]r3.Vector{{X: 0}, {X: 1}, {X: 2}, {X: 3}}},
		{"coincident", [4]r3.Vector{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}, {X: 1, Y: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithModel(tt.points, 800)
			if !errors.Is(err, ErrDegenerateModel) {
				t.Errorf("got %v, want ErrDegenerateModel", err)
			}
		})
	}
}

func TestNewWithModel_NormalFromLaterRow(t *testing.T) {
	// v1 and v2 are parallel, so the normal comes from v3.
	p, err := NewWithModel([4]r3.Vector{{X: 0}, {X: 10}, {X: 20}, {Y: 10}}, 800)
	if err != nil {
		t.Fatalf("NewWithModel failed: %v", err)
	}
	if want := (r3.Vector{Z: 1}); !p.normal.ApproxEqual(want) {
		t.Errorf("normal = %v, want %v", p.normal, want)
	}
}

func TestNew_Model(t *testing.T) {
	p := newTestPosit(t)

	wantPoints := [4]r3.Vector{
		{X: -17.5, Y: 17.5}, {X: 17.5, Y: 17.5}, {X: 17.5, Y: -17.5}, {X: -17.5, Y: -17.5},
	}
	if p.objectPoints != wantPoints {
		t.Errorf("objectPoints = %v, want %v", p.objectPoints, wantPoints)
	}
	if p.objectVectors[0] != (r3.Vector{}) {
		t.Errorf("objectVectors[0] = %v, want zero", p.objectVectors[0])
	}
	// v1 × v2 = (35,0,0) × (35,-35,0) points along -Z.
	if want := (r3.Vector{Z: -1}); !p.normal.ApproxEqual(want) {
		t.Errorf("normal = %v, want %v", p.normal, want)
	}
}

func TestPseudoInverse(t *testing.T) {
	p := newTestPosit(t)

	a := mat.NewDense(numPoints, 3, nil)
	for i, v := range p.objectVectors {
		a.SetRow(i, []float64{v.X, v.Y, v.Z})
	}
	pinv := mat.NewDense(3, numPoints, nil)
	for i := range p.objectMatrix {
		pinv.SetRow(i, p.objectMatrix[i][:])
	}

	// The model is planar in Z = 0, so A⁺A projects onto the XY plane.
	var proj mat.Dense
	proj.Mul(pinv, a)
	want := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 0})
	if !mat.EqualApprox(&proj, want, 1e-9) {
		t.Errorf("A⁺A =\n%v\nwant\n%v", mat.Formatted(&proj), mat.Formatted(want))
	}

	// A·A⁺·A = A.
	var back mat.Dense
	back.Mul(a, &proj)
	if !mat.EqualApprox(&back, a, 1e-9) {
		t.Errorf("A·A⁺·A =\n%v\nwant\n%v", mat.Formatted(&back), mat.Formatted(a))
	}
}

func TestAngles(t *testing.T) {
	const angle = 0.4

	tests := []struct {
		name                         string
		rot                          [3][3]float64
		wantYaw, wantPitch, wantRoll float64
	}{
		{"identity", rotationXYZ(0, 0, 0), 0, 0, 0},
		{"about Y", rotationXYZ(0, angle, 0), -angle, 0, 0},
		{"about X", rotationXYZ(angle, 0, 0), 0, -angle, 0},
		{"about Z", rotationXYZ(0, 0, angle), 0, 0, angle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yaw, pitch, roll := Hypothesis{Rotation: tt.rot}.Angles()
			got := [3]float64{yaw, pitch, roll}
			want := [3]float64{tt.wantYaw, tt.wantPitch, tt.wantRoll}
			if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
				t.Errorf("angles mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCenterCorners(t *testing.T) {
	corners := [4]imaging.Point{{X: 0, Y: 0}, {X: 640, Y: 0}, {X: 640, Y: 480}, {X: 320, Y: 240}}
	got := CenterCorners(corners, 640, 480)
	want := [4]imaging.Point{{X: -320, Y: 240}, {X: 320, Y: 240}, {X: 320, Y: -240}, {X: 0, Y: 0}}

	if got != want {
		t.Errorf("CenterCorners = %v, want %v", got, want)
	}
}
