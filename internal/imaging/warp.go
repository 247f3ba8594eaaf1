package imaging

import (
	"fmt"
	"math"
)

// perspective is a 3x3 projective transform mapping (u, v) to
//
//	x = (a11*u + a21*v + a31) / (a13*u + a23*v + a33)
//	y = (a12*u + a22*v + a32) / (a13*u + a23*v + a33)
type perspective struct {
	a11, a12, a13 float64
	a21, a22, a23 float64
	a31, a32, a33 float64
}

// squareToQuad computes the transform taking the unit square corners
// (0,0), (1,0), (1,1), (0,1) to q[0], q[1], q[2], q[3].
//
// When the quad is a parallelogram the projective terms vanish and the cheaper
// affine form is used.
func squareToQuad(q [4]Point) perspective {
	dx3 := q[0].X - q[1].X + q[2].X - q[3].X
	dy3 := q[0].Y - q[1].Y + q[2].Y - q[3].Y

	if dx3 == 0 && dy3 == 0 {
		return perspective{
			a11: q[1].X - q[0].X, a21: q[2].X - q[1].X, a31: q[0].X,
			a12: q[1].Y - q[0].Y, a22: q[2].Y - q[1].Y, a32: q[0].Y,
			a13: 0, a23: 0, a33: 1,
		}
	}

	dx1 := q[1].X - q[2].X
	dx2 := q[3].X - q[2].X
	dy1 := q[1].Y - q[2].Y
	dy2 := q[3].Y - q[2].Y
	den := dx1*dy2 - dx2*dy1

	a13 := (dx3*dy2 - dx2*dy3) / den
	a23 := (dx1*dy3 - dx3*dy1) / den
	return perspective{
		a11: q[1].X - q[0].X + a13*q[1].X, a21: q[3].X - q[0].X + a23*q[3].X, a31: q[0].X,
		a12: q[1].Y - q[0].Y + a13*q[1].Y, a22: q[3].Y - q[0].Y + a23*q[3].Y, a32: q[0].Y,
		a13: a13, a23: a23, a33: 1,
	}
}

// apply maps (u, v) from the unit square into quad space.
func (p perspective) apply(u, v float64) (float64, float64) {
	w := p.a13*u + p.a23*v + p.a33
	return (p.a11*u + p.a21*v + p.a31) / w, (p.a12*u + p.a22*v + p.a32) / w
}

// Warp resamples the quadrilateral quad of src into a size x size square.
//
// Parameters:
//   - src: Grayscale source buffer.
//   - quad: Corners in source pixel coordinates. Output pixel (0,0) samples
//     quad[0], (size-1,0) samples quad[1], (size-1,size-1) samples quad[2]
//     and (0,size-1) samples quad[3].
//   - size: Output edge length in pixels, at least 2.
//
// Returns:
//   - *Gray: The rectified buffer.
//   - error: Non-nil if size is smaller than 2.
//
// # Algorithm
//
// A projective transform from the unit square onto quad is solved in closed
// form. Every destination pixel is mapped back through it and the source is
// sampled with bilinear interpolation between the four surrounding pixels.
// Source coordinates outside the image are clamped to the nearest edge pixel.
func Warp(src *Gray, quad [4]Point, size int) (*Gray, error) {
	if size < 2 {
		return nil, fmt.Errorf("warp size %d: must be at least 2", size)
	}

	m := squareToQuad(quad)
	dst := NewGray(size, size)
	scale := 1.0 / float64(size-1)

	pos := 0
	for i := 0; i < size; i++ {
		v := float64(i) * scale
		for j := 0; j < size; j++ {
			x, y := m.apply(float64(j)*scale, v)
			dst.Pix[pos] = src.bilinear(x, y)
			pos++
		}
	}

	return dst, nil
}

// bilinear samples the buffer at a real-valued position.
func (g *Gray) bilinear(x, y float64) uint8 {
	maxX := float64(g.Width - 1)
	maxY := float64(g.Height - 1)
	if x < 0 || math.IsNaN(x) {
		x = 0
	} else if x > maxX {
		x = maxX
	}
	if y < 0 || math.IsNaN(y) {
		y = 0
	} else if y > maxY {
		y = maxY
	}

	sx1 := int(x)
	sx2 := sx1 + 1
	if sx1 == g.Width-1 {
		sx2 = sx1
	}
	sy1 := int(y)
	sy2 := sy1 + 1
	if sy1 == g.Height-1 {
		sy2 = sy1
	}

	dx1 := x - float64(sx1)
	dx2 := 1 - dx1
	dy1 := y - float64(sy1)
	dy2 := 1 - dy1

	r1 := g.Pix[sy1*g.Width:]
	r2 := g.Pix[sy2*g.Width:]
	v := dy2*(dx2*float64(r1[sx1])+dx1*float64(r1[sx2])) +
		dy1*(dx2*float64(r2[sx1])+dx1*float64(r2[sx2]))

	return uint8(clamp(int(v+0.5), 0, 255))
}
