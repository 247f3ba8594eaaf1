package imaging

import (
	"math"
	"testing"
)

func TestWarp_AxisAlignedIdentity(t *testing.T) {
	src := createGradientGray(16, 16)
	quad := [4]Point{{X: 0, Y: 0}, {X: 8, Y: 0}, {X: 8, Y: 8}, {X: 0, Y: 8}}

	dst, err := Warp(src, quad, 9)
	if err != nil {
		t.Fatalf("Warp failed: %v", err)
	}

	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			if dst.At(x, y) != src.At(x, y) {
				t.Errorf("pixel (%d,%d): got %d, want %d", x, y, dst.At(x, y), src.At(x, y))
			}
		}
	}
}

func TestWarp_Offset(t *testing.T) {
	src := createGradientGray(32, 32)
	quad := [4]Point{{X: 10, Y: 6}, {X: 14, Y: 6}, {X: 14, Y: 10}, {X: 10, Y: 10}}

	dst, err := Warp(src, quad, 5)
	if err != nil {
		t.Fatalf("Warp failed: %v", err)
	}

	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if dst.At(x, y) != src.At(x+10, y+6) {
				t.Errorf("pixel (%d,%d): got %d, want %d", x, y, dst.At(x, y), src.At(x+10, y+6))
			}
		}
	}
}

func TestWarp_CornerOrder(t *testing.T) {
	src := NewGray(20, 20)
	src.Set(2, 3, 10)
	src.Set(17, 1, 20)
	src.Set(15, 16, 30)
	src.Set(4, 18, 40)

	quad := [4]Point{{X: 2, Y: 3}, {X: 17, Y: 1}, {X: 15, Y: 16}, {X: 4, Y: 18}}
	dst, err := Warp(src, quad, 11)
	if err != nil {
		t.Fatalf("Warp failed: %v", err)
	}

	corners := []struct {
		x, y int
		want uint8
	}{
		{0, 0, 10},
		{10, 0, 20},
		{10, 10, 30},
		{0, 10, 40},
	}
	for _, c := range corners {
		got := int(dst.At(c.x, c.y))
		if got < int(c.want)-1 || got > int(c.want) {
			t.Errorf("corner (%d,%d): got %d, want %d", c.x, c.y, got, c.want)
		}
	}
}

func TestSquareToQuad_MapsCorners(t *testing.T) {
	tests := []struct {
		name string
		quad [4]Point
	}{
		{"square", [4]Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}}},
		{"parallelogram", [4]Point{{X: 5, Y: 2}, {X: 25, Y: 6}, {X: 30, Y: 26}, {X: 10, Y: 22}}},
		{"trapezoid", [4]Point{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 60, Y: 40}, {X: 0, Y: 40}}},
		{"general", [4]Point{{X: 3.5, Y: 1.25}, {X: 41, Y: 8}, {X: 37.75, Y: 45}, {X: 6, Y: 33}}},
	}

	unit := [4][2]float64{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := squareToQuad(tt.quad)
			for i, uv := range unit {
				x, y := m.apply(uv[0], uv[1])
				if math.Abs(x-tt.quad[i].X) > 1e-9 || math.Abs(y-tt.quad[i].Y) > 1e-9 {
					t.Errorf("corner %d: got (%g,%g), want (%g,%g)", i, x, y, tt.quad[i].X, tt.quad[i].Y)
				}
			}
		})
	}
}

func TestWarp_OutOfBoundsClamped(t *testing.T) {
	src := NewGray(10, 10)
	for i := range src.Pix {
		src.Pix[i] = 200
	}

	quad := [4]Point{{X: -50, Y: -50}, {X: 60, Y: -40}, {X: 70, Y: 80}, {X: -30, Y: 55}}
	dst, err := Warp(src, quad, 21)
	if err != nil {
		t.Fatalf("Warp failed: %v", err)
	}
	for i, v := range dst.Pix {
		if v != 200 {
			t.Fatalf("pixel %d: got %d, want 200", i, v)
		}
	}
}

func TestWarp_InvalidSize(t *testing.T) {
	src := NewGray(10, 10)
	quad := [4]Point{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 9, Y: 9}, {X: 0, Y: 9}}

	for _, size := range []int{-1, 0, 1} {
		if _, err := Warp(src, quad, size); err == nil {
			t.Errorf("size %d: expected error", size)
		}
	}
}

func TestBilinear(t *testing.T) {
	g := &Gray{Width: 2, Height: 2, Pix: []uint8{0, 100, 100, 200}}

	tests := []struct {
		name string
		x, y float64
		want uint8
	}{
		{"top-left", 0, 0, 0},
		{"bottom-right", 1, 1, 200},
		{"centre", 0.5, 0.5, 100},
		{"top edge midpoint", 0.5, 0, 50},
		{"quarter along top edge", 0.25, 0, 25},
		{"centre of left edge", 0, 0.5, 50},
		{"clamped negative", -3, -3, 0},
		{"clamped beyond", 5, 5, 200},
		{"NaN", math.NaN(), math.NaN(), 0},
	}

	for _, tt := range tests {
		if got := g.bilinear(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestBilinear_RoundsToNearest(t *testing.T) {
	g := &Gray{Width: 2, Height: 1, Pix: []uint8{0, 255}}

	tests := []struct {
		x    float64
		want uint8
	}{
		{0.5, 128},
		{0.499, 127},
		{1 - 1e-12, 255},
		{1.0 / 3, 85},
	}
	for _, tt := range tests {
		if got := g.bilinear(tt.x, 0); got != tt.want {
			t.Errorf("x=%g: got %d, want %d", tt.x, got, tt.want)
		}
	}
}
