package imaging

import (
	"errors"
	"math"
	"testing"
)

// boxReference computes a separable clamped box average in floating point.
func boxReference(src *Gray, k int) []float64 {
	w, h := src.Width, src.Height
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for d := -k; d <= k; d++ {
				s += float64(src.At(clamp(x+d, 0, w-1), y))
			}
			tmp[y*w+x] = s / float64(2*k+1)
		}
	}

	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s := 0.0
			for d := -k; d <= k; d++ {
				s += tmp[clamp(y+d, 0, h-1)*w+x]
			}
			out[y*w+x] = s / float64(2*k+1)
		}
	}
	return out
}

func TestStackBoxBlur_UniformUnchanged(t *testing.T) {
	for _, v := range []uint8{0, 1, 128, 254, 255} {
		src := NewGray(23, 17)
		for i := range src.Pix {
			src.Pix[i] = v
		}

		for k := 0; k <= MaxBlurKernel; k++ {
			dst, err := StackBoxBlur(src, k)
			if err != nil {
				t.Fatalf("k=%d: %v", k, err)
			}
			for i, got := range dst.Pix {
				if got != v {
					t.Fatalf("value %d, k=%d: pixel %d = %d", v, k, i, got)
				}
			}
		}
	}
}

func TestStackBoxBlur_MatchesBoxAverage(t *testing.T) {
	src := createGradientGray(31, 19)
	// Add a few hard edges on top of the gradient.
	for y := 5; y < 12; y++ {
		for x := 8; x < 20; x++ {
			src.Set(x, y, 0)
		}
	}

	for _, k := range []int{1, 2, 3, 7, 15} {
		dst, err := StackBoxBlur(src, k)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		ref := boxReference(src, k)
		for i, got := range dst.Pix {
			if math.Abs(float64(got)-ref[i]) > 2 {
				t.Fatalf("k=%d: pixel (%d,%d) = %d, reference %.2f",
					k, i%src.Width, i/src.Width, got, ref[i])
			}
		}
	}
}

func TestStackBoxBlur_ZeroKernelCopies(t *testing.T) {
	src := createGradientGray(9, 7)
	dst, err := StackBoxBlur(src, 0)
	if err != nil {
		t.Fatalf("StackBoxBlur failed: %v", err)
	}

	for i := range src.Pix {
		if dst.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel %d: got %d, want %d", i, dst.Pix[i], src.Pix[i])
		}
	}

	dst.Pix[0] ^= 0xff
	if dst.Pix[0] == src.Pix[0] {
		t.Error("result shares storage with the source")
	}
}

func TestStackBoxBlur_KernelLargerThanImage(t *testing.T) {
	src := NewGray(3, 2)
	src.Set(0, 0, 255)

	dst, err := StackBoxBlur(src, MaxBlurKernel)
	if err != nil {
		t.Fatalf("StackBoxBlur failed: %v", err)
	}
	if dst.Width != 3 || dst.Height != 2 {
		t.Fatalf("dimensions: got %dx%d, want 3x2", dst.Width, dst.Height)
	}
}

func TestStackBoxBlur_InvalidKernel(t *testing.T) {
	src := NewGray(4, 4)
	for _, k := range []int{-1, MaxBlurKernel + 1, 100} {
		if _, err := StackBoxBlur(src, k); !errors.Is(err, ErrKernelSize) {
			t.Errorf("k=%d: got %v, want ErrKernelSize", k, err)
		}
	}
}
