package imaging

import (
	"errors"
	"fmt"
)

// MaxBlurKernel is the largest kernel radius supported by StackBoxBlur.
const MaxBlurKernel = 15

// ErrKernelSize is returned when a blur radius falls outside 0..MaxBlurKernel.
var ErrKernelSize = errors.New("kernel size out of range")

// Integer approximations of 1/(2k+1) for each kernel radius k: the window
// average is (sum * blurMul[k]) >> blurShift[k].
var (
	blurMul   = [MaxBlurKernel + 1]int{1, 171, 205, 293, 57, 373, 79, 137, 241, 27, 391, 357, 41, 19, 283, 265}
	blurShift = [MaxBlurKernel + 1]uint{0, 9, 10, 11, 9, 12, 10, 11, 12, 9, 13, 13, 10, 9, 13, 13}
)

// StackBoxBlur smooths a grayscale buffer with a (2k+1)x(2k+1) box filter.
//
// Parameters:
//   - src: Source buffer. It is not modified.
//   - kernelSize: Radius k of the box, 0 to MaxBlurKernel. A radius of 0
//     returns a copy of src.
//
// Returns:
//   - *Gray: The blurred buffer, same dimensions as src.
//   - error: ErrKernelSize if kernelSize is out of range.
//
// # Algorithm
//
// The filter is separable and runs as a horizontal pass followed by a vertical
// pass. Each pass slides a window of 2k+1 samples along the row (or column)
// keeping a running sum; a circular "stack" remembers the samples currently in
// the window so the outgoing one can be subtracted in O(1). Division by the
// window size is replaced by a multiply and shift from a precomputed table.
//
// Pixels beyond the first and last row/column are replicated from the edge
// (clamped), never wrapped.
func StackBoxBlur(src *Gray, kernelSize int) (*Gray, error) {
	if kernelSize < 0 || kernelSize > MaxBlurKernel {
		return nil, fmt.Errorf("stack blur radius %d: %w", kernelSize, ErrKernelSize)
	}

	width, height := src.Width, src.Height
	horizontal := NewGray(width, height)
	dst := NewGray(width, height)
	if width == 0 || height == 0 {
		return dst, nil
	}

	size := 2*kernelSize + 1
	radius := kernelSize + 1
	mul := blurMul[kernelSize]
	shift := blurShift[kernelSize]
	stack := make([]int, size)

	for y := 0; y < height; y++ {
		row := src.Pix[y*width : (y+1)*width]
		out := horizontal.Pix[y*width : (y+1)*width]
		blurLine(row, out, 1, width, stack, radius, mul, shift)
	}

	for x := 0; x < width; x++ {
		blurLine(horizontal.Pix[x:], dst.Pix[x:], width, height, stack, radius, mul, shift)
	}

	return dst, nil
}

// blurLine runs one moving-average pass over n samples spaced step apart.
// in and out start at the first sample of the line.
func blurLine(in, out []uint8, step, n int, stack []int, radius, mul int, shift uint) {
	last := n - 1

	first := int(in[0])
	sum := radius * first
	sp := 0
	for i := 0; i < radius; i++ {
		stack[sp] = first
		sp++
	}
	for i := 1; i < radius; i++ {
		v := int(in[clamp(i, 0, last)*step])
		stack[sp] = v
		sum += v
		sp++
	}

	sp = 0
	for i := 0; i < n; i++ {
		out[i*step] = uint8(clamp((sum*mul)>>shift, 0, 255))

		v := int(in[clamp(i+radius, 0, last)*step])
		sum += v - stack[sp]
		stack[sp] = v
		sp++
		if sp == len(stack) {
			sp = 0
		}
	}
}
