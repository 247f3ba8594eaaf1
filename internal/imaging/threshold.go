package imaging

import "image"

// AdaptiveThreshold binarizes a grayscale buffer against its local mean.
//
// Parameters:
//   - src: Grayscale source buffer.
//   - kernelSize: Radius of the box blur used as the local mean (0-15).
//   - delta: How much darker than its neighbourhood a pixel must be to count
//     as foreground.
//
// Returns:
//   - *Gray: Binary buffer where 255 marks pixels with src-mean <= -delta and 0
//     marks everything else.
//   - error: ErrKernelSize if kernelSize is out of range.
//
// Dark ink next to bright paper becomes foreground while large uniform areas,
// bright or dark, become background. This makes the result insensitive to
// uneven illumination across the frame.
func AdaptiveThreshold(src *Gray, kernelSize, delta int) (*Gray, error) {
	mean, err := StackBoxBlur(src, kernelSize)
	if err != nil {
		return nil, err
	}

	// Indexed by src-mean+255.
	var tab [768]uint8
	for i := range tab {
		if i-255 <= -delta {
			tab[i] = 255
		}
	}

	dst := NewGray(src.Width, src.Height)
	for i, v := range src.Pix {
		dst.Pix[i] = tab[int(v)-int(mean.Pix[i])+255]
	}
	return dst, nil
}

// Otsu computes the global threshold that best separates a buffer into two
// classes.
//
// # Algorithm
//
// A 256-bin histogram is built and every candidate threshold t is scanned in
// increasing order. Pixels <= t form the background class B, the rest the
// foreground class F. With class weights wB, wF (pixel counts) and means μB,
// μF, the between-class variance is
//
//	σ² = wB * wF * (μB - μF)²
//
// The first t reaching the maximum σ² is returned. A buffer with a single
// intensity returns 0.
func Otsu(src *Gray) int {
	var hist [256]int
	for _, v := range src.Pix {
		hist[v]++
	}

	total := len(src.Pix)
	sum := 0.0
	for i, n := range hist {
		sum += float64(i * n)
	}

	threshold := 0
	var sumB, max float64
	wB := 0
	for i, n := range hist {
		wB += n
		if wB == 0 {
			continue
		}
		wF := total - wB
		if wF == 0 {
			break
		}

		sumB += float64(i * n)
		mu := sumB/float64(wB) - (sum-sumB)/float64(wF)
		between := float64(wB) * float64(wF) * mu * mu

		if between > max {
			max = between
			threshold = i
		}
	}

	return threshold
}

// Threshold binarizes a buffer with a fixed cut: samples <= t become 0 and
// samples above t become 255.
func Threshold(src *Gray, t int) *Gray {
	var tab [256]uint8
	for i := range tab {
		if i > t {
			tab[i] = 255
		}
	}

	dst := NewGray(src.Width, src.Height)
	for i, v := range src.Pix {
		dst.Pix[i] = tab[v]
	}
	return dst
}

// CountNonZero counts the non-zero samples inside r. The rectangle is clipped
// to the buffer, so callers may pass cells that overhang the edge.
func CountNonZero(src *Gray, r image.Rectangle) int {
	r = r.Intersect(src.Bounds())
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := src.Pix[y*src.Width+r.Min.X : y*src.Width+r.Max.X]
		for _, v := range row {
			if v != 0 {
				n++
			}
		}
	}
	return n
}
