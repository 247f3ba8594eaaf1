package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Gray is a single-channel 8-bit image buffer.
//
// Pixels are stored row-major in Pix, so the sample at (x, y) lives at
// Pix[y*Width+x]. Grayscale buffers hold luminance values 0-255; binary
// buffers produced by the threshold functions hold only 0 and 255.
//
// A Gray is owned by the stage that produced it. Later stages read it and
// allocate their own output instead of writing back into it.
type Gray struct {
	// Width is the number of columns in pixels.
	Width int

	// Height is the number of rows in pixels.
	Height int

	// Pix holds Width*Height samples in row-major order.
	Pix []uint8
}

// NewGray allocates a zeroed (black) buffer of the given dimensions.
func NewGray(width, height int) *Gray {
	return &Gray{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the sample at (x, y). No bounds checking is performed.
func (g *Gray) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Set stores v at (x, y). No bounds checking is performed.
func (g *Gray) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// Bounds returns the buffer extent as an image.Rectangle anchored at (0,0).
func (g *Gray) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.Width, g.Height)
}

// Image copies the buffer into a standard library *image.Gray so it can be
// encoded or composed with other image.Image values.
func (g *Gray) Image() *image.Gray {
	img := image.NewGray(g.Bounds())
	copy(img.Pix, g.Pix)
	return img
}

// Grayscale converts an image to an 8-bit luminance buffer.
//
// The source is first normalized to non-premultiplied RGBA, then each pixel is
// converted with the ITU-R BT.601 weights plus a rounding bias:
//
//	Y = 0.299*R + 0.587*G + 0.114*B + 0.5
//
// and truncated to an integer in 0-255. The output has the same dimensions as
// the input; its origin is always (0,0) regardless of img.Bounds().Min.
func Grayscale(img image.Image) *Gray {
	src := imaging.Clone(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	return lumaFromRGBA(w, h, src.Pix, src.Stride)
}

// GrayFromRGBA converts a raw, tightly packed RGBA buffer (4 bytes per pixel,
// non-premultiplied, row-major) to luminance. This is the entry point for
// frames that arrive as plain byte slices from a capture device.
//
// Returns an error if pix does not hold exactly width*height*4 bytes.
func GrayFromRGBA(width, height int, pix []uint8) (*Gray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("frame buffer holds %d bytes, want %d for %dx%d RGBA",
			len(pix), width*height*4, width, height)
	}
	return lumaFromRGBA(width, height, pix, width*4), nil
}

func lumaFromRGBA(width, height int, pix []uint8, stride int) *Gray {
	dst := NewGray(width, height)
	j := 0
	for y := 0; y < height; y++ {
		row := pix[y*stride : y*stride+width*4]
		for i := 0; i < len(row); i += 4 {
			v := float64(row[i])*0.299 + float64(row[i+1])*0.587 + float64(row[i+2])*0.114 + 0.5
			dst.Pix[j] = uint8(clamp(int(v), 0, 255))
			j++
		}
	}
	return dst
}

// clamp constrains an integer value to the range [min, max].
// Used for edge replication in the blur and for sample coordinates in Warp.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
