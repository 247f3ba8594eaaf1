package detection

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotate returns a copy of img with each marker outlined, its first corner
// marked with a filled square and its ID printed beside that corner.
//
// Each ID gets its own hue so overlapping markers stay distinguishable.
// Corner coordinates are taken relative to img.Bounds().Min, as returned by
// Detect. The result always has its origin at (0,0).
func Annotate(img image.Image, markers []Marker) *image.NRGBA {
	dst := imaging.Clone(img)

	for _, m := range markers {
		c := markerColor(m.ID)
		for i := range m.Corners {
			a := m.Corners[i]
			b := m.Corners[(i+1)%len(m.Corners)]
			drawLine(dst, int(math.Round(a.X)), int(math.Round(a.Y)), int(math.Round(b.X)), int(math.Round(b.Y)), c)
		}

		x0 := int(math.Round(m.Corners[0].X))
		y0 := int(math.Round(m.Corners[0].Y))
		for dy := -2; dy <= 2; dy++ {
			for dx := -2; dx <= 2; dx++ {
				dst.Set(x0+dx, y0+dy, c)
			}
		}
		drawLabel(dst, x0+4, y0+4, strconv.Itoa(m.ID), color.NRGBA{255, 255, 255, 255}, c)
	}

	return dst
}

// markerColor spreads IDs around the hue circle with a golden-angle step.
func markerColor(id int) color.NRGBA {
	hue := math.Mod(float64(id)*137.508, 360)
	r, g, b := colorful.Hsv(hue, 0.9, 0.95).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// drawLine draws a one-pixel line with Bresenham's algorithm. Points outside
// the image are skipped.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		img.SetNRGBA(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawLabel draws text with its top-left corner at (x, y) on a filled
// background box.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	face := basicfont.Face7x13
	box := image.Rect(x-1, y-1, x+font.MeasureString(face, text).Ceil()+1, y+face.Height)
	draw.Draw(img, box, image.NewUniform(bg), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}
