package contour

import "github.com/ironsheep/aruco-mcp/internal/imaging"

// Contour is a closed border traced in a binary image.
type Contour struct {
	// Points are the border pixels in tracing order, in image coordinates.
	Points []imaging.Point `json:"points"`

	// Hole is true when the border separates a foreground region from a
	// background region it encloses (an inner border).
	Hole bool `json:"hole"`
}

// label is the tracing state of one pixel of the padded grid.
//
//	0       background
//	1       foreground not yet reached by any border
//	n >= 2  lies on border n
//	-n      lies on border n and the border leaves it with background on the right
type label int32

const (
	background label = 0
	unvisited  label = 1
)

// neighborhood lists the 8-neighbour offsets in the order E, NE, N, NW, W,
// SW, S, SE. Increasing the index turns counter-clockwise on screen.
var neighborhood = [8][2]int{
	{1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}, {0, 1}, {1, 1},
}

// FindContours traces every outer and hole border of the foreground
// (non-zero) pixels of a binary image.
//
// Parameters:
//   - binary: Buffer whose non-zero samples are foreground. It is not
//     modified.
//
// Returns:
//   - []Contour: Borders in discovery order (row-major scan of their first
//     pixel). An isolated pixel yields a single-point contour.
//
// # Algorithm
//
// This is the Suzuki-Abe border following scheme:
//
//  1. The image is copied into a label grid with a one-pixel background
//     frame, so neighbour lookups never leave the grid.
//  2. The grid is scanned row by row. An unvisited pixel whose left
//     neighbour is background starts an outer border; a foreground pixel not
//     already closed off whose right neighbour is background starts a hole
//     border. Each border gets the next number starting at 2.
//  3. From the start pixel the neighbourhood is searched clockwise for the
//     first foreground pixel. None means the pixel is isolated. Otherwise the
//     border is walked counter-clockwise, one neighbour at a time, until it
//     returns to the start pixel with the same predecessor.
//  4. Each visited pixel is labelled with the border number, negated when
//     the walk passed its background right neighbour, so later scans neither
//     restart the same border nor miss nested ones.
func FindContours(binary *imaging.Gray) []Contour {
	width, height := binary.Width, binary.Height
	stride := width + 2

	grid := make([]label, stride*(height+2))
	for y := 0; y < height; y++ {
		row := binary.Pix[y*width : (y+1)*width]
		dst := grid[(y+1)*stride+1:]
		for x, v := range row {
			if v != 0 {
				dst[x] = unvisited
			}
		}
	}

	// Offsets into grid, repeated so the tracer can step past index 7
	// without wrapping.
	var deltas [16]int
	for i, n := range neighborhood {
		deltas[i] = n[0] + n[1]*stride
		deltas[i+8] = deltas[i]
	}

	var contours []Contour
	nbd := unvisited

	pos := stride + 1
	for y := 0; y < height; y, pos = y+1, pos+2 {
		for x := 0; x < width; x, pos = x+1, pos+1 {
			pix := grid[pos]
			if pix == background {
				continue
			}

			var hole bool
			switch {
			case pix == unvisited && grid[pos-1] == background:
				hole = false
			case pix >= unvisited && grid[pos+1] == background:
				hole = true
			default:
				continue
			}

			nbd++
			contours = append(contours, followBorder(grid, &deltas, pos, nbd, x, y, hole))
		}
	}

	return contours
}

// followBorder walks one border starting at grid index pos, image position
// (x, y), labelling its pixels with nbd.
func followBorder(grid []label, deltas *[16]int, pos int, nbd label, x, y int, hole bool) Contour {
	c := Contour{Hole: hole}

	// Clockwise search for the first neighbour, ending at the direction
	// known to be background (W for outer borders, E for holes).
	s := 4
	if hole {
		s = 0
	}
	end := s
	pos1 := -1
	for {
		s = (s - 1) & 7
		if grid[pos+deltas[s]] != background {
			pos1 = pos + deltas[s]
			break
		}
		if s == end {
			break
		}
	}

	if pos1 < 0 {
		grid[pos] = -nbd
		c.Points = append(c.Points, imaging.Point{X: float64(x), Y: float64(y)})
		return c
	}

	pos3 := pos
	for {
		end = s

		// Counter-clockwise search for the next border pixel, starting
		// just after the direction we arrived from.
		var pos4 int
		for {
			s++
			pos4 = pos3 + deltas[s]
			if grid[pos4] != background {
				break
			}
		}
		s &= 7

		if s != 0 && s <= end {
			// The east neighbour was examined and is background.
			grid[pos3] = -nbd
		} else if grid[pos3] == unvisited {
			grid[pos3] = nbd
		}

		c.Points = append(c.Points, imaging.Point{X: float64(x), Y: float64(y)})
		x += neighborhood[s][0]
		y += neighborhood[s][1]

		if pos4 == pos && pos3 == pos1 {
			break
		}

		pos3 = pos4
		s = (s + 4) & 7
	}

	return c
}
