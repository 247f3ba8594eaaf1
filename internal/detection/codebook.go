package detection

import (
	"fmt"
	"image"
	"image/color"
)

// Marker grid geometry: a 7x7 grid of cells whose outer ring is always
// black, leaving a 5x5 data area.
const (
	GridCells = 7
	DataCells = 5

	// MaxID is the largest encodable marker ID (two bits per data row).
	MaxID = 1<<(2*DataCells) - 1
)

// Bits is the 5x5 data area of a marker, row-major. 1 is a white cell.
type Bits [DataCells][DataCells]uint8

// codebook holds the only valid data rows. Row i encodes the two-bit value
// i in its columns 1 and 3; the other columns add redundancy so the four
// rotations of any valid marker are distinguishable.
var codebook = [4][DataCells]uint8{
	{1, 0, 0, 0, 0},
	{1, 0, 1, 1, 1},
	{0, 1, 0, 0, 1},
	{0, 1, 1, 1, 0},
}

// EncodeBits returns the data cells of the marker with the given ID.
//
// Row r carries bits 2*(4-r)+1 and 2*(4-r) of id, most significant row
// first, as the codebook row with that two-bit value.
func EncodeBits(id int) (Bits, error) {
	var b Bits
	if id < 0 || id > MaxID {
		return b, fmt.Errorf("marker id %d: must be in 0..%d", id, MaxID)
	}
	for r := 0; r < DataCells; r++ {
		v := (id >> (2 * (DataCells - 1 - r))) & 3
		b[r] = codebook[v]
	}
	return b, nil
}

// ID reads the marker ID from columns 1 and 3 of each row. It does not
// check the rows against the codebook.
func (b Bits) ID() int {
	id := 0
	for r := 0; r < DataCells; r++ {
		id = id<<1 | int(b[r][1])
		id = id<<1 | int(b[r][3])
	}
	return id
}

// rotate turns the matrix a quarter turn clockwise.
func (b Bits) rotate() Bits {
	var dst Bits
	for i := 0; i < DataCells; i++ {
		for j := 0; j < DataCells; j++ {
			dst[i][j] = b[DataCells-1-j][i]
		}
	}
	return dst
}

// hammingDistance sums, over the rows, the number of cells by which each row
// differs from its closest codebook row.
func (b Bits) hammingDistance() int {
	dist := 0
	for _, row := range b {
		best := DataCells
		for _, code := range codebook {
			n := 0
			for k := range row {
				if row[k] != code[k] {
					n++
				}
			}
			if n < best {
				best = n
			}
		}
		dist += best
	}
	return dist
}

// Render draws the marker with the given ID as a grayscale image of
// 7x7 cells, each cellSize pixels square. Black border, black cells for 0
// bits, white cells for 1 bits.
func Render(id, cellSize int) (*image.Gray, error) {
	if cellSize < 1 {
		return nil, fmt.Errorf("cell size %d: must be at least 1", cellSize)
	}
	bits, err := EncodeBits(id)
	if err != nil {
		return nil, err
	}

	side := GridCells * cellSize
	img := image.NewGray(image.Rect(0, 0, side, side))
	for r := 0; r < DataCells; r++ {
		for c := 0; c < DataCells; c++ {
			if bits[r][c] == 0 {
				continue
			}
			x0 := (c + 1) * cellSize
			y0 := (r + 1) * cellSize
			for y := y0; y < y0+cellSize; y++ {
				for x := x0; x < x0+cellSize; x++ {
					img.SetGray(x, y, color.Gray{Y: 255})
				}
			}
		}
	}
	return img, nil
}
