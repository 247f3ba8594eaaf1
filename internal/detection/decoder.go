package detection

import (
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

// Marker is a decoded marker.
type Marker struct {
	// ID is the marker number, 0 to MaxID.
	ID int `json:"id"`

	// Corners are the outline corners in image coordinates, clockwise,
	// starting at the corner that is top-left in the marker's own
	// orientation.
	Corners [4]imaging.Point `json:"corners"`
}

// errNotMarker wraps every reason a candidate fails to decode. It never
// leaves the package: rejected candidates are simply absent from the result.
var errNotMarker = errors.New("not a marker")

// decode rectifies the candidate quad of gray and reads a marker from it.
//
// # Algorithm
//
//  1. Warp the quad to a warpSize x warpSize square and binarize it with
//     Otsu's threshold.
//  2. Split the square into 7x7 cells. Every cell of the outer ring must be
//     mostly black.
//  3. Read the inner 5x5 cells as bits (mostly white = 1).
//  4. Try the four quarter-turn rotations of the bits; the first one whose
//     rows all match codebook rows exactly fixes the orientation.
//  5. Read the ID from that rotation and shift the corners so Corners[0] is
//     the marker's own top-left corner.
func decode(gray *imaging.Gray, c Candidate, warpSize int) (Marker, error) {
	warped, err := imaging.Warp(gray, c, warpSize)
	if err != nil {
		return Marker{}, err
	}
	bin := imaging.Threshold(warped, imaging.Otsu(warped))

	bits, err := readBits(bin)
	if err != nil {
		return Marker{}, err
	}

	var rotations [4]Bits
	rotations[0] = bits
	best, rot := bits.hammingDistance(), 0
	for i := 1; i < 4; i++ {
		rotations[i] = rotations[i-1].rotate()
		if d := rotations[i].hammingDistance(); d < best {
			best, rot = d, i
		}
	}
	if best != 0 {
		return Marker{}, fmt.Errorf("%w: hamming distance %d", errNotMarker, best)
	}

	m := Marker{ID: rotations[rot].ID()}
	for i := range m.Corners {
		m.Corners[i] = c[(4-rot+i)%4]
	}
	return m, nil
}

// readBits checks the black border of a binarized, rectified marker and
// returns its data cells.
func readBits(bin *imaging.Gray) (Bits, error) {
	var bits Bits
	cell := bin.Width / GridCells
	half := cell * cell / 2

	cellRect := func(col, row int) image.Rectangle {
		return image.Rect(col*cell, row*cell, (col+1)*cell, (row+1)*cell)
	}

	for row := 0; row < GridCells; row++ {
		step := GridCells - 1
		if row == 0 || row == GridCells-1 {
			step = 1
		}
		for col := 0; col < GridCells; col += step {
			if n := imaging.CountNonZero(bin, cellRect(col, row)); n > half {
				return bits, fmt.Errorf("%w: border cell (%d,%d) has %d white pixels", errNotMarker, col, row, n)
			}
		}
	}

	for row := 0; row < DataCells; row++ {
		for col := 0; col < DataCells; col++ {
			if imaging.CountNonZero(bin, cellRect(col+1, row+1)) > half {
				bits[row][col] = 1
			}
		}
	}
	return bits, nil
}
