package detection

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/aruco-mcp/internal/contour"
	"github.com/ironsheep/aruco-mcp/internal/imaging"
)

// Config holds the detector tuning parameters.
type Config struct {
	// ThresholdKernel is the box blur radius of the adaptive threshold
	// (0 to imaging.MaxBlurKernel).
	ThresholdKernel int

	// ThresholdDelta is how much darker than its surroundings a pixel must
	// be to count as foreground.
	ThresholdDelta int

	// MinSizeRatio sets the shortest contour considered, in points, as a
	// fraction of the image width.
	MinSizeRatio float64

	// Epsilon sets the polygon approximation tolerance as a fraction of
	// the contour length.
	Epsilon float64

	// MinEdgeLength is the shortest allowed candidate edge, in pixels.
	MinEdgeLength float64

	// MinDistance is the root mean squared corner distance below which two
	// candidates are treated as the same outline.
	MinDistance float64

	// WarpSize is the edge length of the rectified marker image. It should
	// be a multiple of 7.
	WarpSize int

	// Workers bounds how many candidates are decoded concurrently. Values
	// below 2 decode sequentially.
	Workers int
}

// DefaultConfig returns the standard detector parameters.
func DefaultConfig() Config {
	return Config{
		ThresholdKernel: 2,
		ThresholdDelta:  7,
		MinSizeRatio:    0.20,
		Epsilon:         0.05,
		MinEdgeLength:   10,
		MinDistance:     10,
		WarpSize:        49,
		Workers:         1,
	}
}

// Detector finds and decodes markers in frames.
//
// A Detector keeps the intermediate results of its last pass for
// inspection, so one instance must not run Detect from several goroutines
// at once. Separate instances are independent.
type Detector struct {
	cfg Config

	thresholded *imaging.Gray
	contours    []contour.Contour
	candidates  []Candidate
}

// NewDetector returns a detector using cfg.
//
// Returns an error if the threshold kernel is out of range or the warp size
// is too small to hold the 7x7 cell grid.
func NewDetector(cfg Config) (*Detector, error) {
	if cfg.ThresholdKernel < 0 || cfg.ThresholdKernel > imaging.MaxBlurKernel {
		return nil, fmt.Errorf("threshold kernel %d: %w", cfg.ThresholdKernel, imaging.ErrKernelSize)
	}
	if cfg.WarpSize < GridCells {
		return nil, fmt.Errorf("warp size %d: must be at least %d", cfg.WarpSize, GridCells)
	}
	return &Detector{cfg: cfg}, nil
}

// Detect converts img to grayscale and returns the markers found in it.
//
// Parameters:
//   - img: Any image. Coordinates of the returned corners are relative to
//     img.Bounds().Min.
//
// Returns:
//   - []Marker: Decoded markers in candidate order; empty when none are
//     found. Outlines that fail any geometric or code check are omitted.
//   - error: Non-nil only for internal failures, never for a frame without
//     markers.
func (d *Detector) Detect(img image.Image) ([]Marker, error) {
	return d.DetectGray(imaging.Grayscale(img))
}

// DetectGray runs detection on a grayscale buffer.
//
// # Algorithm
//
//  1. Adaptive threshold: dark pixels next to brighter surroundings become
//     foreground.
//  2. Trace every border of the foreground.
//  3. Keep borders long enough to be a marker, approximate them by
//     polygons and retain convex quadrilaterals with long enough edges,
//     oriented clockwise.
//  4. Drop near-duplicate outlines, keeping the tighter one.
//  5. Decode each remaining outline.
func (d *Detector) DetectGray(gray *imaging.Gray) ([]Marker, error) {
	thresholded, err := imaging.AdaptiveThreshold(gray, d.cfg.ThresholdKernel, d.cfg.ThresholdDelta)
	if err != nil {
		return nil, err
	}
	d.thresholded = thresholded
	d.contours = contour.FindContours(thresholded)

	minSize := d.cfg.MinSizeRatio * float64(gray.Width)
	found := findCandidates(d.contours, minSize, d.cfg.Epsilon, d.cfg.MinEdgeLength)
	d.candidates = dedupe(found, d.cfg.MinDistance)

	markers, err := d.decodeAll(gray, d.candidates)
	if err != nil {
		return nil, err
	}

	Logger().Debug("detection pass",
		"contours", len(d.contours),
		"quads", len(found),
		"candidates", len(d.candidates),
		"markers", len(markers))
	return markers, nil
}

// decodeAll decodes candidates, up to cfg.Workers at a time, and returns
// the markers in candidate order.
func (d *Detector) decodeAll(gray *imaging.Gray, candidates []Candidate) ([]Marker, error) {
	decoded := make([]*Marker, len(candidates))

	var g errgroup.Group
	g.SetLimit(max(d.cfg.Workers, 1))
	for i, c := range candidates {
		g.Go(func() error {
			m, err := decode(gray, c, d.cfg.WarpSize)
			if errors.Is(err, errNotMarker) {
				Logger().Debug("candidate rejected", "index", i, "reason", err)
				return nil
			}
			if err != nil {
				return fmt.Errorf("candidate %d: %w", i, err)
			}
			decoded[i] = &m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	markers := make([]Marker, 0, len(candidates))
	for _, m := range decoded {
		if m != nil {
			markers = append(markers, *m)
		}
	}
	return markers, nil
}

// Thresholded returns the binary image of the last pass, or nil before the
// first call to Detect.
func (d *Detector) Thresholded() *imaging.Gray {
	return d.thresholded
}

// Contours returns every border traced in the last pass.
func (d *Detector) Contours() []contour.Contour {
	return d.contours
}

// Candidates returns the deduplicated outlines of the last pass, including
// those that failed to decode.
func (d *Detector) Candidates() []Candidate {
	return d.candidates
}
