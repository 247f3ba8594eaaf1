// Package detection finds square fiducial markers in images and decodes
// their IDs.
//
// A marker is a 7x7 grid of black and white cells. The outer ring of cells is
// always black; each of the five inner rows is one of four codebook patterns
// and carries two bits of the ID, giving IDs 0 to 1023.
//
// # Pipeline
//
//  1. Adaptive threshold of the grayscale frame (imaging.AdaptiveThreshold)
//  2. Border tracing of the binary image (contour.FindContours)
//  3. Candidate selection: long enough borders approximated by convex
//     quadrilaterals with long enough edges, oriented clockwise
//  4. Near-duplicate suppression, keeping the tighter outline
//  5. Decoding: perspective warp to a square, Otsu binarization, border
//     check, bit extraction and rotation search against the codebook
//
// Outlines that fail any step are dropped silently. An empty result is not an
// error.
//
// # Marker Orientation
//
// Marker.Corners are clockwise in image space and start at the corner that is
// top-left when the marker is viewed upright, so Corners follows the marker
// when the image is rotated.
//
// # Coordinate System
//
// Corners use the imaging package convention: origin at the top-left pixel,
// X rightward, Y downward, real-valued.
//
// # Debug Output
//
// The package logs through log/slog at debug level once SetLogger is called.
// Annotate draws detected markers onto a copy of the source image.
package detection
