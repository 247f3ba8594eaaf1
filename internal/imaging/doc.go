// Package imaging provides the low-level image operations of the marker
// pipeline.
//
// Frames are converted once to a single-channel Gray buffer and every later
// stage (blur, thresholding, warping, cell counting) works on that buffer. All
// functions allocate their output; inputs are never modified.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Real-valued positions (Point)
// refer to pixel centres, so the sample at integer (x, y) sits exactly at
// Point{X: x, Y: y}.
//
// # Operations
//
//   - Grayscale / GrayFromRGBA: BT.601 luminance with a +0.5 rounding bias
//   - StackBoxBlur: separable box filter with integer multiply/shift division
//   - AdaptiveThreshold: local-mean binarization robust to uneven lighting
//   - Otsu / Threshold: global binarization for small rectified patches
//   - Warp: projective resampling of a quadrilateral into a square
//   - CountNonZero: foreground pixel count inside a rectangle
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The pure functions are stateless and
// can run concurrently on different or shared (read-only) buffers.
package imaging
