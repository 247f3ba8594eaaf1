// Package contour extracts borders from binary images and reduces them to
// polygons.
//
// FindContours traces the outer and hole borders of the foreground regions.
// ApproxPolyDP turns each traced border into a polygon, and IsConvex,
// Perimeter and MinEdgeLength are the predicates used to decide whether that
// polygon is a plausible marker outline.
//
// Coordinates follow the imaging package: origin at the top-left pixel, Y
// growing downward.
package contour
