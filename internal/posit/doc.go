// Package posit estimates the 3D pose of a planar four-point model from a
// single image, using the coplanar variant of POSIT (Oberkampf, DeMenthon and
// Davis, "Iterative Pose Estimation using Coplanar Feature Points").
//
// A planar target seen by one camera has two poses that explain its image
// almost equally well, mirror images of each other through the target plane.
// Pose returns both, ranked by reprojection error.
//
// # Coordinate System
//
// Image points are relative to the principal point with Y up; CenterCorners
// converts detected marker corners to that frame. The camera looks along +Z,
// so a pose in front of the camera has positive depth. Translations are in
// the units of the model size.
//
// # Usage
//
//	p, err := posit.New(35, float64(img.Bounds().Dx()))
//	if err != nil {
//	    return err
//	}
//	pose := p.Pose(posit.CenterCorners(marker.Corners, width, height))
//	if pose.Best.Error.Valid() {
//	    yaw, pitch, roll := pose.Best.Angles()
//	}
package posit
