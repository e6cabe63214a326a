// Package transform maps between normalized image coordinates and the reference frame for a pinhole camera
// looking along its local +Z axis.
package transform

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/armkin/spatialmath"
)

// DefaultZLen is the depth of the camera's far rectangle when none is set.
const DefaultZLen = 0.05

// Camera is a pinhole camera. Its origin pose's local +Z is the view axis and its local X and Y run along the
// image axes. Image coordinates are normalized to [0,1] on both axes with (0.5, 0.5) on the view axis; the Z
// component of an image point is ignored.
type Camera[T spatialmath.Float] struct {
	ZLen   T
	TanH   T
	TanV   T
	Origin spatialmath.Pose[T]
}

// NewCamera returns a camera with the given half field-of-view tangents whose origin is the given pose turned by
// yaw about its local Z.
func NewCamera[T spatialmath.Float](tanH, tanV T, origin spatialmath.Pose[T], yaw T) (*Camera[T], error) {
	if !(tanH > 0) || !(tanV > 0) {
		return nil, errors.Errorf("camera field of view tangents must be positive, got horizontal=%v vertical=%v", tanH, tanV)
	}
	return &Camera[T]{
		ZLen:   DefaultZLen,
		TanH:   tanH,
		TanV:   tanV,
		Origin: origin.RotateAboutIndex(2, yaw, nil),
	}, nil
}

func inUnitSquare[T spatialmath.Float](uv spatialmath.Vector3[T]) bool {
	return uv.X >= 0 && uv.X <= 1 && uv.Y >= 0 && uv.Y <= 1
}

// ImageToCameraRay returns the point, in camera coordinates, where the ray through image point uv crosses the
// plane z = rayLength. It fails for image points outside [0,1]² or a non-positive rayLength.
func (c *Camera[T]) ImageToCameraRay(uv spatialmath.Vector3[T], rayLength T) (spatialmath.Vector3[T], bool) {
	if !inUnitSquare(uv) || !(rayLength > 0) {
		return spatialmath.NaNVector3[T](), false
	}
	return spatialmath.Vector3[T]{
		X: (2*uv.X - 1) * rayLength * c.TanH,
		Y: (2*uv.Y - 1) * rayLength * c.TanV,
		Z: rayLength,
	}, true
}

// ImageToCameraRayDefault is ImageToCameraRay at the camera's ZLen.
func (c *Camera[T]) ImageToCameraRayDefault(uv spatialmath.Vector3[T]) (spatialmath.Vector3[T], bool) {
	return c.ImageToCameraRay(uv, c.ZLen)
}

// ImageToWorldOnPlane returns the reference frame point where the ray through uv meets the plane whose local Z is
// its normal. It fails when uv is outside the image, the ray is parallel to the plane, or the plane is behind the
// camera.
func (c *Camera[T]) ImageToWorldOnPlane(uv spatialmath.Vector3[T], plane spatialmath.Pose[T]) (spatialmath.Vector3[T], bool) {
	ray, ok := c.ImageToCameraRayDefault(uv)
	if !ok {
		return spatialmath.NaNVector3[T](), false
	}
	d := c.Origin.ProjectionDistance(ray, plane, spatialmath.UnitZ[T]())
	if math.IsInf(float64(d), 0) || d < 0 {
		return spatialmath.NaNVector3[T](), false
	}
	return c.Origin.TransformPoint(ray.Mul(d), nil), true
}

// ImagesToWorldOnPlane projects every image point onto the plane. It stops at the first failure; points from
// that index on are left NaN.
func (c *Camera[T]) ImagesToWorldOnPlane(uvs []spatialmath.Vector3[T], plane spatialmath.Pose[T]) ([]spatialmath.Vector3[T], bool) {
	out := lo.Times(len(uvs), func(int) spatialmath.Vector3[T] { return spatialmath.NaNVector3[T]() })
	for i, uv := range uvs {
		p, ok := c.ImageToWorldOnPlane(uv, plane)
		if !ok {
			return out, false
		}
		out[i] = p
	}
	return out, true
}

// WorldToImage returns the image coordinates of reference frame point p, with Z set to 0. It fails for points
// behind the camera or outside the field of view.
func (c *Camera[T]) WorldToImage(p spatialmath.Vector3[T]) (spatialmath.Vector3[T], bool) {
	unitZ := spatialmath.UnitZ[T]()
	imagePlane := c.Origin.Compose(spatialmath.NewPoseFromPoint(unitZ))
	v := c.Origin.Orientation.Conj().Rotate(p.Sub(c.Origin.Point), false)

	d := c.Origin.ProjectionDistance(v, imagePlane, unitZ)
	if math.IsInf(float64(d), 0) || d < 0 {
		return spatialmath.NaNVector3[T](), false
	}

	v = v.Mul(d)
	x, y := v.X/c.TanH, v.Y/c.TanV
	if x > 1 || x < -1 || y > 1 || y < -1 {
		return spatialmath.NaNVector3[T](), false
	}
	return spatialmath.Vector3[T]{X: (x + 1) / 2, Y: (y + 1) / 2}, true
}

// WorldsToImage projects every point into the image. It stops at the first failure; points from that index on
// are left NaN.
func (c *Camera[T]) WorldsToImage(points []spatialmath.Vector3[T]) ([]spatialmath.Vector3[T], bool) {
	out := lo.Times(len(points), func(int) spatialmath.Vector3[T] { return spatialmath.NaNVector3[T]() })
	for i, p := range points {
		uv, ok := c.WorldToImage(p)
		if !ok {
			return out, false
		}
		out[i] = uv
	}
	return out, true
}

// CoordinateFromTwoImagePoints builds a frame on the plane from two image points: the origin is the midpoint of
// their projections, X points from the midpoint toward the second point, and Z is the plane normal flipped if
// needed to face the same way as the view axis.
func (c *Camera[T]) CoordinateFromTwoImagePoints(
	p1, p2 spatialmath.Vector3[T],
	plane spatialmath.Pose[T],
) (spatialmath.Pose[T], bool) {
	fail := spatialmath.Pose[T]{Point: spatialmath.NaNVector3[T](), Orientation: spatialmath.NewIdentityQuaternion[T]()}
	if p1.AlmostEqual(p2) {
		return fail, false
	}
	w1, ok := c.ImageToWorldOnPlane(p1, plane)
	if !ok {
		return fail, false
	}
	w2, ok := c.ImageToWorldOnPlane(p2, plane)
	if !ok {
		return fail, false
	}

	mid := w1.Add(w2).Div(2)
	dx := w2.Sub(mid)
	if dx.Norm() <= spatialmath.Epsilon[T]() {
		return fail, false
	}
	x := dx.Normalize()

	unitZ := spatialmath.UnitZ[T]()
	z := plane.Orientation.Rotate(unitZ, false)
	if z.Dot(c.Origin.Orientation.Rotate(unitZ, false)) < 0 {
		z = z.Neg()
	}
	y := z.Cross(x)

	return spatialmath.NewPose(mid, spatialmath.NewQuaternionFromRotationMatrix(spatialmath.RotationMatrix[T]{x, y, z})), true
}

// FrustumCorners returns the four corners of the far rectangle at depth ZLen, in reference frame coordinates,
// in image order (0,0), (1,0), (1,1), (0,1).
func (c *Camera[T]) FrustumCorners() [4]spatialmath.Vector3[T] {
	var out [4]spatialmath.Vector3[T]
	for i, uv := range imageCorners[T]() {
		ray, _ := c.ImageToCameraRayDefault(uv)
		out[i] = c.Origin.TransformPoint(ray, nil)
	}
	return out
}

// ImageCornersOnPlane projects the image corners onto the plane in the same order as FrustumCorners. Corners that
// cannot be projected are NaN and ok is false.
func (c *Camera[T]) ImageCornersOnPlane(plane spatialmath.Pose[T]) ([4]spatialmath.Vector3[T], bool) {
	var out [4]spatialmath.Vector3[T]
	allOK := true
	for i, uv := range imageCorners[T]() {
		p, ok := c.ImageToWorldOnPlane(uv, plane)
		out[i] = p
		allOK = allOK && ok
	}
	return out, allOK
}

func imageCorners[T spatialmath.Float]() [4]spatialmath.Vector3[T] {
	return [4]spatialmath.Vector3[T]{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

// PixelToImage normalizes a pixel position in an image of the given size to image coordinates.
func PixelToImage[T spatialmath.Float](px r2.Point, width, height int) spatialmath.Vector3[T] {
	return spatialmath.Vector3[T]{X: T(px.X / float64(width)), Y: T(px.Y / float64(height))}
}

// ImageToPixel converts image coordinates to a pixel position in an image of the given size.
func ImageToPixel[T spatialmath.Float](uv spatialmath.Vector3[T], width, height int) r2.Point {
	return r2.Point{X: float64(uv.X) * float64(width), Y: float64(uv.Y) * float64(height)}
}
