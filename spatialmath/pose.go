package spatialmath

import (
	"fmt"
	"math"
)

const parallelRayTolerance = 1e-6

// Pose is a position and orientation expressed in some reference frame. A Pose carries no reference to its
// parent; chains of poses are composed explicitly with Compose.
type Pose[T Float] struct {
	Point       Vector3[T]    `json:"point"`
	Orientation Quaternion[T] `json:"orientation"`
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose[T Float]() Pose[T] {
	return Pose[T]{Orientation: NewIdentityQuaternion[T]()}
}

// NewPose returns a pose from a point and an orientation.
func NewPose[T Float](p Vector3[T], q Quaternion[T]) Pose[T] {
	return Pose[T]{Point: p, Orientation: q}
}

// NewPoseFromPoint returns a pose at p with no rotation.
func NewPoseFromPoint[T Float](p Vector3[T]) Pose[T] {
	return Pose[T]{Point: p, Orientation: NewIdentityQuaternion[T]()}
}

// Compose returns a*b where b is expressed in a's frame. Composition associates left to right.
func (a Pose[T]) Compose(b Pose[T]) Pose[T] {
	return Pose[T]{
		Point:       a.Point.Add(a.Orientation.Rotate(b.Point, false)),
		Orientation: a.Orientation.Mul(b.Orientation),
	}
}

// Between returns the pose r, expressed in b's frame, such that b.Compose(r) is a.
func (a Pose[T]) Between(b Pose[T]) Pose[T] {
	inv := b.Orientation.Conj()
	return Pose[T]{
		Point:       inv.Rotate(a.Point.Sub(b.Point), false),
		Orientation: inv.Mul(a.Orientation),
	}
}

// Rotate rotates the pose by angle radians about axis. With a nil pivot the axis is in the pose's own frame and
// the position is unchanged. Otherwise the axis is in the pivot's frame and the pose keeps its offset relative to
// the pivot while the pivot turns.
func (a Pose[T]) Rotate(axis Vector3[T], angle T, pivot *Pose[T]) Pose[T] {
	r := NewQuaternionFromAxisAngle(axis, angle)
	if pivot == nil {
		return Pose[T]{Point: a.Point, Orientation: a.Orientation.Mul(r)}
	}
	rel := a.Between(*pivot)
	turned := Pose[T]{Point: pivot.Point, Orientation: pivot.Orientation.Mul(r)}
	return turned.Compose(rel)
}

// RotateAboutIndex is Rotate about basis axis 0 (X), 1 (Y) or 2 (Z). Any other index panics.
func (a Pose[T]) RotateAboutIndex(i int, angle T, pivot *Pose[T]) Pose[T] {
	return a.Rotate(Basis[T](i), angle, pivot)
}

// TransformPoint maps a point expressed in a's frame into target's frame. A nil target is the reference frame.
func (a Pose[T]) TransformPoint(p Vector3[T], target *Pose[T]) Vector3[T] {
	world := a.Point.Add(a.Orientation.Rotate(p, false))
	if target == nil {
		return world
	}
	return target.Orientation.Conj().Rotate(world.Sub(target.Point), false)
}

// TransformVector maps a free vector expressed in a's frame into target's frame. Translation is ignored.
func (a Pose[T]) TransformVector(v Vector3[T], target *Pose[T]) Vector3[T] {
	world := a.Orientation.Rotate(v, false)
	if target == nil {
		return world
	}
	return target.Orientation.Conj().Rotate(world, false)
}

// Surface returns a plane pose at a's position whose local Z is normal (given in a's frame), then turned by yaw
// about that normal. A zero-length normal panics.
func (a Pose[T]) Surface(normal Vector3[T], yaw T) Pose[T] {
	n := normal.Norm()
	if n <= Epsilon[T]() {
		panic("cannot build surface from zero-length normal")
	}
	z := UnitZ[T]()
	axis := z.Cross(normal)
	cosTheta := math.Max(-1, math.Min(1, float64(z.Dot(normal)/n)))

	ret := a
	switch {
	case axis.Norm() > Epsilon[T]():
		ret.Orientation = ret.Orientation.Mul(NewQuaternionFromAxisAngle(axis, T(math.Acos(cosTheta))))
	case cosTheta < 0:
		ret.Orientation = ret.Orientation.Mul(NewQuaternionFromAxisAngle(UnitX[T](), math.Pi))
	}
	if yaw != 0 {
		ret.Orientation = ret.Orientation.Mul(NewQuaternionFromEuler(0, 0, yaw))
	}
	return ret
}

// ProjectionDistance returns the scale d such that a.Point + d*ray (ray in a's frame) lies on the plane through
// plane.Point with the given normal (in plane's frame). A ray parallel to the plane yields +Inf; a negative result
// means the plane is behind the ray.
func (a Pose[T]) ProjectionDistance(ray Vector3[T], plane Pose[T], normal Vector3[T]) T {
	n := plane.TransformVector(normal, nil)
	r := a.TransformVector(ray, nil)
	den := r.Dot(n)
	if math.Abs(float64(den)) <= parallelRayTolerance {
		return T(math.Inf(1))
	}
	return plane.Point.Sub(a.Point).Dot(n) / den
}

// AlmostEqual reports whether the positions and the orientation components match within Epsilon.
func (a Pose[T]) AlmostEqual(b Pose[T]) bool {
	return a.Point.AlmostEqual(b.Point) && a.Orientation.AlmostEqual(b.Orientation)
}

// SameLocation reports whether the positions match and the orientations encode the same rotation.
func (a Pose[T]) SameLocation(b Pose[T], tol T) bool {
	return a.Point.AlmostEqualTol(b.Point, tol) && a.Orientation.SameRotationTol(b.Orientation, tol)
}

// IsValid reports whether every component is finite.
func (a Pose[T]) IsValid() bool {
	return a.Point.IsValid() && a.Orientation.IsValid()
}

func (a Pose[T]) String() string {
	rpy := a.Orientation.EulerAngles().Mul(180 / math.Pi)
	return fmt.Sprintf("pos[m]=%v rpy[deg]=%v", a.Point, rpy)
}
