package spatialmath

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

const (
	// normalization below this norm is treated as a degenerate input.
	minQuaternionNorm = 1e-6

	// RotationTo switches to the diagonal-based axis recovery above this angle.
	largeAngleThreshold = 150.0 * math.Pi / 180.0
	// RotationTo renormalizes the recovered axis below this angle.
	smallAngleThreshold = 30.0 * math.Pi / 180.0
)

// Quaternion is a quaternion with vector part (X, Y, Z) and scalar part W. Unit quaternions represent rotations.
// Constructors that build a rotation return the canonical representative with W >= 0.
// The raw constructor and the algebraic operations do not renormalize; call Normalize after long chains of products.
type Quaternion[T Float] struct {
	X T `json:"x"`
	Y T `json:"y"`
	Z T `json:"z"`
	W T `json:"w"`
}

// NewIdentityQuaternion returns the quaternion which signifies no rotation.
func NewIdentityQuaternion[T Float]() Quaternion[T] {
	return Quaternion[T]{0, 0, 0, 1}
}

// NewQuaternion returns a quaternion from raw components. No normalization is done.
func NewQuaternion[T Float](x, y, z, w T) Quaternion[T] {
	return Quaternion[T]{x, y, z, w}
}

// NewQuaternionFromAxisAngle returns the rotation of theta radians about axis. The axis may have any non-zero length;
// a zero-length axis panics.
func NewQuaternionFromAxisAngle[T Float](axis Vector3[T], theta T) Quaternion[T] {
	n := axis.Norm()
	if n <= Epsilon[T]() {
		panic("cannot build quaternion from zero-length rotation axis")
	}
	s := T(math.Sin(float64(theta) / 2))
	q := Quaternion[T]{
		X: axis.X * s / n,
		Y: axis.Y * s / n,
		Z: axis.Z * s / n,
		W: T(math.Cos(float64(theta) / 2)),
	}
	return q.canonical()
}

// NewQuaternionFromEuler returns the rotation for roll about X, pitch about Y and yaw about Z, composed as Rz*Ry*Rx.
func NewQuaternionFromEuler[T Float](roll, pitch, yaw T) Quaternion[T] {
	rx := NewQuaternionFromAxisAngle(UnitX[T](), roll)
	ry := NewQuaternionFromAxisAngle(UnitY[T](), pitch)
	rz := NewQuaternionFromAxisAngle(UnitZ[T](), yaw)
	return rz.Mul(ry).Mul(rx).canonical()
}

// NewQuaternionFromNumber converts a gonum quaternion.
func NewQuaternionFromNumber[T Float](n quat.Number) Quaternion[T] {
	return Quaternion[T]{T(n.Imag), T(n.Jmag), T(n.Kmag), T(n.Real)}
}

// Number returns the quaternion as a gonum quat.Number.
func (q Quaternion[T]) Number() quat.Number {
	return quat.Number{Real: float64(q.W), Imag: float64(q.X), Jmag: float64(q.Y), Kmag: float64(q.Z)}
}

// At returns component i (0=X, 1=Y, 2=Z, 3=W). Any other index panics.
func (q Quaternion[T]) At(i int) T {
	switch i {
	case 0:
		return q.X
	case 1:
		return q.Y
	case 2:
		return q.Z
	case 3:
		return q.W
	default:
		panic(fmt.Sprintf("quaternion index %d out of range [0,3]", i))
	}
}

// Vector returns the vector part.
func (q Quaternion[T]) Vector() Vector3[T] {
	return Vector3[T]{q.X, q.Y, q.Z}
}

// Neg returns -q, which encodes the same rotation.
func (q Quaternion[T]) Neg() Quaternion[T] {
	return Quaternion[T]{-q.X, -q.Y, -q.Z, -q.W}
}

// Conj returns the conjugate, the inverse rotation for a unit quaternion.
func (q Quaternion[T]) Conj() Quaternion[T] {
	return Quaternion[T]{-q.X, -q.Y, -q.Z, q.W}
}

// Norm returns the four-component Euclidean norm.
func (q Quaternion[T]) Norm() T {
	return T(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
}

// Normalize returns the unit quaternion in the direction of q with W >= 0. A norm below 1e-6 panics.
func (q Quaternion[T]) Normalize() Quaternion[T] {
	n := q.Norm()
	if float64(n) <= minQuaternionNorm {
		panic(fmt.Sprintf("cannot normalize quaternion with norm %v", float64(n)))
	}
	return Quaternion[T]{q.X / n, q.Y / n, q.Z / n, q.W / n}.canonical()
}

func (q Quaternion[T]) canonical() Quaternion[T] {
	if q.W < 0 {
		return q.Neg()
	}
	return q
}

// Mul returns the Hamilton product q*o: rotate by o first, expressed in q's frame, then by q. Not commutative.
func (q Quaternion[T]) Mul(o Quaternion[T]) Quaternion[T] {
	v1, v2 := q.Vector(), o.Vector()
	s := q.W*o.W - v1.Dot(v2)
	v := v2.Mul(q.W).Add(v1.Mul(o.W)).Add(v1.Cross(v2))
	return Quaternion[T]{v.X, v.Y, v.Z, s}
}

// Rotate applies the rotation to v with the sandwich product q*(v,0)*conj(q). When normalize is set q is normalized
// first, which compensates for drift accumulated by repeated products.
func (q Quaternion[T]) Rotate(v Vector3[T], normalize bool) Vector3[T] {
	if normalize {
		q = q.Normalize()
	}
	return q.Mul(Quaternion[T]{v.X, v.Y, v.Z, 0}).Mul(q.Conj()).Vector()
}

// AlmostEqual reports whether every component is within Epsilon of o. q and -q are NOT equal under this check.
func (q Quaternion[T]) AlmostEqual(o Quaternion[T]) bool {
	return q.AlmostEqualTol(o, Epsilon[T]())
}

// AlmostEqualTol reports whether every component is within tol of o.
func (q Quaternion[T]) AlmostEqualTol(o Quaternion[T], tol T) bool {
	return absT(q.X-o.X) <= tol && absT(q.Y-o.Y) <= tol && absT(q.Z-o.Z) <= tol && absT(q.W-o.W) <= tol
}

// SameRotation reports whether q and o encode the same rotation, accounting for the double cover.
func (q Quaternion[T]) SameRotation(o Quaternion[T]) bool {
	return q.SameRotationTol(o, Epsilon[T]())
}

// SameRotationTol is SameRotation with an explicit tolerance.
func (q Quaternion[T]) SameRotationTol(o Quaternion[T], tol T) bool {
	return q.AlmostEqualTol(o, tol) || q.Neg().AlmostEqualTol(o, tol)
}

// IsNaN reports whether any component is NaN.
func (q Quaternion[T]) IsNaN() bool {
	return q.Vector().IsNaN() || math.IsNaN(float64(q.W))
}

// IsInf reports whether any component is infinite.
func (q Quaternion[T]) IsInf() bool {
	return q.Vector().IsInf() || math.IsInf(float64(q.W), 0)
}

// IsValid reports whether every component is a finite number.
func (q Quaternion[T]) IsValid() bool {
	return !q.IsNaN() && !q.IsInf()
}

// RotationTo returns the axis and angle of the rotation taking orientation q onto orientation other, so that
// other and q*NewQuaternionFromAxisAngle(axis, theta) are the same rotation. The axis is expressed in q's frame.
// Equal orientations return a zero axis and a zero angle.
func (q Quaternion[T]) RotationTo(other Quaternion[T]) (Vector3[T], T) {
	if q.AlmostEqual(other) {
		return Vector3[T]{}, 0
	}

	c := other.Conj().Mul(q).RotationMatrix(false)
	k := Vector3[T]{c[2].Y - c[1].Z, c[0].Z - c[2].X, c[1].X - c[0].Y}
	den := c.Trace() - 1
	theta := math.Atan2(float64(k.Norm()), float64(den))
	if math.Abs(theta) < 1e-9 {
		return Vector3[T]{}, 0
	}

	if theta <= largeAngleThreshold {
		axis := k.Div(T(2 * math.Sin(theta)))
		if math.Abs(theta) < smallAngleThreshold {
			axis = axis.Div(axis.Norm())
		}
		return axis, T(theta)
	}

	// Near 180 degrees the antisymmetric part vanishes, so the axis magnitudes come from the diagonal and only
	// the signs come from k.
	cang := float64(den) / 2
	vers := 1 - cang
	sign := k.Sign()
	axis := [3]float64{}
	for i := 0; i < 3; i++ {
		s := float64(sign.At(i))
		if s == 0 {
			// exactly 180 degrees leaves the sign free; the pivot refinement below fixes the others relative to it
			s = 1
		}
		axis[i] = s * math.Sqrt(math.Abs(float64(c[i].At(i))-cang)/vers)
	}

	pivot := 0
	for i := 1; i < 3; i++ {
		if math.Abs(axis[i]) > math.Abs(axis[pivot]) {
			pivot = i
		}
	}
	den2 := 2 * vers * axis[pivot]
	sym := func(i, j int) float64 { return float64(c[i].At(j) + c[j].At(i)) }
	for i := 0; i < 3; i++ {
		if i != pivot {
			axis[i] = sym(i, pivot) / den2
		}
	}
	return Vector3[T]{T(axis[0]), T(axis[1]), T(axis[2])}, T(theta)
}

// Slerp spherically interpolates from q (t=0) to target (t=1). By default the shorter arc is taken; takeLongPath
// selects the longer one. t outside [0,1] panics.
func (q Quaternion[T]) Slerp(target Quaternion[T], t T, takeLongPath bool) Quaternion[T] {
	if t < 0 || t > 1 {
		panic(fmt.Sprintf("slerp parameter %v outside [0,1]", float64(t)))
	}

	dot := q.X*target.X + q.Y*target.Y + q.Z*target.Z + q.W*target.W
	if (dot > 0 && takeLongPath) || (dot < 0 && !takeLongPath) {
		target = target.Neg()
	}

	// chords to target and to its antipode; the angle from atan2 stays accurate for tiny rotations
	diff := math.Hypot(math.Hypot(float64(q.X-target.X), float64(q.Y-target.Y)), math.Hypot(float64(q.Z-target.Z), float64(q.W-target.W)))
	sum := math.Hypot(math.Hypot(float64(q.X+target.X), float64(q.Y+target.Y)), math.Hypot(float64(q.Z+target.Z), float64(q.W+target.W)))
	if diff == 0 || sum <= float64(Epsilon[T]()) {
		// identical ends, or opposite ends with no unique arc between them
		return q
	}

	theta := 2 * math.Atan2(diff, sum)
	s := math.Sin(theta)
	a := T(math.Sin((1-float64(t))*theta) / s)
	b := T(math.Sin(float64(t)*theta) / s)
	return Quaternion[T]{
		X: a*q.X + b*target.X,
		Y: a*q.Y + b*target.Y,
		Z: a*q.Z + b*target.Z,
		W: a*q.W + b*target.W,
	}
}

func (q Quaternion[T]) String() string {
	return fmt.Sprintf("[(%+5.4e, %+5.4e, %+5.4e), %+5.4e]", float64(q.X), float64(q.Y), float64(q.Z), float64(q.W))
}
