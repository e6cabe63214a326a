package spatialmath

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// EulerAngles treats pitch as ±90 degrees within this distance
	gimbalLockTolerance = 1e-6

	// below this value of 1+trace the scalar part is too small to divide by
	minTraceTolerance = 1e-6
)

// RotationMatrix is a 3x3 direction cosine matrix stored as rows. Matrices produced from quaternions map vectors
// from the reference frame into the rotated (local) frame, i.e. they are the transpose of the active rotation.
type RotationMatrix[T Float] [3]Vector3[T]

// NewIdentityRotationMatrix returns the identity matrix.
func NewIdentityRotationMatrix[T Float]() RotationMatrix[T] {
	return RotationMatrix[T]{UnitX[T](), UnitY[T](), UnitZ[T]()}
}

// NewRotationMatrixFromEuler returns the direction cosine matrix for roll, pitch and yaw composed as Rz*Ry*Rx.
// It agrees with NewQuaternionFromEuler(roll, pitch, yaw).RotationMatrix(false).
func NewRotationMatrixFromEuler[T Float](roll, pitch, yaw T) RotationMatrix[T] {
	s1, c1 := math.Sincos(float64(roll))
	s2, c2 := math.Sincos(float64(pitch))
	s3, c3 := math.Sincos(float64(yaw))
	return RotationMatrix[T]{
		{T(c2 * c3), T(c2 * s3), T(-s2)},
		{T(s1*s2*c3 - c1*s3), T(s1*s2*s3 + c1*c3), T(s1 * c2)},
		{T(c1*s2*c3 + s1*s3), T(c1*s2*s3 - s1*c3), T(c1 * c2)},
	}
}

// At returns element (i, j). Indices outside [0,2] panic.
func (m RotationMatrix[T]) At(i, j int) T {
	if i < 0 || i > 2 {
		panic(fmt.Sprintf("rotation matrix row %d out of range [0,2]", i))
	}
	return m[i].At(j)
}

// Trace returns the sum of the diagonal.
func (m RotationMatrix[T]) Trace() T {
	return m[0].X + m[1].Y + m[2].Z
}

// Transpose returns the transposed matrix, the inverse for an orthonormal matrix.
func (m RotationMatrix[T]) Transpose() RotationMatrix[T] {
	return RotationMatrix[T]{
		{m[0].X, m[1].X, m[2].X},
		{m[0].Y, m[1].Y, m[2].Y},
		{m[0].Z, m[1].Z, m[2].Z},
	}
}

// MulVec returns m·v.
func (m RotationMatrix[T]) MulVec(v Vector3[T]) Vector3[T] {
	return Vector3[T]{m[0].Dot(v), m[1].Dot(v), m[2].Dot(v)}
}

// Mul returns the matrix product m·o.
func (m RotationMatrix[T]) Mul(o RotationMatrix[T]) RotationMatrix[T] {
	ot := o.Transpose()
	var out RotationMatrix[T]
	for i := 0; i < 3; i++ {
		out[i] = Vector3[T]{m[i].Dot(ot[0]), m[i].Dot(ot[1]), m[i].Dot(ot[2])}
	}
	return out
}

// AlmostEqual reports whether every element is within Epsilon of o.
func (m RotationMatrix[T]) AlmostEqual(o RotationMatrix[T]) bool {
	return m.AlmostEqualTol(o, Epsilon[T]())
}

// AlmostEqualTol reports whether every element is within tol of o.
func (m RotationMatrix[T]) AlmostEqualTol(o RotationMatrix[T], tol T) bool {
	return m[0].AlmostEqualTol(o[0], tol) && m[1].AlmostEqualTol(o[1], tol) && m[2].AlmostEqualTol(o[2], tol)
}

// Dense returns the matrix as a gonum dense matrix.
func (m RotationMatrix[T]) Dense() *mat.Dense {
	data := make([]float64, 0, 9)
	for _, row := range m {
		data = append(data, float64(row.X), float64(row.Y), float64(row.Z))
	}
	return mat.NewDense(3, 3, data)
}

// Quaternion returns the unit quaternion (W >= 0) whose RotationMatrix is m.
func (m RotationMatrix[T]) Quaternion() Quaternion[T] {
	return NewQuaternionFromRotationMatrix(m)
}

// NewQuaternionFromRotationMatrix converts a direction cosine matrix into a unit quaternion with W >= 0.
// It inverts Quaternion.RotationMatrix.
func NewQuaternionFromRotationMatrix[T Float](m RotationMatrix[T]) Quaternion[T] {
	c := func(i, j int) float64 { return float64(m[i].At(j)) }
	var x, y, z, w float64

	tr := c(0, 0) + c(1, 1) + c(2, 2)
	switch {
	case 1+tr >= minTraceTolerance:
		w = math.Sqrt(1+tr) / 2
		x = (c(1, 2) - c(2, 1)) / (4 * w)
		y = (c(2, 0) - c(0, 2)) / (4 * w)
		z = (c(0, 1) - c(1, 0)) / (4 * w)
	case c(0, 0) >= c(1, 1) && c(0, 0) >= c(2, 2):
		s := 2 * math.Sqrt(1+c(0, 0)-c(1, 1)-c(2, 2))
		x = s / 4
		y = (c(0, 1) + c(1, 0)) / s
		z = (c(0, 2) + c(2, 0)) / s
		w = (c(1, 2) - c(2, 1)) / s
	case c(1, 1) >= c(2, 2):
		s := 2 * math.Sqrt(1+c(1, 1)-c(0, 0)-c(2, 2))
		x = (c(0, 1) + c(1, 0)) / s
		y = s / 4
		z = (c(1, 2) + c(2, 1)) / s
		w = (c(2, 0) - c(0, 2)) / s
	default:
		s := 2 * math.Sqrt(1+c(2, 2)-c(0, 0)-c(1, 1))
		x = (c(0, 2) + c(2, 0)) / s
		y = (c(1, 2) + c(2, 1)) / s
		z = s / 4
		w = (c(0, 1) - c(1, 0)) / s
	}
	return Quaternion[T]{T(x), T(y), T(z), T(w)}.Normalize()
}

// RotationMatrix returns the direction cosine matrix of q, mapping reference-frame vectors into q's local frame.
// When normalize is set q is normalized first.
func (q Quaternion[T]) RotationMatrix(normalize bool) RotationMatrix[T] {
	if normalize {
		q = q.Normalize()
	}
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return RotationMatrix[T]{
		{1 - 2*(y*y+z*z), 2 * (x*y + w*z), 2 * (x*z - w*y)},
		{2 * (x*y - w*z), 1 - 2*(x*x+z*z), 2 * (y*z + w*x)},
		{2 * (x*z + w*y), 2 * (y*z - w*x), 1 - 2*(x*x+y*y)},
	}
}

// EulerAngles returns (roll, pitch, yaw) such that NewQuaternionFromEuler(roll, pitch, yaw) is the same rotation as q.
// At pitch = ±90 degrees roll and yaw are coupled; yaw is reported as zero and roll absorbs the difference.
func (q Quaternion[T]) EulerAngles() Vector3[T] {
	x, y, z, w := float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)
	flg := -2 * (x*z - y*w)

	switch {
	case math.Abs(flg-1) < gimbalLockTolerance:
		roll := math.Atan2(2*(x*y-w*z), 2*(x*z+w*y))
		return Vector3[T]{T(roll), math.Pi / 2, 0}
	case math.Abs(flg+1) < gimbalLockTolerance:
		roll := math.Atan2(-(x*y - w*z), -(x*z + w*y))
		return Vector3[T]{T(roll), -math.Pi / 2, 0}
	default:
		roll := math.Atan2(2*(y*z+w*x), 1-2*(x*x+y*y))
		pitch := math.Asin(math.Max(-1, math.Min(1, flg)))
		yaw := math.Atan2(2*(x*y+w*z), 1-2*(y*y+z*z))
		return Vector3[T]{T(roll), T(pitch), T(yaw)}
	}
}
