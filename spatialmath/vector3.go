// Package spatialmath defines spatial mathematical operations: vectors, quaternions, rotation matrices and poses.
// Every type is generic over the float precision so single and double precision callers can share one implementation.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"golang.org/x/exp/constraints"
)

// Float is the set of scalar types the spatial types can be instantiated with.
type Float interface {
	constraints.Float
}

// Epsilon returns the absolute per-component tolerance used by equality checks for the scalar type T.
// float32 cannot resolve 1e-12 around 1, so it gets a coarser tolerance than float64.
func Epsilon[T Float]() T {
	var one T = 1
	if one+T(1e-12) == one {
		return 1e-5
	}
	return 1e-9
}

// Vector3 is a 3-D real vector.
type Vector3[T Float] struct {
	X T `json:"x"`
	Y T `json:"y"`
	Z T `json:"z"`
}

// NewVector3 creates a vector from its components.
func NewVector3[T Float](x, y, z T) Vector3[T] {
	return Vector3[T]{x, y, z}
}

// NaNVector3 returns the invalid sentinel vector used to mark failed geometric computations.
func NaNVector3[T Float]() Vector3[T] {
	nan := T(math.NaN())
	return Vector3[T]{nan, nan, nan}
}

// UnitX returns the X basis vector.
func UnitX[T Float]() Vector3[T] { return Vector3[T]{1, 0, 0} }

// UnitY returns the Y basis vector.
func UnitY[T Float]() Vector3[T] { return Vector3[T]{0, 1, 0} }

// UnitZ returns the Z basis vector.
func UnitZ[T Float]() Vector3[T] { return Vector3[T]{0, 0, 1} }

// Basis returns the basis vector for axis index 0, 1 or 2. Any other index panics.
func Basis[T Float](i int) Vector3[T] {
	var v Vector3[T]
	*v.ptr(i) = 1
	return v
}

// NewVector3FromR3 converts an r3.Vector.
func NewVector3FromR3[T Float](v r3.Vector) Vector3[T] {
	return Vector3[T]{T(v.X), T(v.Y), T(v.Z)}
}

// R3 returns the vector as a float64 r3.Vector.
func (v Vector3[T]) R3() r3.Vector {
	return r3.Vector{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}

func (v *Vector3[T]) ptr(i int) *T {
	switch i {
	case 0:
		return &v.X
	case 1:
		return &v.Y
	case 2:
		return &v.Z
	default:
		panic(fmt.Sprintf("vector3 index %d out of range [0,2]", i))
	}
}

// At returns component i (0=X, 1=Y, 2=Z). Any other index panics.
func (v Vector3[T]) At(i int) T {
	return *v.ptr(i)
}

// Add returns v+o.
func (v Vector3[T]) Add(o Vector3[T]) Vector3[T] {
	return Vector3[T]{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v-o.
func (v Vector3[T]) Sub(o Vector3[T]) Vector3[T] {
	return Vector3[T]{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Neg returns -v.
func (v Vector3[T]) Neg() Vector3[T] {
	return Vector3[T]{-v.X, -v.Y, -v.Z}
}

// Mul scales every component by k.
func (v Vector3[T]) Mul(k T) Vector3[T] {
	return Vector3[T]{k * v.X, k * v.Y, k * v.Z}
}

// Div divides every component by k. Division by zero follows IEEE 754 and never panics.
func (v Vector3[T]) Div(k T) Vector3[T] {
	return Vector3[T]{v.X / k, v.Y / k, v.Z / k}
}

// AddScalar adds k to every component.
func (v Vector3[T]) AddScalar(k T) Vector3[T] {
	return Vector3[T]{v.X + k, v.Y + k, v.Z + k}
}

// SubScalar subtracts k from every component.
func (v Vector3[T]) SubScalar(k T) Vector3[T] {
	return Vector3[T]{v.X - k, v.Y - k, v.Z - k}
}

// ScalarSub returns (k-x, k-y, k-z).
func (v Vector3[T]) ScalarSub(k T) Vector3[T] {
	return Vector3[T]{k - v.X, k - v.Y, k - v.Z}
}

// ScalarDiv returns (k/x, k/y, k/z).
func (v Vector3[T]) ScalarDiv(k T) Vector3[T] {
	return Vector3[T]{k / v.X, k / v.Y, k / v.Z}
}

// Dot returns the dot product.
func (v Vector3[T]) Dot(o Vector3[T]) T {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product v×o.
func (v Vector3[T]) Cross(o Vector3[T]) Vector3[T] {
	return Vector3[T]{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Norm returns the Euclidean length.
func (v Vector3[T]) Norm() T {
	return T(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Normalize returns the unit vector in the direction of v. A zero-length vector panics.
func (v Vector3[T]) Normalize() Vector3[T] {
	n := v.Norm()
	if n <= Epsilon[T]() {
		panic("cannot normalize zero-length vector3")
	}
	return v.Div(n)
}

// AlmostEqual reports whether every component is within Epsilon of o.
func (v Vector3[T]) AlmostEqual(o Vector3[T]) bool {
	return v.AlmostEqualTol(o, Epsilon[T]())
}

// AlmostEqualTol reports whether every component is within tol of o.
func (v Vector3[T]) AlmostEqualTol(o Vector3[T], tol T) bool {
	return absT(v.X-o.X) <= tol && absT(v.Y-o.Y) <= tol && absT(v.Z-o.Z) <= tol
}

// IsZero returns a mask with 1 for every component whose magnitude is within Epsilon of zero, else 0.
func (v Vector3[T]) IsZero() Vector3[T] {
	var mask Vector3[T]
	for i := 0; i < 3; i++ {
		if absT(v.At(i)) <= Epsilon[T]() {
			*mask.ptr(i) = 1
		}
	}
	return mask
}

// Sign returns -1, 0 or +1 per component; magnitudes within Epsilon count as 0.
func (v Vector3[T]) Sign() Vector3[T] {
	var s Vector3[T]
	for i := 0; i < 3; i++ {
		c := v.At(i)
		switch {
		case absT(c) <= Epsilon[T]():
		case c > 0:
			*s.ptr(i) = 1
		default:
			*s.ptr(i) = -1
		}
	}
	return s
}

// IsNaN reports whether any component is NaN.
func (v Vector3[T]) IsNaN() bool {
	return math.IsNaN(float64(v.X)) || math.IsNaN(float64(v.Y)) || math.IsNaN(float64(v.Z))
}

// IsInf reports whether any component is infinite.
func (v Vector3[T]) IsInf() bool {
	return math.IsInf(float64(v.X), 0) || math.IsInf(float64(v.Y), 0) || math.IsInf(float64(v.Z), 0)
}

// IsValid reports whether every component is a finite number.
func (v Vector3[T]) IsValid() bool {
	return !v.IsNaN() && !v.IsInf()
}

// Tilde returns the rows of the skew-symmetric matrix [v]× such that [v]×·o == v×o.
func (v Vector3[T]) Tilde() [3]Vector3[T] {
	return [3]Vector3[T]{
		{0, -v.Z, v.Y},
		{v.Z, 0, -v.X},
		{-v.Y, v.X, 0},
	}
}

func (v Vector3[T]) String() string {
	return fmt.Sprintf("[%+5.4e, %+5.4e, %+5.4e]", float64(v.X), float64(v.Y), float64(v.Z))
}

func absT[T Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}
