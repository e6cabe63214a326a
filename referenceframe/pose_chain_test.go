package referenceframe

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/armkin/spatialmath"
)

func v3(x, y, z float64) spatialmath.Vector3[float64] {
	return spatialmath.NewVector3(x, y, z)
}

var (
	sixAxisOffsets = []spatialmath.Vector3[float64]{
		v3(0, 0, 0.295), v3(0, 0.0797, 0), v3(0, -0.0367, 0.230),
		v3(-0.05, -0.043, 0.0725), v3(0, 0, 0.1975), v3(0, 0, 0.07),
	}
	sixAxisAxes = []spatialmath.Vector3[float64]{
		v3(0, 0, 1), v3(0, 1, 0), v3(0, 1, 0), v3(0, 0, 1), v3(0, 1, 0), v3(0, 0, 1),
	}
	sixAxisAngles = []float64{0, 0, math.Pi / 2, 0, math.Pi / 2, 0}
)

func TestPoseChainGolden(t *testing.T) {
	chain, err := NewPoseChain(sixAxisOffsets, sixAxisAxes, sixAxisAngles, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.Len(), test.ShouldEqual, 7)

	test.That(t, chain.At(0).AlmostEqual(spatialmath.NewZeroPose[float64]()), test.ShouldBeTrue)
	test.That(t, chain.At(3).Point.AlmostEqual(v3(0, 0.043, 0.525)), test.ShouldBeTrue)
	test.That(t, chain.At(4).Point.AlmostEqual(v3(0.0725, 0, 0.575)), test.ShouldBeTrue)

	last := chain.Last()
	test.That(t, last.Point.AlmostEqual(v3(0.27, 0, 0.505)), test.ShouldBeTrue)
	test.That(t, last.Orientation.SameRotation(spatialmath.NewQuaternion(0., 1., 0., 0.)), test.ShouldBeTrue)
}

func TestPoseChainIndexing(t *testing.T) {
	chain, err := NewPoseChain(sixAxisOffsets, sixAxisAxes, sixAxisAngles, nil)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, chain.At(-1), test.ShouldResemble, chain.At(6))
	test.That(t, chain.At(-2), test.ShouldResemble, chain.At(5))
	test.That(t, chain.At(-7), test.ShouldResemble, chain.At(0))
	test.That(t, func() { chain.At(7) }, test.ShouldPanic)
	test.That(t, func() { chain.At(-8) }, test.ShouldPanic)

	points := chain.Points()
	orientations := chain.Orientations()
	test.That(t, len(points), test.ShouldEqual, 7)
	test.That(t, len(orientations), test.ShouldEqual, 7)
	test.That(t, points[6], test.ShouldResemble, chain.Last().Point)
	test.That(t, orientations[3], test.ShouldResemble, chain.At(3).Orientation)

	poses := chain.Poses()
	poses[0] = spatialmath.NewPoseFromPoint(v3(9, 9, 9))
	test.That(t, chain.At(0).Point, test.ShouldResemble, v3(0, 0, 0))
}

func TestPoseChainBase(t *testing.T) {
	base := spatialmath.NewPose(v3(1, 2, 0), spatialmath.NewQuaternionFromAxisAngle(v3(0, 0, 1), math.Pi/2))
	chain, err := NewPoseChain(sixAxisOffsets, sixAxisAxes, sixAxisAngles, &base)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.At(0), test.ShouldResemble, base)

	unbased, err := NewPoseChain(sixAxisOffsets, sixAxisAxes, sixAxisAngles, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.Last().AlmostEqual(base.Compose(unbased.Last())), test.ShouldBeTrue)
}

func TestPoseChainAppend(t *testing.T) {
	chain, err := NewPoseChain(sixAxisOffsets, sixAxisAxes, sixAxisAngles, nil)
	test.That(t, err, test.ShouldBeNil)

	tool := spatialmath.NewPose(v3(0, 0, 0.1), spatialmath.NewQuaternionFromEuler(math.Pi/2, 0., 0.))
	extended := chain.Append(tool)
	test.That(t, chain.Len(), test.ShouldEqual, 7)
	test.That(t, extended.Len(), test.ShouldEqual, 8)
	test.That(t, extended.At(-2), test.ShouldResemble, chain.Last())
	test.That(t, extended.Last().Point.AlmostEqual(v3(0.27, 0, 0.405)), test.ShouldBeTrue)
	test.That(t, extended.String(), test.ShouldContainSubstring, "<link7>")
}

func TestPoseChainErrors(t *testing.T) {
	_, err := NewPoseChain[float64](nil, nil, nil, nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewPoseChain(sixAxisOffsets, sixAxisAxes[:5], sixAxisAngles, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "5 axes")

	_, err = NewPoseChain(sixAxisOffsets, sixAxisAxes, sixAxisAngles[:2], nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPoseChainFloat32(t *testing.T) {
	offsets := make([]spatialmath.Vector3[float32], 0, len(sixAxisOffsets))
	axes := make([]spatialmath.Vector3[float32], 0, len(sixAxisAxes))
	angles := make([]float32, 0, len(sixAxisAngles))
	for i := range sixAxisOffsets {
		o, a := sixAxisOffsets[i], sixAxisAxes[i]
		offsets = append(offsets, spatialmath.NewVector3(float32(o.X), float32(o.Y), float32(o.Z)))
		axes = append(axes, spatialmath.NewVector3(float32(a.X), float32(a.Y), float32(a.Z)))
		angles = append(angles, float32(sixAxisAngles[i]))
	}
	chain, err := NewPoseChain(offsets, axes, angles, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.Last().Point.AlmostEqual(spatialmath.NewVector3[float32](0.27, 0, 0.505)), test.ShouldBeTrue)
}

func TestPoseChainFromConfig(t *testing.T) {
	cfg := DefaultSixAxisConfig()
	chain, err := NewPoseChainFromConfig(cfg, sixAxisAngles, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.Last().Point.AlmostEqual(v3(0.27, 0, 0.505)), test.ShouldBeTrue)

	_, err = NewPoseChainFromConfig(cfg, sixAxisAngles[:3], nil)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewPoseChainFromConfig(nil, sixAxisAngles, nil)
	test.That(t, err, test.ShouldBeError, ErrNoArmInformation)
}
