package kinematics

import (
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/armkin/logging"
	"go.viam.com/armkin/referenceframe"
	"go.viam.com/armkin/spatialmath"
)

var homeAngles = []float64{0, 0, math.Pi / 2, 0, math.Pi / 2, 0}

func v3(x, y, z float64) spatialmath.Vector3[float64] {
	return spatialmath.NewVector3(x, y, z)
}

func newTestArm(t *testing.T, cfg *referenceframe.ArmConfig) *Arm {
	t.Helper()
	arm, err := NewArm(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return arm
}

func TestNewArm(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	arm, err := NewArm(referenceframe.DefaultSixAxisConfig(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, arm.Name(), test.ShouldEqual, "six_axis")
	test.That(t, arm.DoF(), test.ShouldEqual, 6)
	test.That(t, logs.FilterMessage("arm created").Len(), test.ShouldEqual, 1)

	_, err = NewArm(nil, logger)
	test.That(t, err, test.ShouldBeError, referenceframe.ErrNoArmInformation)

	bad := referenceframe.DefaultSixAxisConfig()
	bad.Links[0].Axis.Z = 0
	_, err = NewArm(bad, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `invalid config for arm "six_axis"`)

	withGlobal, err := NewArm(referenceframe.DefaultSixAxisConfig(), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, withGlobal.logger.Name(), test.ShouldEqual, "armkin.arm")
}

func TestForwardKinematics(t *testing.T) {
	arm := newTestArm(t, referenceframe.DefaultSixAxisConfig())

	chain, err := arm.ForwardKinematics(homeAngles, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.Len(), test.ShouldEqual, 8)

	flange := arm.Flange(chain)
	test.That(t, flange.Point.AlmostEqual(v3(0.27, 0, 0.505)), test.ShouldBeTrue)
	test.That(t, flange.Orientation.SameRotation(spatialmath.NewQuaternion(0., 1., 0., 0.)), test.ShouldBeTrue)

	hand := arm.Hand(chain)
	test.That(t, hand.Point.AlmostEqual(v3(0.27, 0, 0.405)), test.ShouldBeTrue)
	expected := flange.Orientation.Mul(spatialmath.NewQuaternionFromEuler(math.Pi/2, 0., 0.))
	test.That(t, hand.Orientation.SameRotationTol(expected, 1e-9), test.ShouldBeTrue)

	_, err = arm.ForwardKinematics(homeAngles[:4], nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestForwardKinematicsWithoutTool(t *testing.T) {
	cfg := referenceframe.DefaultSixAxisConfig()
	cfg.Tool = nil
	arm := newTestArm(t, cfg)

	base := spatialmath.NewPoseFromPoint(v3(0, 0, 1))
	chain, err := arm.ForwardKinematics(homeAngles, &base)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.Len(), test.ShouldEqual, 7)
	test.That(t, arm.Flange(chain), test.ShouldResemble, chain.Last())
	test.That(t, arm.Hand(chain), test.ShouldResemble, chain.Last())
	test.That(t, chain.Last().Point.AlmostEqual(v3(0.27, 0, 1.505)), test.ShouldBeTrue)
}

func TestArmCamera(t *testing.T) {
	cfg := referenceframe.DefaultSixAxisConfig()
	arm := newTestArm(t, cfg)
	chain, err := arm.ForwardKinematics(homeAngles, nil)
	test.That(t, err, test.ShouldBeNil)

	cam, err := arm.Camera(chain)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cam.TanH, test.ShouldAlmostEqual, math.Tan(20*math.Pi/180))
	test.That(t, cam.TanV, test.ShouldAlmostEqual, math.Tan(10*math.Pi/180))
	test.That(t, cam.ZLen, test.ShouldEqual, 0.05)

	expected := arm.Flange(chain).Compose(cfg.Camera.Mount.Pose()).RotateAboutIndex(2, -math.Pi/2, nil)
	test.That(t, cam.Origin.SameLocation(expected, 1e-9), test.ShouldBeTrue)

	cfg = referenceframe.DefaultSixAxisConfig()
	cfg.Camera = nil
	noCam := newTestArm(t, cfg)
	_, err = noCam.Camera(chain)
	test.That(t, err, test.ShouldBeError, ErrNoCamera)
}

func TestHandSurface(t *testing.T) {
	arm := newTestArm(t, referenceframe.DefaultSixAxisConfig())
	chain, err := arm.ForwardKinematics(homeAngles, nil)
	test.That(t, err, test.ShouldBeNil)

	normal := v3(1, 1, 0)
	surf := arm.HandSurface(chain, normal, math.Pi)
	hand := arm.Hand(chain)
	test.That(t, surf.Point, test.ShouldResemble, hand.Point)

	worldNormal := hand.Orientation.Rotate(normal.Normalize(), false)
	test.That(t, surf.Orientation.Rotate(spatialmath.UnitZ[float64](), false).AlmostEqual(worldNormal), test.ShouldBeTrue)
}
