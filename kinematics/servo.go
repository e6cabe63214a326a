package kinematics

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/armkin/rimage/transform"
	"go.viam.com/armkin/spatialmath"
	"go.viam.com/armkin/utils"
)

// rotations below this angle are not corrected
const minServoRotation = 1e-4

// ErrFeatureLost is returned by Servo when the hand or target can no longer be located in the image.
var ErrFeatureLost = errors.New("servo feature could not be located")

// ServoLimits bounds a single servo increment.
type ServoLimits struct {
	// MaxRotation is the largest rotation in radians applied by each of the two rotation corrections.
	MaxRotation float64
	// MaxTranslation is the largest translation in meters applied along each reference axis.
	MaxTranslation float64
}

// DefaultServoLimits returns the limits the servo loop was tuned with.
func DefaultServoLimits() ServoLimits {
	return ServoLimits{MaxRotation: 0.01, MaxTranslation: 0.001}
}

// ImageFeature is a pair of image points lying on a known plane. The points define a frame on the plane via
// Camera.CoordinateFromTwoImagePoints.
type ImageFeature struct {
	Start spatialmath.Vector3[float64]
	End   spatialmath.Vector3[float64]
	Plane spatialmath.Pose[float64]
}

// ServoStep computes the next flange pose that moves the hand feature toward the target feature. It rotates the
// flange toward the target orientation about the target frame, rotates it about the camera origin to bring the
// hand onto the camera's line of sight to the target, then translates it by the hand to target offset. Each
// correction is clamped by limits. It fails, returning flange unchanged, if either feature cannot be located.
func (a *Arm) ServoStep(
	flange spatialmath.Pose[float64],
	cam *transform.Camera[float64],
	hand, target ImageFeature,
	limits ServoLimits,
) (spatialmath.Pose[float64], bool) {
	c1, ok := cam.CoordinateFromTwoImagePoints(hand.Start, hand.End, hand.Plane)
	if !ok {
		a.logger.Debugw("cannot locate hand feature", "start", hand.Start, "end", hand.End)
		return flange, false
	}
	c2, ok := cam.CoordinateFromTwoImagePoints(target.Start, target.End, target.Plane)
	if !ok {
		a.logger.Debugw("cannot locate target feature", "start", target.Start, "end", target.End)
		return flange, false
	}

	next := flange
	axis, theta := c1.Orientation.RotationTo(c2.Orientation)
	if !utils.Float64AlmostEqual(theta, 0, minServoRotation) {
		next = next.Rotate(axis, utils.Clamp(theta, -limits.MaxRotation, limits.MaxRotation), &c2)
	}

	// line of sight from the camera to the hand and to the target
	toHand := c1.Point.Sub(cam.Origin.Point)
	toTarget := c2.Point.Sub(cam.Origin.Point)
	cos := toHand.Dot(toTarget) / toHand.Norm() / toTarget.Norm()
	if axb := toHand.Cross(toTarget); cos < 1 && axb.Norm() > spatialmath.Epsilon[float64]() {
		pivot := spatialmath.NewPoseFromPoint(cam.Origin.Point)
		next = next.Rotate(axb, utils.Clamp(math.Acos(cos), -limits.MaxRotation, limits.MaxRotation), &pivot)
	}

	dL := toTarget.Sub(toHand)
	next.Point = next.Point.Add(spatialmath.NewVector3(
		utils.Clamp(dL.X, -limits.MaxTranslation, limits.MaxTranslation),
		utils.Clamp(dL.Y, -limits.MaxTranslation, limits.MaxTranslation),
		utils.Clamp(dL.Z, -limits.MaxTranslation, limits.MaxTranslation),
	))

	if !next.IsValid() {
		a.logger.Debugw("servo step produced an invalid pose", "flange", flange)
		return flange, false
	}
	return next, true
}

// ObserveFunc reports the hand and target features seen from the given flange pose. ok is false when either
// feature is not visible.
type ObserveFunc func(flange spatialmath.Pose[float64]) (hand, target ImageFeature, ok bool)

// Servo repeats ServoStep from flange until a step no longer moves the flange, and returns the final flange
// pose with the number of steps that moved it. It gives up after maxSteps moving steps; a negative maxSteps is an
// error.
func (a *Arm) Servo(
	ctx context.Context,
	flange spatialmath.Pose[float64],
	observe ObserveFunc,
	limits ServoLimits,
	maxSteps int,
) (spatialmath.Pose[float64], int, error) {
	if maxSteps < 0 {
		return flange, 0, errors.Errorf("servo step limit must be non-negative, got %d", maxSteps)
	}
	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return flange, step, err
		}

		cam, err := a.CameraAtFlange(flange)
		if err != nil {
			return flange, step, err
		}
		hand, target, ok := observe(flange)
		if !ok {
			return flange, step, ErrFeatureLost
		}
		next, ok := a.ServoStep(flange, cam, hand, target, limits)
		if !ok {
			return flange, step, ErrFeatureLost
		}
		if next.SameLocation(flange, 1e-12) {
			a.logger.Debugw("servo converged", "steps", step, "flange", flange)
			return flange, step, nil
		}
		if step >= maxSteps {
			return flange, step, errors.Errorf("servo did not converge in %d steps", maxSteps)
		}
		flange = next
	}
}
