// Package kinematics computes the frames of a serial arm from its joint angles and drives the hand-eye servo loop
// that aligns a hand with a target seen by a wrist camera.
package kinematics

import (
	"github.com/pkg/errors"

	"go.viam.com/armkin/logging"
	"go.viam.com/armkin/referenceframe"
	"go.viam.com/armkin/rimage/transform"
	"go.viam.com/armkin/spatialmath"
	"go.viam.com/armkin/utils"
)

// ErrNoCamera is returned when camera geometry is requested from an arm configured without a camera.
var ErrNoCamera = errors.New("arm has no camera configured")

// Arm is a serial arm of revolute joints, optionally carrying a tool and a wrist camera on its flange.
type Arm struct {
	cfg    *referenceframe.ArmConfig
	tool   *spatialmath.Pose[float64]
	mount  *spatialmath.Pose[float64]
	logger logging.Logger
}

// NewArm validates cfg and returns the arm it describes. A nil logger uses a sublogger of the global logger.
func NewArm(cfg *referenceframe.ArmConfig, logger logging.Logger) (*Arm, error) {
	if cfg == nil {
		return nil, referenceframe.ErrNoArmInformation
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config for arm %q", cfg.Name)
	}
	if logger == nil {
		logger = logging.Global().Sublogger("arm")
	}

	arm := &Arm{cfg: cfg, logger: logger}
	if cfg.Tool != nil {
		tool := cfg.Tool.Pose()
		arm.tool = &tool
	}
	if cfg.Camera != nil {
		mount := cfg.Camera.Mount.Pose()
		arm.mount = &mount
	}
	logger.Debugw("arm created", "name", cfg.Name, "dof", cfg.DoF(), "tool", arm.tool != nil, "camera", arm.mount != nil)
	return arm, nil
}

// Name returns the configured name.
func (a *Arm) Name() string {
	return a.cfg.Name
}

// DoF returns the number of joints.
func (a *Arm) DoF() int {
	return a.cfg.DoF()
}

// ForwardKinematics returns the chain of frames for the given joint angles: the base, one frame per joint, and
// the tool frame when a tool is configured.
func (a *Arm) ForwardKinematics(angles []float64, base *spatialmath.Pose[float64]) (*referenceframe.PoseChain[float64], error) {
	chain, err := referenceframe.NewPoseChainFromConfig(a.cfg, angles, base)
	if err != nil {
		return nil, err
	}
	if a.tool != nil {
		chain = chain.Append(*a.tool)
	}
	return chain, nil
}

// Flange returns the frame of the last joint in a chain built by ForwardKinematics.
func (a *Arm) Flange(chain *referenceframe.PoseChain[float64]) spatialmath.Pose[float64] {
	if a.tool != nil {
		return chain.At(-2)
	}
	return chain.At(-1)
}

// Hand returns the end-of-chain frame, which is the tool frame when a tool is configured.
func (a *Arm) Hand(chain *referenceframe.PoseChain[float64]) spatialmath.Pose[float64] {
	return chain.Last()
}

// Camera returns the wrist camera for a chain built by ForwardKinematics.
func (a *Arm) Camera(chain *referenceframe.PoseChain[float64]) (*transform.Camera[float64], error) {
	return a.CameraAtFlange(a.Flange(chain))
}

// CameraAtFlange returns the wrist camera for the given flange pose.
func (a *Arm) CameraAtFlange(flange spatialmath.Pose[float64]) (*transform.Camera[float64], error) {
	if a.mount == nil {
		return nil, ErrNoCamera
	}
	cc := a.cfg.Camera
	cam, err := transform.NewCamera(cc.TanH(), cc.TanV(), flange.Compose(*a.mount), utils.DegToRad(cc.YawDeg))
	if err != nil {
		return nil, err
	}
	cam.ZLen = cc.Depth()
	return cam, nil
}

// HandSurface returns the plane through the hand frame with the given normal (in the hand frame), turned by yaw
// about that normal.
func (a *Arm) HandSurface(chain *referenceframe.PoseChain[float64], normal spatialmath.Vector3[float64], yaw float64) spatialmath.Pose[float64] {
	return a.Hand(chain).Surface(normal, yaw)
}
