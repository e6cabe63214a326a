package referenceframe

import (
	"encoding/json"
	"math"
	"os"

	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/armkin/spatialmath"
	"go.viam.com/armkin/utils"
)

// ErrNoArmInformation is used when there is no arm information.
var ErrNoArmInformation = errors.New("no arm information")

// defaultCameraZLen is the depth of the camera's far rectangle used when none is configured.
const defaultCameraZLen = 0.05

// LinkConfig is one revolute joint: the translation from the previous frame and the rotation axis, both in the
// previous frame.
type LinkConfig struct {
	ID     string    `json:"id,omitempty"`
	Offset r3.Vector `json:"offset"`
	Axis   r3.Vector `json:"axis"`
}

// PoseConfig is a fixed transform given as a translation in meters and roll/pitch/yaw in degrees.
type PoseConfig struct {
	Translation r3.Vector `json:"translation"`
	RPYDeg      r3.Vector `json:"rpy_deg"`
}

// Pose converts the config into a pose.
func (pc PoseConfig) Pose() spatialmath.Pose[float64] {
	return spatialmath.NewPose(
		spatialmath.NewVector3FromR3[float64](pc.Translation),
		spatialmath.NewQuaternionFromEuler(
			utils.DegToRad(pc.RPYDeg.X),
			utils.DegToRad(pc.RPYDeg.Y),
			utils.DegToRad(pc.RPYDeg.Z),
		),
	)
}

// CameraConfig describes a pinhole camera mounted on the flange.
type CameraConfig struct {
	Mount                  PoseConfig `json:"mount"`
	YawDeg                 float64    `json:"yaw_deg"`
	HorizontalHalfAngleDeg float64    `json:"horizontal_half_angle_deg"`
	VerticalHalfAngleDeg   float64    `json:"vertical_half_angle_deg"`
	ZLen                   float64    `json:"z_len,omitempty"`
}

// TanH returns the tangent of the horizontal half field of view.
func (cc *CameraConfig) TanH() float64 {
	return math.Tan(utils.DegToRad(cc.HorizontalHalfAngleDeg))
}

// TanV returns the tangent of the vertical half field of view.
func (cc *CameraConfig) TanV() float64 {
	return math.Tan(utils.DegToRad(cc.VerticalHalfAngleDeg))
}

// Depth returns the configured far rectangle depth, or the default when unset.
func (cc *CameraConfig) Depth() float64 {
	if cc.ZLen == 0 {
		return defaultCameraZLen
	}
	return cc.ZLen
}

// ArmConfig represents all supported fields in an arm geometry JSON file.
type ArmConfig struct {
	Name   string        `json:"name"`
	Links  []LinkConfig  `json:"links"`
	Tool   *PoseConfig   `json:"tool,omitempty"`
	Camera *CameraConfig `json:"camera,omitempty"`
}

// UnmarshalArmConfigJSON parses and validates an arm geometry JSON document.
func UnmarshalArmConfigJSON(jsonData []byte) (*ArmConfig, error) {
	// empty data probably means that the arm has no geometry information
	if len(jsonData) == 0 {
		return nil, ErrNoArmInformation
	}

	cfg := &ArmConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseArmConfigJSONFile reads and validates an arm geometry JSON file.
func ParseArmConfigJSONFile(filename string) (*ArmConfig, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalArmConfigJSON(jsonData)
}

// ArmConfigFromAttributes decodes an attribute map, as found in a component configuration, into an ArmConfig.
func ArmConfigFromAttributes(attributes map[string]interface{}) (*ArmConfig, error) {
	if len(attributes) == 0 {
		return nil, ErrNoArmInformation
	}

	cfg := &ArmConfig{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "failed to decode arm attributes")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns every problem found in the config.
func (cfg *ArmConfig) Validate() error {
	var err error
	if len(cfg.Links) == 0 {
		err = multierr.Append(err, errors.Wrap(ErrNoArmInformation, "arm config has no links"))
	}
	for i, link := range cfg.Links {
		if link.Axis.Norm() <= spatialmath.Epsilon[float64]() {
			err = multierr.Append(err, errors.Errorf("link %d (%q) has a zero-length rotation axis", i, link.ID))
		}
	}
	if cfg.Camera != nil {
		if h := cfg.Camera.HorizontalHalfAngleDeg; h <= 0 || h >= 90 {
			err = multierr.Append(err, errors.Errorf("camera horizontal half angle %v must be in (0, 90) degrees", h))
		}
		if v := cfg.Camera.VerticalHalfAngleDeg; v <= 0 || v >= 90 {
			err = multierr.Append(err, errors.Errorf("camera vertical half angle %v must be in (0, 90) degrees", v))
		}
		if cfg.Camera.ZLen < 0 {
			err = multierr.Append(err, errors.Errorf("camera z_len %v cannot be negative", cfg.Camera.ZLen))
		}
	}
	return err
}

// DoF returns the number of joints.
func (cfg *ArmConfig) DoF() int {
	return len(cfg.Links)
}

// Offsets returns the link translations in chain order.
func (cfg *ArmConfig) Offsets() []spatialmath.Vector3[float64] {
	return lo.Map(cfg.Links, func(l LinkConfig, _ int) spatialmath.Vector3[float64] {
		return spatialmath.NewVector3FromR3[float64](l.Offset)
	})
}

// Axes returns the link rotation axes in chain order.
func (cfg *ArmConfig) Axes() []spatialmath.Vector3[float64] {
	return lo.Map(cfg.Links, func(l LinkConfig, _ int) spatialmath.Vector3[float64] {
		return spatialmath.NewVector3FromR3[float64](l.Axis)
	})
}

// DefaultSixAxisConfig returns the geometry of the six axis arm with a wrist camera that the servo loop was
// developed against.
func DefaultSixAxisConfig() *ArmConfig {
	return &ArmConfig{
		Name: "six_axis",
		Links: []LinkConfig{
			{ID: "base", Offset: r3.Vector{Z: 0.295}, Axis: r3.Vector{Z: 1}},
			{ID: "shoulder", Offset: r3.Vector{Y: 0.0797}, Axis: r3.Vector{Y: 1}},
			{ID: "elbow", Offset: r3.Vector{Y: -0.0367, Z: 0.230}, Axis: r3.Vector{Y: 1}},
			{ID: "forearm", Offset: r3.Vector{X: -0.05, Y: -0.043, Z: 0.0725}, Axis: r3.Vector{Z: 1}},
			{ID: "wrist_1", Offset: r3.Vector{Z: 0.1975}, Axis: r3.Vector{Y: 1}},
			{ID: "wrist_2", Offset: r3.Vector{Z: 0.07}, Axis: r3.Vector{Z: 1}},
		},
		Tool: &PoseConfig{
			Translation: r3.Vector{Z: 0.1},
			RPYDeg:      r3.Vector{X: 90},
		},
		Camera: &CameraConfig{
			Mount: PoseConfig{
				Translation: r3.Vector{X: -0.07},
				RPYDeg:      r3.Vector{Y: 10},
			},
			YawDeg:                 -90,
			HorizontalHalfAngleDeg: 20,
			VerticalHalfAngleDeg:   10,
			ZLen:                   defaultCameraZLen,
		},
	}
}
