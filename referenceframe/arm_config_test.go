package referenceframe

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"
	"go.viam.com/test"
)

const twoLinkJSON = `{
	"name": "planar",
	"links": [
		{"id": "shoulder", "offset": {"x": 0, "y": 0, "z": 0.1}, "axis": {"x": 0, "y": 0, "z": 1}},
		{"id": "elbow", "offset": {"x": 0.3, "y": 0, "z": 0}, "axis": {"x": 0, "y": 0, "z": 2}}
	],
	"tool": {"translation": {"x": 0.2, "y": 0, "z": 0}, "rpy_deg": {"x": 0, "y": 0, "z": 90}},
	"camera": {
		"mount": {"translation": {"x": 0, "y": 0, "z": 0.05}, "rpy_deg": {"x": 0, "y": 0, "z": 0}},
		"yaw_deg": 0,
		"horizontal_half_angle_deg": 45,
		"vertical_half_angle_deg": 30
	}
}`

func TestUnmarshalArmConfigJSON(t *testing.T) {
	cfg, err := UnmarshalArmConfigJSON([]byte(twoLinkJSON))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Name, test.ShouldEqual, "planar")
	test.That(t, cfg.DoF(), test.ShouldEqual, 2)
	test.That(t, cfg.Links[1].ID, test.ShouldEqual, "elbow")
	test.That(t, cfg.Offsets()[1], test.ShouldResemble, v3(0.3, 0, 0))
	test.That(t, cfg.Axes()[1], test.ShouldResemble, v3(0, 0, 2))

	test.That(t, cfg.Tool, test.ShouldNotBeNil)
	tool := cfg.Tool.Pose()
	test.That(t, tool.Point, test.ShouldResemble, v3(0.2, 0, 0))
	test.That(t, tool.Orientation.EulerAngles().Z, test.ShouldAlmostEqual, math.Pi/2)

	test.That(t, cfg.Camera, test.ShouldNotBeNil)
	test.That(t, cfg.Camera.TanH(), test.ShouldAlmostEqual, 1.)
	test.That(t, cfg.Camera.TanV(), test.ShouldAlmostEqual, math.Tan(math.Pi/6))
	test.That(t, cfg.Camera.Depth(), test.ShouldEqual, defaultCameraZLen)

	chain, err := NewPoseChainFromConfig(cfg, []float64{math.Pi / 2, 0}, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.Last().Point.AlmostEqual(v3(0, 0.3, 0.1)), test.ShouldBeTrue)
}

func TestUnmarshalArmConfigErrors(t *testing.T) {
	_, err := UnmarshalArmConfigJSON(nil)
	test.That(t, err, test.ShouldBeError, ErrNoArmInformation)

	_, err = UnmarshalArmConfigJSON([]byte(`{"links": [`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to unmarshal json file")
}

func TestArmConfigValidate(t *testing.T) {
	cfg := DefaultSixAxisConfig()
	test.That(t, cfg.Validate(), test.ShouldBeNil)

	cfg.Links[2].Axis.Y = 0
	cfg.Camera.HorizontalHalfAngleDeg = 0
	cfg.Camera.VerticalHalfAngleDeg = 95
	cfg.Camera.ZLen = -1
	err := cfg.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, len(multierr.Errors(err)), test.ShouldEqual, 4)
	test.That(t, err.Error(), test.ShouldContainSubstring, `link 2 ("elbow")`)
	test.That(t, err.Error(), test.ShouldContainSubstring, "horizontal half angle")
	test.That(t, err.Error(), test.ShouldContainSubstring, "vertical half angle")
	test.That(t, err.Error(), test.ShouldContainSubstring, "z_len")

	empty := &ArmConfig{Name: "empty"}
	err = empty.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, ErrNoArmInformation.Error())
}

func TestParseArmConfigJSONFile(t *testing.T) {
	data, err := json.Marshal(DefaultSixAxisConfig())
	test.That(t, err, test.ShouldBeNil)

	path := filepath.Join(t.TempDir(), "arm.json")
	test.That(t, os.WriteFile(path, data, 0o600), test.ShouldBeNil)

	cfg, err := ParseArmConfigJSONFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg, test.ShouldResemble, DefaultSixAxisConfig())

	_, err = ParseArmConfigJSONFile(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "failed to read json file")
}

func TestArmConfigFromAttributes(t *testing.T) {
	attrs := map[string]interface{}{
		"name": "attr_arm",
		"links": []interface{}{
			map[string]interface{}{
				"id":     "base",
				"offset": map[string]interface{}{"x": 0, "y": 0, "z": 0.2},
				"axis":   map[string]interface{}{"x": 0, "y": 0, "z": 1},
			},
		},
		"camera": map[string]interface{}{
			"yaw_deg":                   "-90",
			"horizontal_half_angle_deg": 20,
			"vertical_half_angle_deg":   10.0,
		},
	}
	cfg, err := ArmConfigFromAttributes(attrs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Name, test.ShouldEqual, "attr_arm")
	test.That(t, cfg.Offsets()[0], test.ShouldResemble, v3(0, 0, 0.2))
	test.That(t, cfg.Camera.YawDeg, test.ShouldEqual, -90.)
	test.That(t, cfg.Camera.HorizontalHalfAngleDeg, test.ShouldEqual, 20.)
	test.That(t, cfg.Tool, test.ShouldBeNil)

	_, err = ArmConfigFromAttributes(map[string]interface{}{})
	test.That(t, err, test.ShouldBeError, ErrNoArmInformation)

	_, err = ArmConfigFromAttributes(map[string]interface{}{"links": "not a list"})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ArmConfigFromAttributes(map[string]interface{}{"name": "x", "joints": []interface{}{}})
	test.That(t, err, test.ShouldNotBeNil)
}
