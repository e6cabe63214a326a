// Package referenceframe builds chains of frames from joint geometry and joint angles, and holds the arm geometry
// configuration those chains are built from.
package referenceframe

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/armkin/spatialmath"
)

// PoseChain is an ordered list of frames. Index 0 is the base; every later frame is expressed in the reference
// frame, not relative to its predecessor.
type PoseChain[T spatialmath.Float] struct {
	poses []spatialmath.Pose[T]
}

// NewPoseChain builds base, base*L0, base*L0*L1, ... where Li is the pose (offsets[i], rotation of angles[i] about
// axes[i]). A nil base is the zero pose. The result has len(offsets)+1 frames.
func NewPoseChain[T spatialmath.Float](
	offsets, axes []spatialmath.Vector3[T],
	angles []T,
	base *spatialmath.Pose[T],
) (*PoseChain[T], error) {
	if len(offsets) == 0 {
		return nil, errors.New("cannot build a pose chain without links")
	}
	if len(axes) != len(offsets) || len(angles) != len(offsets) {
		return nil, errors.Errorf(
			"pose chain inputs disagree in length: %d offsets, %d axes, %d angles",
			len(offsets), len(axes), len(angles),
		)
	}

	poses := make([]spatialmath.Pose[T], 0, len(offsets)+1)
	if base == nil {
		poses = append(poses, spatialmath.NewZeroPose[T]())
	} else {
		poses = append(poses, *base)
	}
	for i, offset := range offsets {
		link := spatialmath.NewPose(offset, spatialmath.NewQuaternionFromAxisAngle(axes[i], angles[i]))
		poses = append(poses, poses[i].Compose(link))
	}
	return &PoseChain[T]{poses: poses}, nil
}

// NewPoseChainFromConfig builds the chain for the configured links at the given joint angles. The tool, if any,
// is not appended.
func NewPoseChainFromConfig(cfg *ArmConfig, angles []float64, base *spatialmath.Pose[float64]) (*PoseChain[float64], error) {
	if cfg == nil {
		return nil, ErrNoArmInformation
	}
	if len(angles) != cfg.DoF() {
		return nil, errors.Errorf("arm %q has %d joints but %d angles were given", cfg.Name, cfg.DoF(), len(angles))
	}
	return NewPoseChain(cfg.Offsets(), cfg.Axes(), angles, base)
}

// Append returns a new chain extended by one frame, rel expressed relative to the current last frame.
func (pc *PoseChain[T]) Append(rel spatialmath.Pose[T]) *PoseChain[T] {
	poses := make([]spatialmath.Pose[T], len(pc.poses), len(pc.poses)+1)
	copy(poses, pc.poses)
	return &PoseChain[T]{poses: append(poses, pc.Last().Compose(rel))}
}

// At returns frame i. Negative indices count from the end, so At(-1) is the last frame. Out of range panics.
func (pc *PoseChain[T]) At(i int) spatialmath.Pose[T] {
	n := len(pc.poses)
	idx := i
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		panic(fmt.Sprintf("pose chain index %d out of range for length %d", i, n))
	}
	return pc.poses[idx]
}

// Len returns the number of frames, including the base.
func (pc *PoseChain[T]) Len() int {
	return len(pc.poses)
}

// Last returns the final frame.
func (pc *PoseChain[T]) Last() spatialmath.Pose[T] {
	return pc.At(-1)
}

// Poses returns a copy of every frame.
func (pc *PoseChain[T]) Poses() []spatialmath.Pose[T] {
	out := make([]spatialmath.Pose[T], len(pc.poses))
	copy(out, pc.poses)
	return out
}

// Points returns the origin of every frame.
func (pc *PoseChain[T]) Points() []spatialmath.Vector3[T] {
	return lo.Map(pc.poses, func(p spatialmath.Pose[T], _ int) spatialmath.Vector3[T] {
		return p.Point
	})
}

// Orientations returns the orientation of every frame.
func (pc *PoseChain[T]) Orientations() []spatialmath.Quaternion[T] {
	return lo.Map(pc.poses, func(p spatialmath.Pose[T], _ int) spatialmath.Quaternion[T] {
		return p.Orientation
	})
}

func (pc *PoseChain[T]) String() string {
	var sb strings.Builder
	for i, p := range pc.poses {
		fmt.Fprintf(&sb, "<link%d>\n%v\n", i, p)
	}
	return sb.String()
}
