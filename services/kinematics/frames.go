package kinematics

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/spatialmath"
)

// ErrUnknownFrame is returned when a pose names a frame the lookup cannot place.
var ErrUnknownFrame = errors.New("unknown frame")

// FrameLookup converts poses between named frames.
type FrameLookup interface {
	// TransformPose returns pose, given in frame from, expressed in frame to.
	TransformPose(ctx context.Context, pose spatialmath.Pose, from, to string) (spatialmath.Pose, error)
}

type staticFrame struct {
	parent string
	offset spatialmath.Pose
}

// StaticFrameLookup is a FrameLookup over a fixed tree of frames. A frame that is only ever named
// as a parent is a root of the tree.
type StaticFrameLookup struct {
	frames map[string]staticFrame
	// parents holds every name used as a parent, so roots are known frames too.
	parents map[string]bool
}

// NewStaticFrameLookup builds a lookup from frame configs. Duplicate or self-parented frames and
// parent loops are errors.
func NewStaticFrameLookup(configs []referenceframe.LinkConfig) (*StaticFrameLookup, error) {
	sfl := &StaticFrameLookup{
		frames:  make(map[string]staticFrame, len(configs)),
		parents: map[string]bool{},
	}
	for _, cfg := range configs {
		if cfg.ID == "" || cfg.Parent == "" {
			return nil, errors.Errorf("frame %q needs both an id and a parent", cfg.ID)
		}
		if cfg.ID == cfg.Parent {
			return nil, errors.Errorf("frame %q is its own parent", cfg.ID)
		}
		if _, ok := sfl.frames[cfg.ID]; ok {
			return nil, errors.Errorf("duplicate frame %q", cfg.ID)
		}
		seg := cfg.ParseConfig()
		sfl.frames[cfg.ID] = staticFrame{parent: cfg.Parent, offset: seg.Offset}
		sfl.parents[cfg.Parent] = true
	}
	for name := range sfl.frames {
		if _, _, err := sfl.rootPose(name); err != nil {
			return nil, err
		}
	}
	return sfl, nil
}

// rootPose returns the pose of frame name in the root of its tree, and that root's name.
func (sfl *StaticFrameLookup) rootPose(name string) (spatialmath.Pose, string, error) {
	if _, ok := sfl.frames[name]; !ok && !sfl.parents[name] {
		return nil, "", errors.Wrapf(ErrUnknownFrame, "%q", name)
	}
	pose := spatialmath.NewZeroPose()
	seen := map[string]bool{}
	for {
		frame, ok := sfl.frames[name]
		if !ok {
			return pose, name, nil
		}
		if seen[name] {
			return nil, "", errors.Errorf("frame %q is part of a parent loop", name)
		}
		seen[name] = true
		pose = spatialmath.Compose(frame.offset, pose)
		name = frame.parent
	}
}

// TransformPose returns pose, given in frame from, expressed in frame to. Both frames must belong to
// the same tree.
func (sfl *StaticFrameLookup) TransformPose(
	ctx context.Context,
	pose spatialmath.Pose,
	from, to string,
) (spatialmath.Pose, error) {
	if from == to {
		return pose, nil
	}
	fromPose, fromRoot, err := sfl.rootPose(from)
	if err != nil {
		return nil, err
	}
	toPose, toRoot, err := sfl.rootPose(to)
	if err != nil {
		return nil, err
	}
	if fromRoot != toRoot {
		return nil, errors.Wrapf(ErrUnknownFrame, "frames %q and %q are not connected", from, to)
	}
	return spatialmath.Compose(spatialmath.PoseInverse(toPose), spatialmath.Compose(fromPose, pose)), nil
}
