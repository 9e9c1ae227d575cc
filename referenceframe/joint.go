package referenceframe

import (
	"github.com/golang/geo/r3"

	"go.viam.com/kinematics/spatialmath"
)

// JointType is the kind of motion a joint allows.
type JointType string

// The joint types understood by the chain. ContinuousJoint is only accepted by the loaders, which
// turn it into an unlimited RevoluteJoint.
const (
	RevoluteJoint   JointType = "revolute"
	PrismaticJoint  JointType = "prismatic"
	FixedJoint      JointType = "fixed"
	ContinuousJoint JointType = "continuous"
)

// Joint is the single-axis motion at the end of a segment.
type Joint struct {
	Name string
	Type JointType
	// Axis is a unit vector in the frame after the segment offset.
	Axis  r3.Vector
	Limit Limit
}

// Movable returns whether the joint consumes an input.
func (j Joint) Movable() bool {
	return j.Type == RevoluteJoint || j.Type == PrismaticJoint
}

// Motion returns the pose produced by moving the joint to value q.
func (j Joint) Motion(q float64) spatialmath.Pose {
	switch j.Type {
	case RevoluteJoint:
		return spatialmath.NewPoseFromOrientation(&spatialmath.R4AA{Theta: q, RX: j.Axis.X, RY: j.Axis.Y, RZ: j.Axis.Z})
	case PrismaticJoint:
		return spatialmath.NewPoseFromPoint(j.Axis.Mul(q))
	case FixedJoint, ContinuousJoint:
	}
	return spatialmath.NewZeroPose()
}

// Segment is one rigid body of the chain: a fixed offset from its parent followed by a joint.
type Segment struct {
	Name string
	// Parent is the name of the previous segment, or the chain root for the first one.
	Parent string
	Offset spatialmath.Pose
	Joint  Joint
}

// Transform returns Offset composed with the joint motion at q. q is ignored for fixed joints.
func (s Segment) Transform(q float64) spatialmath.Pose {
	if !s.Joint.Movable() {
		return s.Offset
	}
	return spatialmath.Compose(s.Offset, s.Joint.Motion(q))
}
