// Package referenceframe describes serial kinematic chains: the joints and rigid offsets between a
// root frame and a tip frame, the limits of each joint, and loaders that build chains from JSON
// and URDF descriptions.
package referenceframe

import (
	"math"

	"github.com/samber/lo"

	"go.viam.com/kinematics/spatialmath"
)

// Chain is an immutable serial chain of segments from a root frame to a tip frame. Only movable
// joints consume inputs, so NumJoints can be smaller than NumLinks.
type Chain struct {
	name     string
	root     string
	segments []Segment

	// jointSegments[i] is the index of the segment holding joint i.
	jointSegments []int
	// segmentJoints[s] is the joint index of segment s, or -1 when the segment is fixed.
	segmentJoints []int
	limits        []Limit
}

// NewChain validates the segments and returns a chain rooted at root. Each segment's Parent must
// name the segment before it, or root for the first one. The returned error wraps ErrModel.
func NewChain(name, root string, segments []Segment) (*Chain, error) {
	if len(segments) == 0 {
		return nil, NewModelError("chain %q has no segments", name)
	}
	if root == "" {
		return nil, NewModelError("chain %q has no root name", name)
	}

	c := &Chain{
		name:          name,
		root:          root,
		segments:      make([]Segment, 0, len(segments)),
		segmentJoints: make([]int, 0, len(segments)),
	}
	segmentNames := map[string]bool{root: true}
	jointNames := map[string]bool{}
	children := map[string]string{}

	expectedParent := root
	for i, seg := range segments {
		if seg.Name == "" {
			return nil, NewModelError("segment %d has no name", i)
		}
		if segmentNames[seg.Name] {
			return nil, NewModelError("duplicate segment name %q", seg.Name)
		}
		segmentNames[seg.Name] = true

		if other, ok := children[seg.Parent]; ok {
			return nil, NewModelError("chain branches at %q: both %q and %q are children", seg.Parent, other, seg.Name)
		}
		children[seg.Parent] = seg.Name
		if seg.Parent != expectedParent {
			return nil, NewModelError("segment %q is disconnected: parent is %q, expected %q", seg.Name, seg.Parent, expectedParent)
		}
		expectedParent = seg.Name

		if seg.Offset == nil {
			seg.Offset = spatialmath.NewZeroPose()
		}

		switch seg.Joint.Type {
		case RevoluteJoint, PrismaticJoint:
			joint, err := validateJoint(seg.Joint)
			if err != nil {
				return nil, err
			}
			if jointNames[joint.Name] {
				return nil, NewModelError("duplicate joint name %q", joint.Name)
			}
			jointNames[joint.Name] = true
			seg.Joint = joint
			c.segmentJoints = append(c.segmentJoints, len(c.jointSegments))
			c.jointSegments = append(c.jointSegments, i)
			c.limits = append(c.limits, joint.Limit)
		case FixedJoint, "":
			seg.Joint.Type = FixedJoint
			c.segmentJoints = append(c.segmentJoints, -1)
		case ContinuousJoint:
			return nil, NewModelError("joint %q is continuous; use a revolute joint with infinite limits", seg.Joint.Name)
		default:
			return nil, NewUnsupportedJointTypeError(string(seg.Joint.Type))
		}
		c.segments = append(c.segments, seg)
	}

	if len(c.jointSegments) == 0 {
		return nil, NewModelError("chain %q has no movable joints", name)
	}
	return c, nil
}

func validateJoint(j Joint) (Joint, error) {
	if j.Name == "" {
		return j, NewModelError("movable joint has no name")
	}
	if math.IsNaN(j.Limit.Min) || math.IsNaN(j.Limit.Max) {
		return j, NewModelError("joint %q has NaN limits", j.Name)
	}
	if j.Limit.Min > j.Limit.Max {
		return j, NewModelError("joint %q has min limit %f greater than max limit %f", j.Name, j.Limit.Min, j.Limit.Max)
	}
	norm := j.Axis.Norm()
	if norm == 0 || math.IsNaN(norm) {
		return j, NewModelError("joint %q has no axis", j.Name)
	}
	j.Axis = j.Axis.Mul(1 / norm)
	return j, nil
}

// Name returns the name of the chain.
func (c *Chain) Name() string {
	return c.name
}

// RootName returns the name of the frame the chain is attached to.
func (c *Chain) RootName() string {
	return c.root
}

// TipName returns the name of the last segment.
func (c *Chain) TipName() string {
	return c.segments[len(c.segments)-1].Name
}

// NumJoints returns the number of movable joints, which is the length of every joint vector.
func (c *Chain) NumJoints() int {
	return len(c.jointSegments)
}

// NumLinks returns the number of segments.
func (c *Chain) NumLinks() int {
	return len(c.segments)
}

// Segment returns the segment at index i.
func (c *Chain) Segment(i int) Segment {
	return c.segments[i]
}

// JointOfSegment returns the joint index of segment i, or -1 if the segment is fixed.
func (c *Chain) JointOfSegment(i int) int {
	return c.segmentJoints[i]
}

// SegmentOfJoint returns the index of the segment holding joint j.
func (c *Chain) SegmentOfJoint(j int) int {
	return c.jointSegments[j]
}

// JointIndex returns the input index of the named movable joint.
func (c *Chain) JointIndex(name string) (int, bool) {
	for j, s := range c.jointSegments {
		if c.segments[s].Joint.Name == name {
			return j, true
		}
	}
	return -1, false
}

// SegmentIndex returns the index of the named segment.
func (c *Chain) SegmentIndex(name string) (int, bool) {
	_, idx, ok := lo.FindIndexOf(c.segments, func(s Segment) bool { return s.Name == name })
	return idx, ok
}

// LinkNames returns the segment names in chain order.
func (c *Chain) LinkNames() []string {
	return lo.Map(c.segments, func(s Segment, _ int) string { return s.Name })
}

// JointNames returns the movable joint names in input order.
func (c *Chain) JointNames() []string {
	return lo.Map(c.jointSegments, func(s, _ int) string { return c.segments[s].Joint.Name })
}

// JointTypes returns the movable joint types in input order.
func (c *Chain) JointTypes() []JointType {
	return lo.Map(c.jointSegments, func(s, _ int) JointType { return c.segments[s].Joint.Type })
}

// DoF returns a copy of the joint limits in input order.
func (c *Chain) DoF() []Limit {
	return append([]Limit(nil), c.limits...)
}

// LowerLimits returns the minimum of each joint in input order.
func (c *Chain) LowerLimits() []float64 {
	return lo.Map(c.limits, func(l Limit, _ int) float64 { return l.Min })
}

// UpperLimits returns the maximum of each joint in input order.
func (c *Chain) UpperLimits() []float64 {
	return lo.Map(c.limits, func(l Limit, _ int) float64 { return l.Max })
}

// CheckInputs returns a dimension error if inputs does not have one value per joint.
func (c *Chain) CheckInputs(inputs []Input) error {
	if len(inputs) != c.NumJoints() {
		return NewIncorrectDoFError(len(inputs), c.NumJoints())
	}
	return nil
}
