// Package kinematics solves forward and inverse kinematics of a serial chain: tip pose from joint
// values, joint velocities from a tip twist, and joint values from a tip pose.
package kinematics

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/spatialmath"
)

// ForwardSolver computes segment poses in the chain's root frame. It holds no mutable state and is
// safe for concurrent use.
type ForwardSolver struct {
	chain *referenceframe.Chain
}

// NewForwardSolver returns a forward solver for the chain.
func NewForwardSolver(chain *referenceframe.Chain) *ForwardSolver {
	return &ForwardSolver{chain: chain}
}

// Chain returns the chain being solved.
func (fk *ForwardSolver) Chain() *referenceframe.Chain {
	return fk.chain
}

// Solve returns the pose of the tip in the root frame.
func (fk *ForwardSolver) Solve(inputs []referenceframe.Input) (spatialmath.Pose, error) {
	return fk.SolveSegment(inputs, fk.chain.NumLinks()-1)
}

// SolveSegment returns the pose of segment idx in the root frame, walking only the segments up to
// and including it.
func (fk *ForwardSolver) SolveSegment(inputs []referenceframe.Input, idx int) (spatialmath.Pose, error) {
	if err := fk.chain.CheckInputs(inputs); err != nil {
		return nil, err
	}
	if idx < 0 || idx >= fk.chain.NumLinks() {
		return nil, referenceframe.NewModelError("segment index %d out of range [0, %d)", idx, fk.chain.NumLinks())
	}
	pose := spatialmath.NewZeroPose()
	for i := 0; i <= idx; i++ {
		pose = spatialmath.Compose(pose, fk.segmentTransform(inputs, i))
	}
	return pose, nil
}

// SolveAll returns the pose of every segment in the root frame, in chain order. The last element
// is the tip pose.
func (fk *ForwardSolver) SolveAll(inputs []referenceframe.Input) ([]spatialmath.Pose, error) {
	if err := fk.chain.CheckInputs(inputs); err != nil {
		return nil, err
	}
	poses := make([]spatialmath.Pose, fk.chain.NumLinks())
	pose := spatialmath.NewZeroPose()
	for i := range poses {
		pose = spatialmath.Compose(pose, fk.segmentTransform(inputs, i))
		poses[i] = pose
	}
	return poses, nil
}

func (fk *ForwardSolver) segmentTransform(inputs []referenceframe.Input, i int) spatialmath.Pose {
	seg := fk.chain.Segment(i)
	if j := fk.chain.JointOfSegment(i); j >= 0 {
		return seg.Transform(inputs[j].Value)
	}
	return seg.Transform(0)
}

// Jacobian returns the 6xn geometric Jacobian of the tip in the root frame. Rows are
// (vx, vy, vz, wx, wy, wz) of the tip reference point and column i is the tip twist produced by a
// unit velocity of joint i.
func (fk *ForwardSolver) Jacobian(inputs []referenceframe.Input) (*mat.Dense, error) {
	if err := fk.chain.CheckInputs(inputs); err != nil {
		return nil, err
	}
	n := fk.chain.NumJoints()
	jac := mat.NewDense(spatialmath.TwistLen, n, nil)

	// A joint's axis is fixed in the frame after its segment offset, so its world axis and origin
	// come from the pose before the joint motion is applied.
	pose := spatialmath.NewZeroPose()
	axes := make([]r3.Vector, n)
	origins := make([]r3.Vector, n)
	for i := 0; i < fk.chain.NumLinks(); i++ {
		seg := fk.chain.Segment(i)
		j := fk.chain.JointOfSegment(i)
		if j < 0 {
			pose = spatialmath.Compose(pose, seg.Offset)
			continue
		}
		jointFrame := spatialmath.Compose(pose, seg.Offset)
		axes[j] = spatialmath.RotatePoint(jointFrame.Orientation(), seg.Joint.Axis)
		origins[j] = jointFrame.Point()
		pose = spatialmath.Compose(jointFrame, seg.Joint.Motion(inputs[j].Value))
	}
	tip := pose.Point()

	for j := 0; j < n; j++ {
		var linear, angular r3.Vector
		switch fk.chain.Segment(fk.chain.SegmentOfJoint(j)).Joint.Type {
		case referenceframe.PrismaticJoint:
			linear = axes[j]
		case referenceframe.RevoluteJoint:
			linear = axes[j].Cross(tip.Sub(origins[j]))
			angular = axes[j]
		case referenceframe.FixedJoint, referenceframe.ContinuousJoint:
		}
		jac.SetCol(j, spatialmath.Twist{Linear: linear, Angular: angular}.Vector())
	}
	return jac, nil
}
