package referenceframe

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/kinematics/spatialmath"
)

func planarSegments() []Segment {
	return []Segment{
		{
			Name:   "upper",
			Parent: "base",
			Joint:  Joint{Name: "shoulder", Type: RevoluteJoint, Axis: r3.Vector{Z: 2}, Limit: Limit{-math.Pi, math.Pi}},
		},
		{
			Name:   "forearm",
			Parent: "upper",
			Offset: spatialmath.NewPoseFromPoint(r3.Vector{X: 1}),
			Joint:  Joint{Name: "elbow", Type: RevoluteJoint, Axis: r3.Vector{Z: 1}, Limit: Limit{-math.Pi, math.Pi}},
		},
		{
			Name:   "tool",
			Parent: "forearm",
			Offset: spatialmath.NewPoseFromPoint(r3.Vector{X: 1}),
			Joint:  Joint{Type: FixedJoint},
		},
	}
}

func TestNewChain(t *testing.T) {
	chain, err := NewChain("planar", "base", planarSegments())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, chain.Name(), test.ShouldEqual, "planar")
	test.That(t, chain.RootName(), test.ShouldEqual, "base")
	test.That(t, chain.TipName(), test.ShouldEqual, "tool")
	test.That(t, chain.NumJoints(), test.ShouldEqual, 2)
	test.That(t, chain.NumLinks(), test.ShouldEqual, 3)
	test.That(t, chain.LinkNames(), test.ShouldResemble, []string{"upper", "forearm", "tool"})
	test.That(t, chain.JointNames(), test.ShouldResemble, []string{"shoulder", "elbow"})
	test.That(t, chain.JointTypes(), test.ShouldResemble, []JointType{RevoluteJoint, RevoluteJoint})
	test.That(t, chain.LowerLimits(), test.ShouldResemble, []float64{-math.Pi, -math.Pi})
	test.That(t, chain.UpperLimits(), test.ShouldResemble, []float64{math.Pi, math.Pi})

	// axes are normalized on construction
	test.That(t, chain.Segment(0).Joint.Axis.Z, test.ShouldEqual, 1.)

	idx, ok := chain.JointIndex("elbow")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, idx, test.ShouldEqual, 1)
	_, ok = chain.JointIndex("wrist")
	test.That(t, ok, test.ShouldBeFalse)

	idx, ok = chain.SegmentIndex("tool")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, idx, test.ShouldEqual, 2)
	_, ok = chain.SegmentIndex("gripper")
	test.That(t, ok, test.ShouldBeFalse)

	test.That(t, chain.JointOfSegment(2), test.ShouldEqual, -1)
	test.That(t, chain.JointOfSegment(1), test.ShouldEqual, 1)
	test.That(t, chain.SegmentOfJoint(0), test.ShouldEqual, 0)

	// DoF hands out a copy
	dof := chain.DoF()
	dof[0].Min = 0
	test.That(t, chain.DoF()[0].Min, test.ShouldEqual, -math.Pi)

	err = chain.CheckInputs(FloatsToInputs([]float64{0}))
	test.That(t, errors.Is(err, ErrDimension), test.ShouldBeTrue)
	test.That(t, chain.CheckInputs(FloatsToInputs([]float64{0, 0})), test.ShouldBeNil)
}

func TestNewChainErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		root   string
		mutate func([]Segment) []Segment
		msg    string
	}{
		{"empty", "base", func([]Segment) []Segment { return nil }, "no segments"},
		{"no root", "", func(s []Segment) []Segment { return s }, "no root"},
		{
			"inverted limits", "base",
			func(s []Segment) []Segment { s[1].Joint.Limit = Limit{1, -1}; return s },
			"greater than max",
		},
		{
			"disconnected", "base",
			func(s []Segment) []Segment { s[2].Parent = "upper_link"; return s },
			"disconnected",
		},
		{
			"branch", "base",
			func(s []Segment) []Segment { s[2].Parent = "upper"; return s },
			"branches",
		},
		{
			"no movable joints", "base",
			func(s []Segment) []Segment {
				s[0].Joint = Joint{Type: FixedJoint}
				s[1].Joint = Joint{Type: FixedJoint}
				return s
			},
			"no movable joints",
		},
		{
			"zero axis", "base",
			func(s []Segment) []Segment { s[0].Joint.Axis = r3.Vector{}; return s },
			"no axis",
		},
		{
			"duplicate segment", "base",
			func(s []Segment) []Segment { s[1].Name = "upper"; return s },
			"duplicate segment",
		},
		{
			"duplicate joint", "base",
			func(s []Segment) []Segment { s[1].Joint.Name = "shoulder"; return s },
			"duplicate joint",
		},
		{
			"unknown type", "base",
			func(s []Segment) []Segment { s[1].Joint.Type = "spherical"; return s },
			"unsupported joint type",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewChain("planar", tc.root, tc.mutate(planarSegments()))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, errors.Is(err, ErrModel), test.ShouldBeTrue)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}

func TestSegmentTransform(t *testing.T) {
	segs := planarSegments()
	pose := spatialmath.NewZeroPose()
	for i, q := range []float64{math.Pi / 2, -math.Pi / 2, 0} {
		seg := segs[i]
		if seg.Offset == nil {
			seg.Offset = spatialmath.NewZeroPose()
		}
		pose = spatialmath.Compose(pose, seg.Transform(q))
	}
	test.That(t, pose.Point().X, test.ShouldAlmostEqual, 1.)
	test.That(t, pose.Point().Y, test.ShouldAlmostEqual, 1.)

	prismatic := Joint{Type: PrismaticJoint, Axis: r3.Vector{Y: 1}}
	test.That(t, prismatic.Motion(0.25).Point().Y, test.ShouldAlmostEqual, 0.25)
	test.That(t, Joint{Type: FixedJoint}.Movable(), test.ShouldBeFalse)
}
