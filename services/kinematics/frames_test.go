package kinematics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/spatialmath"
)

func testFrames(t *testing.T) *StaticFrameLookup {
	t.Helper()
	frames, err := NewStaticFrameLookup([]referenceframe.LinkConfig{
		{ID: "base_link", Parent: "world", Translation: r3.Vector{Z: 0.5}},
		{ID: "table", Parent: "world", Translation: r3.Vector{X: 1, Z: 0.5}, Orientation: &spatialmath.R4AA{Theta: 90, RZ: 1}},
		{ID: "fixture", Parent: "table", Translation: r3.Vector{X: 0.2}},
		{ID: "other_root_child", Parent: "elsewhere"},
	})
	test.That(t, err, test.ShouldBeNil)
	return frames
}

func TestStaticFrameLookup(t *testing.T) {
	ctx := context.Background()
	frames := testFrames(t)

	pose := spatialmath.NewPoseFromPoint(r3.Vector{X: 1})
	same, err := frames.TransformPose(ctx, pose, "table", "table")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(same, pose), test.ShouldBeTrue)

	// (1, 0, 0) in the table frame is (1, 1, 0.5) in the world, and (1, 1, 0) from the base.
	inWorld, err := frames.TransformPose(ctx, pose, "table", "world")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostCoincidentEps(inWorld, spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 1, Z: 0.5}), 1e-9),
		test.ShouldBeTrue)
	inBase, err := frames.TransformPose(ctx, pose, "table", "base_link")
	test.That(t, err, test.ShouldBeNil)
	expected := spatialmath.NewPose(r3.Vector{X: 1, Y: 1}, &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1})
	test.That(t, spatialmath.PoseAlmostEqual(inBase, expected), test.ShouldBeTrue)

	back, err := frames.TransformPose(ctx, inBase, "base_link", "table")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(back, pose), test.ShouldBeTrue)

	// chained parents
	origin, err := frames.TransformPose(ctx, spatialmath.NewZeroPose(), "fixture", "world")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, origin.Point().X, test.ShouldAlmostEqual, 1.)
	test.That(t, origin.Point().Y, test.ShouldAlmostEqual, 0.2)
	test.That(t, origin.Point().Z, test.ShouldAlmostEqual, 0.5)
}

func TestStaticFrameLookupErrors(t *testing.T) {
	ctx := context.Background()
	frames := testFrames(t)

	_, err := frames.TransformPose(ctx, spatialmath.NewZeroPose(), "shelf", "world")
	test.That(t, errors.Is(err, ErrUnknownFrame), test.ShouldBeTrue)
	_, err = frames.TransformPose(ctx, spatialmath.NewZeroPose(), "table", "other_root_child")
	test.That(t, errors.Is(err, ErrUnknownFrame), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not connected")

	for _, configs := range [][]referenceframe.LinkConfig{
		{{ID: "a", Parent: "b"}, {ID: "b", Parent: "a"}},
		{{ID: "a", Parent: "a"}},
		{{ID: "a", Parent: "world"}, {ID: "a", Parent: "world"}},
		{{ID: "a"}},
	} {
		_, err := NewStaticFrameLookup(configs)
		test.That(t, err, test.ShouldNotBeNil)
	}

	empty, err := NewStaticFrameLookup(nil)
	test.That(t, err, test.ShouldBeNil)
	_, err = empty.TransformPose(ctx, spatialmath.NewZeroPose(), "a", "b")
	test.That(t, errors.Is(err, ErrUnknownFrame), test.ShouldBeTrue)
}
