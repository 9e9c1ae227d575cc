package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"go.viam.com/test"

	"go.viam.com/kinematics/kinematics"
	svckinematics "go.viam.com/kinematics/services/kinematics"
)

const testConfig = "../../services/kinematics/testdata/config.yaml"

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out).Run(append([]string{"kinematics", "--config", testConfig}, args...))
	return out.Bytes(), err
}

func TestInfoCommand(t *testing.T) {
	out, err := run(t, "info")
	test.That(t, err, test.ShouldBeNil)
	var info svckinematics.SolverInfo
	test.That(t, json.Unmarshal(out, &info), test.ShouldBeNil)
	test.That(t, info.Tip, test.ShouldEqual, "tool0")
	test.That(t, info.JointNames, test.ShouldResemble, []string{"shoulder", "elbow"})
}

func TestFKCommand(t *testing.T) {
	out, err := run(t, "fk", "--joints", "0,1.5707963267948966", "--links", "forearm_link", "--links", "tool0")
	test.That(t, err, test.ShouldBeNil)
	var resp svckinematics.FKResponse
	test.That(t, json.Unmarshal(out, &resp), test.ShouldBeNil)
	test.That(t, resp.Poses, test.ShouldHaveLength, 2)
	test.That(t, resp.Poses[1].Pose.Position.X, test.ShouldAlmostEqual, 1.)
	test.That(t, resp.Poses[1].Pose.Position.Y, test.ShouldAlmostEqual, 1.)

	_, err = run(t, "fk", "--joints", "0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestVelocityIKCommand(t *testing.T) {
	out, err := run(t, "vik", "--joints", "0.3,0.4", "--twist", "0,0,0,0,0,1")
	test.That(t, err, test.ShouldBeNil)
	var resp svckinematics.VelocityIKResponse
	test.That(t, json.Unmarshal(out, &resp), test.ShouldBeNil)
	test.That(t, resp.Velocities, test.ShouldHaveLength, 2)
}

func TestPositionIKCommand(t *testing.T) {
	out, err := run(t, "ik", "--joints", "0,0", "--position", "1,1,0", "--orientation", "0,0,0,1")
	test.That(t, err, test.ShouldBeNil)
	var resp svckinematics.PositionIKResponse
	test.That(t, json.Unmarshal(out, &resp), test.ShouldBeNil)
	test.That(t, resp.ErrorCode, test.ShouldEqual, svckinematics.ErrorCodeSuccess)
	test.That(t, resp.JointState.Positions[0], test.ShouldAlmostEqual, math.Pi/2, 1e-4)

	// the best effort is still printed
	out, err = run(t, "ik", "--joints", "0,0", "--position", "5,0,0")
	test.That(t, errors.Is(err, kinematics.ErrNoConvergence), test.ShouldBeTrue)
	test.That(t, json.Unmarshal(out, &resp), test.ShouldBeNil)
	test.That(t, resp.ErrorCode, test.ShouldEqual, svckinematics.ErrorCodeNoConvergence)

	_, err = run(t, "ik", "--joints", "0,0", "--position", "1,1")
	test.That(t, err, test.ShouldNotBeNil)
}
