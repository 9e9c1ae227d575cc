package kinematics

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.viam.com/test"
)

func post(t *testing.T, url, body string) (int, []byte) {
	t.Helper()
	//nolint:noctx
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	return resp.StatusCode, data
}

func get(t *testing.T, url string) (int, []byte) {
	t.Helper()
	//nolint:noctx
	resp, err := http.Get(url)
	test.That(t, err, test.ShouldBeNil)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	test.That(t, err, test.ShouldBeNil)
	return resp.StatusCode, data
}

func TestHandler(t *testing.T) {
	server := httptest.NewServer(NewHandler(newTestService(t)))
	defer server.Close()

	status, body := get(t, server.URL+"/info")
	test.That(t, status, test.ShouldEqual, http.StatusOK)
	var info SolverInfo
	test.That(t, json.Unmarshal(body, &info), test.ShouldBeNil)
	test.That(t, info.JointNames, test.ShouldResemble, []string{"shoulder", "elbow"})

	status, body = post(t, server.URL+"/fk", `{"joint_state": {"positions": [0, 1.5707963267948966]}}`)
	test.That(t, status, test.ShouldEqual, http.StatusOK)
	var fk FKResponse
	test.That(t, json.Unmarshal(body, &fk), test.ShouldBeNil)
	test.That(t, fk.Poses, test.ShouldHaveLength, 1)
	test.That(t, fk.Poses[0].Pose.Position.X, test.ShouldAlmostEqual, 1.)
	test.That(t, fk.Poses[0].Pose.Position.Y, test.ShouldAlmostEqual, 1.)

	status, body = post(t, server.URL+"/ik/velocity",
		`{"joint_state": {"positions": [0.3, 0.4]}, "twist": [0, 0, 0, 0, 0, 1]}`)
	test.That(t, status, test.ShouldEqual, http.StatusOK)
	var vel VelocityIKResponse
	test.That(t, json.Unmarshal(body, &vel), test.ShouldBeNil)
	test.That(t, vel.Velocities, test.ShouldHaveLength, 2)

	status, body = post(t, server.URL+"/ik/position",
		`{"seed": {"positions": [0, 0]}, "pose": {"position": {"x": 1, "y": 1, "z": 0}}}`)
	test.That(t, status, test.ShouldEqual, http.StatusOK)
	var pos PositionIKResponse
	test.That(t, json.Unmarshal(body, &pos), test.ShouldBeNil)
	test.That(t, pos.ErrorCode, test.ShouldEqual, ErrorCodeSuccess)
	test.That(t, pos.JointState.Positions[0], test.ShouldAlmostEqual, math.Pi/2, 1e-4)

	status, body = post(t, server.URL+"/ik/position",
		`{"seed": {"positions": [0, 0]}, "pose": {"position": {"x": 5, "y": 0, "z": 0}}}`)
	test.That(t, status, test.ShouldEqual, http.StatusUnprocessableEntity)
	var failed NoConvergenceResponse
	test.That(t, json.Unmarshal(body, &failed), test.ShouldBeNil)
	test.That(t, failed.Error, test.ShouldContainSubstring, "did not converge")
	test.That(t, failed.PositionIKResponse, test.ShouldNotBeNil)
	test.That(t, failed.ErrorCode, test.ShouldEqual, ErrorCodeNoConvergence)
	test.That(t, failed.JointState.Positions, test.ShouldHaveLength, 2)

	status, body = get(t, server.URL+"/metrics")
	test.That(t, status, test.ShouldEqual, http.StatusOK)
	test.That(t, string(body), test.ShouldContainSubstring, `kinematics_requests_total{operation="position_ik",outcome="no_convergence"} 1`)
	test.That(t, string(body), test.ShouldContainSubstring, "kinematics_ik_iterations_count 2")
}

func TestHandlerErrors(t *testing.T) {
	server := httptest.NewServer(NewHandler(newTestService(t)))
	defer server.Close()

	for _, tc := range []struct {
		path string
		body string
		want int
	}{
		{"/fk", `{"joint_state": {"positions": [0]}}`, http.StatusBadRequest},
		{"/fk", `{"joint_state": {"positions": [0, 0]}, "link_names": ["camera_link"]}`, http.StatusBadRequest},
		{"/fk", `not json`, http.StatusBadRequest},
		{"/fk", `{"joint_sate": {}}`, http.StatusBadRequest},
		{"/ik/velocity", `{"joint_state": {"positions": [0, 0]}, "twist": [1]}`, http.StatusBadRequest},
		{"/ik/position", `{"seed": {"positions": [0, 0]}, "pose": {"position": {"x": 1}}, "frame_id": "shelf"}`, http.StatusBadRequest},
	} {
		status, body := post(t, server.URL+tc.path, tc.body)
		test.That(t, status, test.ShouldEqual, tc.want)
		var resp errorResponse
		test.That(t, json.Unmarshal(body, &resp), test.ShouldBeNil)
		test.That(t, resp.Error, test.ShouldNotBeEmpty)
	}

	status, _ := get(t, server.URL+"/fk")
	test.That(t, status, test.ShouldEqual, http.StatusMethodNotAllowed)
}
