package kinematics

import (
	"go.viam.com/kinematics/kinematics/kinmath"
	"go.viam.com/kinematics/spatialmath"
)

// StateMetric produces a score for an achieved pose. Lower is better.
type StateMetric func(actual spatialmath.Pose) float64

// PoseError returns the twist that carries actual onto goal: the position difference and the
// rotation vector of the shortest rotation between the orientations, both in the root frame.
func PoseError(goal, actual spatialmath.Pose) spatialmath.Twist {
	return spatialmath.PoseDelta(actual, goal)
}

// NewSquaredNormMetric returns the squared norm of the pose error to goal.
func NewSquaredNormMetric(goal spatialmath.Pose) StateMetric {
	return NewWeightedSquaredNormMetric(goal, nil)
}

// NewWeightedSquaredNormMetric returns the squared norm of the pose error to goal with each of the
// six components scaled by weights first. Nil weights are all ones.
func NewWeightedSquaredNormMetric(goal spatialmath.Pose, weights []float64) StateMetric {
	return func(actual spatialmath.Pose) float64 {
		return SquaredNorm(kinmath.WeightVector(PoseError(goal, actual).Vector(), weights))
	}
}

// SquaredNorm returns the sum of the squares of v.
func SquaredNorm(v []float64) float64 {
	norm := 0.
	for _, x := range v {
		norm += x * x
	}
	return norm
}
