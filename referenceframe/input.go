package referenceframe

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/kinematics/utils"
)

// Input wraps one joint value of a chain.
//   - revolute inputs should be in radians.
//   - prismatic inputs should be in the length unit of the model.
type Input struct {
	Value float64
}

// Limit represents the limits of motion for one joint.
type Limit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains returns whether value is within the limit, inclusive.
func (l Limit) Contains(value float64) bool {
	return value >= l.Min && value <= l.Max
}

// Clamp returns value restricted to the limit.
func (l Limit) Clamp(value float64) float64 {
	return utils.Clamp(value, l.Min, l.Max)
}

// FloatsToInputs wraps a slice of floats in Inputs.
func FloatsToInputs(floats []float64) []Input {
	inputs := make([]Input, len(floats))
	for i, f := range floats {
		inputs[i] = Input{f}
	}
	return inputs
}

// InputsToFloats unwraps Inputs to raw floats.
func InputsToFloats(inputs []Input) []float64 {
	floats := make([]float64, len(inputs))
	for i, f := range inputs {
		floats[i] = f.Value
	}
	return floats
}

// InputsL2Distance returns the two-norm between two Input sets.
func InputsL2Distance(from, to []Input) float64 {
	if len(from) != len(to) {
		return math.Inf(1)
	}
	diff := make([]float64, 0, len(from))
	for i, f := range from {
		diff = append(diff, f.Value-to[i].Value)
	}
	// 2 is the L value returning a standard L2 Normalization
	return floats.Norm(diff, 2)
}

// InputsWithinLimits returns whether every input lies within its limit. The lengths must match.
func InputsWithinLimits(inputs []Input, limits []Limit) bool {
	if len(inputs) != len(limits) {
		return false
	}
	for i, limit := range limits {
		if !limit.Contains(inputs[i].Value) {
			return false
		}
	}
	return true
}

// RandomInputs will produce a list of valid, in-bounds inputs for the given limits.
func RandomInputs(limits []Limit, rSeed *rand.Rand) []Input {
	if rSeed == nil {
		//nolint:gosec
		rSeed = rand.New(rand.NewSource(1))
	}
	pos := make([]Input, 0, len(limits))
	for _, lim := range limits {
		l, u := lim.Min, lim.Max

		// Default to [-pi,pi] as range if limits are infinite
		if math.IsInf(l, -1) {
			l = -math.Pi
		}
		if math.IsInf(u, 1) {
			u = math.Pi
		}

		jRange := math.Abs(u - l)
		pos = append(pos, Input{rSeed.Float64()*jRange + l})
	}
	return pos
}
