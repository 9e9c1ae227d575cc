package kinmath

import (
	"gonum.org/v1/gonum/mat"
)

// WeightRows returns a copy of j with row i scaled by weights[i]. A nil weights slice returns an
// unscaled copy.
func WeightRows(j mat.Matrix, weights []float64) *mat.Dense {
	weighted := mat.DenseCopyOf(j)
	for i, w := range weights {
		if w == 1 {
			continue
		}
		row := weighted.RawRowView(i)
		for c := range row {
			row[c] *= w
		}
	}
	return weighted
}

// WeightVector returns a copy of x with element i scaled by weights[i].
func WeightVector(x, weights []float64) []float64 {
	weighted := append([]float64(nil), x...)
	for i, w := range weights {
		weighted[i] *= w
	}
	return weighted
}
