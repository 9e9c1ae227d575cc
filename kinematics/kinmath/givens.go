package kinmath

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// maxSweeps bounds the Jacobi iteration. Convergence is quadratic and well under this for the
// 6xn matrices seen here.
const maxSweeps = 60

// orthogonalityTol is the relative size of a column dot product that counts as orthogonal.
const orthogonalityTol = 1e-15

// PseudoInverseGivens returns the pseudo-inverse of j without a library SVD. The columns of j are
// orthogonalized in place by one-sided Jacobi sweeps, each a Givens rotation of a pair of columns,
// and the same rotations accumulate into V. With A = J V having orthogonal columns a_k,
// J+ = sum over k of v_k a_k^T / |a_k|^2, skipping columns with |a_k| <= epsilon.
func PseudoInverseGivens(j mat.Matrix, epsilon float64) (*mat.Dense, error) {
	rows, cols := j.Dims()

	// work on columns as contiguous slices
	a := make([][]float64, cols)
	v := make([][]float64, cols)
	for c := 0; c < cols; c++ {
		a[c] = mat.Col(nil, c, j)
		v[c] = make([]float64, cols)
		v[c][c] = 1
	}

	for sweep := 0; sweep < maxSweeps; sweep++ {
		rotated := false
		for p := 0; p < cols-1; p++ {
			for q := p + 1; q < cols; q++ {
				alpha := floats.Dot(a[p], a[p])
				beta := floats.Dot(a[q], a[q])
				gamma := floats.Dot(a[p], a[q])
				if gamma == 0 || math.Abs(gamma) <= orthogonalityTol*math.Sqrt(alpha*beta) {
					continue
				}
				rotated = true

				zeta := (beta - alpha) / (2 * gamma)
				t := 1 / (math.Abs(zeta) + math.Sqrt(1+zeta*zeta))
				if zeta < 0 {
					t = -t
				}
				c := 1 / math.Sqrt(1+t*t)
				s := c * t
				rotateColumns(a[p], a[q], c, s)
				rotateColumns(v[p], v[q], c, s)
			}
		}
		if !rotated {
			break
		}
	}

	pinv := mat.NewDense(cols, rows, nil)
	for k := 0; k < cols; k++ {
		sigma2 := floats.Dot(a[k], a[k])
		if math.Sqrt(sigma2) <= epsilon {
			continue
		}
		outer := &mat.Dense{}
		outer.Outer(1/sigma2, mat.NewVecDense(cols, v[k]), mat.NewVecDense(rows, a[k]))
		pinv.Add(pinv, outer)
	}
	return pinv, nil
}

// rotateColumns applies the plane rotation (c, s) to the column pair x, y in place.
func rotateColumns(x, y []float64, c, s float64) {
	for i := range x {
		xi, yi := x[i], y[i]
		x[i] = c*xi - s*yi
		y[i] = s*xi + c*yi
	}
}
