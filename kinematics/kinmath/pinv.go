// Package kinmath defines the generalized inverses used to map task space velocities to joint
// space velocities.
package kinmath

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultEpsilon is the singular value below which a direction is treated as lost.
const DefaultEpsilon = 1e-5

// PseudoInverseSVD returns the Moore-Penrose pseudo-inverse of j computed from its singular value
// decomposition. Singular values at or below epsilon are treated as zero, so the result stays
// finite at singular configurations.
func PseudoInverseSVD(j mat.Matrix, epsilon float64) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(j, mat.SVDThin); !ok {
		return nil, errors.New("singular value decomposition failed")
	}

	u, v := &mat.Dense{}, &mat.Dense{}
	svd.UTo(u)
	svd.VTo(v)
	singularValues := svd.Values(nil)

	// scale the columns of V by the inverted singular values, then multiply by U^T
	inv := make([]float64, len(singularValues))
	for i, sigma := range singularValues {
		if sigma > epsilon {
			inv[i] = 1 / sigma
		}
	}
	vScaled := &mat.Dense{}
	vScaled.Mul(v, mat.NewDiagDense(len(inv), inv))

	pinv := &mat.Dense{}
	pinv.Mul(vScaled, u.T())
	return pinv, nil
}
