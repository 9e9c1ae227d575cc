package kinmath

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DampedLeastSquares returns J^T (J J^T + lambda^2 I)^-1. For lambda > 0 the inner matrix is
// symmetric positive definite, so it is inverted through a Cholesky factorization, and the norm of
// the result is bounded by 1/(2 lambda) regardless of the rank of j.
func DampedLeastSquares(j mat.Matrix, lambda float64) (*mat.Dense, error) {
	if lambda <= 0 {
		return nil, errors.Errorf("damping must be positive, got %f", lambda)
	}
	rows, _ := j.Dims()

	jjt := mat.NewSymDense(rows, nil)
	jjt.SymOuterK(1, j)
	for i := 0; i < rows; i++ {
		jjt.SetSym(i, i, jjt.At(i, i)+lambda*lambda)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(jjt); !ok {
		return nil, errors.New("damped matrix is not positive definite")
	}
	inner := &mat.SymDense{}
	if err := chol.InverseTo(inner); err != nil {
		return nil, errors.Wrap(err, "cannot invert damped matrix")
	}

	dls := &mat.Dense{}
	dls.Mul(j.T(), inner)
	return dls, nil
}
