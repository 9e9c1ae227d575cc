package kinmath

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func randomMatrix(rSeed *rand.Rand, rows, cols int) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rSeed.Float64()*2 - 1
	}
	return mat.NewDense(rows, cols, data)
}

func maxAbsDiff(a, b mat.Matrix) float64 {
	diff := &mat.Dense{}
	diff.Sub(a, b)
	return mat.Norm(diff, math.Inf(1))
}

// checkMoorePenrose verifies J J+ J = J and J+ J J+ = J+.
func checkMoorePenrose(t *testing.T, j, pinv mat.Matrix) {
	t.Helper()
	jpj := &mat.Dense{}
	jpj.Product(j, pinv, j)
	test.That(t, maxAbsDiff(jpj, j), test.ShouldBeLessThan, 1e-9)

	pjp := &mat.Dense{}
	pjp.Product(pinv, j, pinv)
	test.That(t, maxAbsDiff(pjp, pinv), test.ShouldBeLessThan, 1e-9)
}

func TestPseudoInverses(t *testing.T) {
	//nolint:gosec
	rSeed := rand.New(rand.NewSource(1))
	for _, cols := range []int{1, 2, 3, 6, 7} {
		j := randomMatrix(rSeed, 6, cols)

		svd, err := PseudoInverseSVD(j, DefaultEpsilon)
		test.That(t, err, test.ShouldBeNil)
		r, c := svd.Dims()
		test.That(t, r, test.ShouldEqual, cols)
		test.That(t, c, test.ShouldEqual, 6)
		checkMoorePenrose(t, j, svd)

		givens, err := PseudoInverseGivens(j, DefaultEpsilon)
		test.That(t, err, test.ShouldBeNil)
		checkMoorePenrose(t, j, givens)
		test.That(t, maxAbsDiff(svd, givens), test.ShouldBeLessThan, 1e-9)
	}
}

func TestPseudoInverseRankDeficient(t *testing.T) {
	// the third column repeats the first, so one direction is lost
	j := mat.NewDense(3, 3, []float64{
		1, 0, 1,
		0, 1, 0,
		0, 0, 0,
	})
	for name, inverse := range map[string]func(mat.Matrix, float64) (*mat.Dense, error){
		"svd":    PseudoInverseSVD,
		"givens": PseudoInverseGivens,
	} {
		t.Run(name, func(t *testing.T) {
			pinv, err := inverse(j, DefaultEpsilon)
			test.That(t, err, test.ShouldBeNil)
			checkMoorePenrose(t, j, pinv)
			test.That(t, pinv.At(0, 0), test.ShouldAlmostEqual, 0.5)
			test.That(t, pinv.At(2, 0), test.ShouldAlmostEqual, 0.5)
			test.That(t, pinv.At(1, 1), test.ShouldAlmostEqual, 1.)
			// nothing maps onto the empty row
			test.That(t, mat.Norm(pinv.ColView(2), 2), test.ShouldAlmostEqual, 0.)
		})
	}

	// values just under epsilon are dropped rather than inverted
	tiny := mat.NewDense(2, 2, []float64{1, 0, 0, DefaultEpsilon / 2})
	pinv, err := PseudoInverseSVD(tiny, DefaultEpsilon)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pinv.At(1, 1), test.ShouldAlmostEqual, 0.)
	pinv, err = PseudoInverseGivens(tiny, DefaultEpsilon)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pinv.At(1, 1), test.ShouldAlmostEqual, 0.)
}

func TestDampedLeastSquares(t *testing.T) {
	//nolint:gosec
	rSeed := rand.New(rand.NewSource(2))
	j := randomMatrix(rSeed, 4, 6)

	// with full row rank and tiny damping the result approaches the pseudo-inverse
	dls, err := DampedLeastSquares(j, 1e-6)
	test.That(t, err, test.ShouldBeNil)
	pinv, err := PseudoInverseSVD(j, DefaultEpsilon)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, maxAbsDiff(dls, pinv), test.ShouldBeLessThan, 1e-6)

	// a singular matrix stays bounded by 1/(2 lambda)
	singular := mat.NewDense(6, 2, []float64{
		1, 1,
		0, 1e-9,
		0, 0,
		0, 0,
		0, 0,
		0, 0,
	})
	const lambda = 0.1
	dls, err = DampedLeastSquares(singular, lambda)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.Norm(dls, 2), test.ShouldBeLessThanOrEqualTo, 1/(2*lambda)+1e-9)

	_, err = DampedLeastSquares(j, 0)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWeights(t *testing.T) {
	j := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	weighted := WeightRows(j, []float64{2, 0})
	test.That(t, mat.Row(nil, 0, weighted), test.ShouldResemble, []float64{2, 4})
	test.That(t, mat.Row(nil, 1, weighted), test.ShouldResemble, []float64{0, 0})
	// the input is untouched
	test.That(t, j.At(1, 1), test.ShouldEqual, 4.)

	test.That(t, WeightVector([]float64{1, 2}, []float64{3, 0.5}), test.ShouldResemble, []float64{3, 1})
	test.That(t, WeightVector([]float64{1, 2}, nil), test.ShouldResemble, []float64{1, 2})
}
