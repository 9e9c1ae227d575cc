package kinematics

import (
	"errors"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/kinematics/referenceframe"
)

func TestVelocityStrategiesAgree(t *testing.T) {
	chain := planar2(t)
	inputs := referenceframe.FloatsToInputs([]float64{0.3, 0.4})
	qdot := []float64{0.2, -0.1}

	jac, err := NewForwardSolver(chain).Jacobian(inputs)
	test.That(t, err, test.ShouldBeNil)
	twist := mat.NewVecDense(6, nil)
	twist.MulVec(jac, mat.NewVecDense(2, qdot))

	for _, tc := range []struct {
		cfg SolverConfig
		tol float64
	}{
		{SolverConfig{VelocitySolver: PseudoInverse}, 1e-10},
		{SolverConfig{VelocitySolver: GivensPseudoInverse}, 1e-10},
		{SolverConfig{VelocitySolver: DampedLeastSquares, Damping: 1e-3}, 1e-5},
	} {
		t.Run(string(tc.cfg.VelocitySolver), func(t *testing.T) {
			vs, err := NewVelocitySolver(chain, tc.cfg)
			test.That(t, err, test.ShouldBeNil)
			got, err := vs.Solve(inputs, twist.RawVector().Data)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, got, test.ShouldHaveLength, 2)
			for i := range qdot {
				test.That(t, got[i], test.ShouldAlmostEqual, qdot[i], tc.tol)
			}
		})
	}
}

func TestVelocityGivensMatchesSVD(t *testing.T) {
	chain := ur5e(t)
	inputs := referenceframe.FloatsToInputs(ur5eHome)

	svd, err := NewVelocitySolver(chain, SolverConfig{VelocitySolver: PseudoInverse})
	test.That(t, err, test.ShouldBeNil)
	givens, err := NewVelocitySolver(chain, SolverConfig{VelocitySolver: GivensPseudoInverse})
	test.That(t, err, test.ShouldBeNil)

	a, err := svd.Inverse(inputs)
	test.That(t, err, test.ShouldBeNil)
	b, err := givens.Inverse(inputs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mat.EqualApprox(a, b, 1e-9), test.ShouldBeTrue)
}

func TestVelocityDimension(t *testing.T) {
	vs, err := NewVelocitySolver(planar2(t), SolverConfig{VelocitySolver: PseudoInverse})
	test.That(t, err, test.ShouldBeNil)

	_, err = vs.Solve(referenceframe.FloatsToInputs([]float64{0}), make([]float64, 6))
	test.That(t, errors.Is(err, ErrDimension), test.ShouldBeTrue)
	_, err = vs.Solve(referenceframe.FloatsToInputs([]float64{0, 0}), make([]float64, 5))
	test.That(t, errors.Is(err, ErrDimension), test.ShouldBeTrue)
	_, err = vs.Solve(referenceframe.FloatsToInputs([]float64{0, 0}), make([]float64, 7))
	test.That(t, errors.Is(err, ErrDimension), test.ShouldBeTrue)
}

func TestVelocitySolverConfig(t *testing.T) {
	chain := planar2(t)
	_, err := NewVelocitySolver(chain, SolverConfig{VelocitySolver: "qr"})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewVelocitySolver(chain, SolverConfig{VelocitySolver: DampedLeastSquares})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewVelocitySolver(chain, SolverConfig{VelocitySolver: PseudoInverse, TaskWeights: []float64{1, 1}})
	test.That(t, errors.Is(err, ErrDimension), test.ShouldBeTrue)
}

func TestVelocityNearSingularity(t *testing.T) {
	chain := planar2(t)
	// Nearly stretched out, a tip velocity along the arm needs huge joint velocities.
	inputs := referenceframe.FloatsToInputs([]float64{0, 1e-4})
	twist := []float64{1, 0, 0, 0, 0, 0}
	positionOnly := []float64{1, 1, 1, 0, 0, 0}

	pinv, err := NewVelocitySolver(chain, SolverConfig{VelocitySolver: PseudoInverse, TaskWeights: positionOnly})
	test.That(t, err, test.ShouldBeNil)
	qdot, err := pinv.Solve(inputs, twist)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, floats.Norm(qdot, 2), test.ShouldBeGreaterThan, 1e3)

	dls, err := NewVelocitySolver(chain, SolverConfig{VelocitySolver: DampedLeastSquares, Damping: 0.1, TaskWeights: positionOnly})
	test.That(t, err, test.ShouldBeNil)
	qdot, err = dls.Solve(inputs, twist)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, floats.Norm(qdot, 2), test.ShouldBeLessThan, 5.)
	test.That(t, floats.HasNaN(qdot), test.ShouldBeFalse)

	// exactly singular
	qdot, err = pinv.Solve(referenceframe.FloatsToInputs([]float64{0, 0}), twist)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, floats.HasNaN(qdot), test.ShouldBeFalse)
}
