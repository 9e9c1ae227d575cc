package kinematics

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/kinematics/logging"
	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/spatialmath"
)

func TestCombinedSeeds(t *testing.T) {
	cfg := solverConfig(PseudoInverse)
	cfg.Restarts = 5
	cfg.RandomSeed = 7
	ik, err := NewCombinedSolver(ur5e(t), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	seed := referenceframe.FloatsToInputs(ur5eHome)
	seeds := ik.Seeds(seed)
	test.That(t, seeds, test.ShouldHaveLength, 6)
	test.That(t, seeds[0], test.ShouldResemble, seed)
	for _, s := range seeds {
		test.That(t, referenceframe.InputsWithinLimits(s, ik.Chain().DoF()), test.ShouldBeTrue)
	}
	test.That(t, ik.Seeds(seed), test.ShouldResemble, seeds)
}

func TestCombinedPrefersCallerSeed(t *testing.T) {
	cfg := solverConfig(PseudoInverse)
	cfg.Restarts = 3
	chain := planar2(t)
	combined, err := NewCombinedSolver(chain, cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	single, err := NewPositionSolver(chain, cfg, nil)
	test.That(t, err, test.ShouldBeNil)

	goal := spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 1})
	seed := referenceframe.FloatsToInputs([]float64{0, 0})
	expected, err := single.Solve(goal, seed)
	test.That(t, err, test.ShouldBeNil)

	sol, err := combined.Solve(context.Background(), goal, seed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol, test.ShouldResemble, expected)
}

func TestCombinedNoConvergence(t *testing.T) {
	cfg := solverConfig(PseudoInverse)
	cfg.MaxIterations = 20
	cfg.Restarts = 4
	cfg.RandomSeed = 3
	chain := planar2(t)
	combined, err := NewCombinedSolver(chain, cfg, nil)
	test.That(t, err, test.ShouldBeNil)
	single, err := NewPositionSolver(chain, cfg, nil)
	test.That(t, err, test.ShouldBeNil)

	goal := spatialmath.NewPoseFromPoint(r3.Vector{X: 5})
	seed := referenceframe.FloatsToInputs([]float64{0.2, 0.1})
	sol, err := combined.Solve(context.Background(), goal, seed)
	test.That(t, errors.Is(err, ErrNoConvergence), test.ShouldBeTrue)
	test.That(t, sol.Residual.Linear.Norm(), test.ShouldBeGreaterThanOrEqualTo, 3-1e-9)

	// the best effort is the lowest residual over every seed
	for _, s := range combined.Seeds(seed) {
		other, err := single.Solve(goal, s)
		test.That(t, errors.Is(err, ErrNoConvergence), test.ShouldBeTrue)
		test.That(t, SquaredNorm(sol.Residual.Vector()), test.ShouldBeLessThanOrEqualTo, SquaredNorm(other.Residual.Vector()))
	}

	again, _ := combined.Solve(context.Background(), goal, seed)
	test.That(t, again, test.ShouldResemble, sol)
}

func TestCombinedErrors(t *testing.T) {
	cfg := solverConfig(PseudoInverse)
	cfg.Restarts = 2
	ik, err := NewCombinedSolver(planar2(t), cfg, nil)
	test.That(t, err, test.ShouldBeNil)

	_, err = ik.Solve(context.Background(), spatialmath.NewZeroPose(), referenceframe.FloatsToInputs([]float64{0, 0, 0}))
	test.That(t, errors.Is(err, ErrDimension), test.ShouldBeTrue)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ik.Solve(ctx, spatialmath.NewZeroPose(), referenceframe.FloatsToInputs([]float64{0, 0}))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)

	cfg.Restarts = -1
	_, err = NewCombinedSolver(planar2(t), cfg, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
