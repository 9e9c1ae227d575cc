package kinematics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/kinematics/kinematics/kinmath"
	"go.viam.com/kinematics/logging"
	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/spatialmath"
)

// Solution is the result of a position solve.
type Solution struct {
	Configuration []referenceframe.Input
	// Residual is the unweighted pose error from the achieved tip pose to the goal.
	Residual spatialmath.Twist
	// Iterations is the number of Newton steps taken.
	Iterations int
	// Clamped[i] records that joint i was held at a limit at least once during the solve.
	Clamped []bool
}

// PositionSolver finds joint values that place the tip at a goal pose by Newton-Raphson iteration
// on the velocity solver, clamping every step to the joint limits. It holds no mutable state and is
// safe for concurrent use.
type PositionSolver struct {
	fk     *ForwardSolver
	vel    *VelocitySolver
	cfg    SolverConfig
	logger logging.Logger
}

// NewPositionSolver validates cfg and returns a position solver for the chain. A nil logger
// discards the solver's traces.
func NewPositionSolver(chain *referenceframe.Chain, cfg SolverConfig, logger logging.Logger) (*PositionSolver, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("ik")
	}
	if err := cfg.Validate("solver"); err != nil {
		return nil, err
	}
	vel, err := NewVelocitySolver(chain, cfg)
	if err != nil {
		return nil, err
	}
	return &PositionSolver{
		fk:     vel.fk,
		vel:    vel,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Chain returns the chain being solved.
func (ik *PositionSolver) Chain() *referenceframe.Chain {
	return ik.fk.chain
}

// Solve iterates from seed towards goal, expressed in the root frame. On success the returned
// solution meets both tolerances and lies within the joint limits. Otherwise the returned error
// wraps ErrNoConvergence and the returned solution is the lowest-residual configuration seen, which
// also lies within the limits.
func (ik *PositionSolver) Solve(goal spatialmath.Pose, seed []referenceframe.Input) (*Solution, error) {
	chain := ik.fk.chain
	if err := chain.CheckInputs(seed); err != nil {
		return nil, err
	}
	limits := chain.DoF()
	weights := ik.cfg.weights()

	// Clamp the seed too, so a seed that already meets the goal from outside the limits is never
	// returned as a success.
	clamped := make([]bool, len(seed))
	q := make([]float64, len(seed))
	for i, in := range seed {
		q[i] = limits[i].Clamp(in.Value)
		clamped[i] = q[i] != in.Value
	}

	var best *Solution
	bestScore := 0.
	bestIter := 0
	iter := 0
	for ; ; iter++ {
		inputs := referenceframe.FloatsToInputs(q)
		pose, err := ik.fk.Solve(inputs)
		if err != nil {
			return nil, err
		}
		residual := PoseError(goal, pose)
		weighted := kinmath.WeightVector(residual.Vector(), weights)

		if score := SquaredNorm(weighted); best == nil || score < bestScore {
			bestScore = score
			bestIter = iter
			best = &Solution{Configuration: inputs, Residual: residual}
		}

		linErr := r3.Vector{X: weighted[0], Y: weighted[1], Z: weighted[2]}.Norm()
		angErr := r3.Vector{X: weighted[3], Y: weighted[4], Z: weighted[5]}.Norm()
		if linErr <= ik.cfg.PositionTolerance && angErr <= ik.cfg.OrientationTolerance {
			ik.logger.Debugw("position solve converged", "iterations", iter, "linear", linErr, "angular", angErr)
			return &Solution{
				Configuration: inputs,
				Residual:      residual,
				Iterations:    iter,
				Clamped:       clamped,
			}, nil
		}
		if iter >= ik.cfg.MaxIterations {
			break
		}

		jac, err := ik.fk.Jacobian(inputs)
		if err != nil {
			return nil, err
		}
		qdot, err := ik.vel.solveJacobian(jac, residual.Vector())
		if err != nil {
			return nil, errors.Wrap(err, "velocity solve failed during position solve")
		}
		if floats.HasNaN(qdot) {
			ik.logger.Warnw("velocity solve produced NaN, stopping", "iteration", iter)
			break
		}

		for i := range q {
			next := q[i] + ik.cfg.StepSize*qdot[i]
			q[i] = limits[i].Clamp(next)
			if q[i] != next {
				clamped[i] = true
			}
		}
	}

	best.Iterations = iter
	best.Clamped = clamped
	ik.logger.Debugw("position solve did not converge",
		"iterations", iter,
		"best_iteration", bestIter,
		"best_linear", best.Residual.Linear.Norm(),
		"best_angular", best.Residual.Angular.Norm())
	return best, NewNoConvergenceError(best)
}
