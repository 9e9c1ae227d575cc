package kinematics

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"go.viam.com/kinematics/logging"
	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/spatialmath"
)

// CombinedSolver runs a PositionSolver from the caller's seed and from cfg.Restarts extra seeds
// drawn within the joint limits, all in parallel. The extra seeds depend only on cfg.RandomSeed, so
// identical inputs give identical results.
type CombinedSolver struct {
	solver     *PositionSolver
	restarts   int
	randomSeed int64
	logger     logging.Logger
}

// NewCombinedSolver validates cfg and returns a combined solver for the chain.
func NewCombinedSolver(chain *referenceframe.Chain, cfg SolverConfig, logger logging.Logger) (*CombinedSolver, error) {
	if logger == nil {
		logger = logging.NewBlankLogger("ik")
	}
	solver, err := NewPositionSolver(chain, cfg, logger.Sublogger("position"))
	if err != nil {
		return nil, err
	}
	return &CombinedSolver{
		solver:     solver,
		restarts:   cfg.Restarts,
		randomSeed: cfg.RandomSeed,
		logger:     logger,
	}, nil
}

// Chain returns the chain being solved.
func (ik *CombinedSolver) Chain() *referenceframe.Chain {
	return ik.solver.Chain()
}

// Seeds returns the caller's seed followed by the restart seeds, in the order they are ranked.
func (ik *CombinedSolver) Seeds(seed []referenceframe.Input) [][]referenceframe.Input {
	seeds := [][]referenceframe.Input{seed}
	//nolint:gosec
	rSeed := rand.New(rand.NewSource(ik.randomSeed))
	limits := ik.Chain().DoF()
	for i := 0; i < ik.restarts; i++ {
		seeds = append(seeds, referenceframe.RandomInputs(limits, rSeed))
	}
	return seeds
}

// Solve returns the successful solution of the earliest seed in Seeds order. If no seed converges,
// the error wraps ErrNoConvergence and the returned solution is the lowest-residual best effort of
// all seeds. Solves not yet started when ctx is done are skipped and ctx's error is returned.
func (ik *CombinedSolver) Solve(ctx context.Context, goal spatialmath.Pose, seed []referenceframe.Input) (*Solution, error) {
	if err := ik.Chain().CheckInputs(seed); err != nil {
		return nil, err
	}
	seeds := ik.Seeds(seed)
	solutions := make([]*Solution, len(seeds))
	solveErrs := make([]error, len(seeds))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, s := range seeds {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			solutions[i], solveErrs[i] = ik.solver.Solve(goal, s)
			if solveErrs[i] != nil && solutions[i] == nil {
				// anything other than NoConvergence aborts the whole solve
				return solveErrs[i]
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var best *Solution
	bestScore := 0.
	for i, sol := range solutions {
		if solveErrs[i] == nil {
			ik.logger.Debugw("combined solve converged", "seed", i, "seeds", len(seeds))
			return sol, nil
		}
		if score := SquaredNorm(sol.Residual.Vector()); best == nil || score < bestScore {
			best, bestScore = sol, score
		}
	}
	ik.logger.Debugw("combined solve did not converge", "seeds", len(seeds))
	return best, NewNoConvergenceError(best)
}
