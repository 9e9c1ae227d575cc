package kinematics

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/kinematics/referenceframe"
)

// ErrNoConvergence is the kind of error returned when a position solve stops without meeting its
// tolerances. Use errors.As with *NoConvergenceError to recover the best effort.
var ErrNoConvergence = errors.New("inverse kinematics did not converge")

// These kinds are defined by the chain model and re-exported for callers of the solvers.
var (
	ErrModel     = referenceframe.ErrModel
	ErrDimension = referenceframe.ErrDimension
)

// NoConvergenceError carries the lowest-residual configuration seen during a failed solve.
type NoConvergenceError struct {
	Best *Solution
}

func (e *NoConvergenceError) Error() string {
	return fmt.Sprintf("%s after %d iterations, best residual linear %.6g angular %.6g",
		ErrNoConvergence.Error(), e.Best.Iterations, e.Best.Residual.Linear.Norm(), e.Best.Residual.Angular.Norm())
}

// Is makes errors.Is(err, ErrNoConvergence) hold.
func (e *NoConvergenceError) Is(target error) bool {
	return target == ErrNoConvergence
}

// NewNoConvergenceError wraps the best effort of a solve.
func NewNoConvergenceError(best *Solution) error {
	return &NoConvergenceError{Best: best}
}

// BestEffort returns the best solution carried by a NoConvergence error, if err is one.
func BestEffort(err error) (*Solution, bool) {
	var nc *NoConvergenceError
	if errors.As(err, &nc) {
		return nc.Best, true
	}
	return nil, false
}
