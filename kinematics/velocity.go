package kinematics

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/kinematics/kinematics/kinmath"
	"go.viam.com/kinematics/referenceframe"
	"go.viam.com/kinematics/spatialmath"
)

// VelocitySolver maps a desired tip twist to joint velocities through an inverse of the Jacobian.
// It holds no mutable state and is safe for concurrent use.
type VelocitySolver struct {
	fk       *ForwardSolver
	strategy VelocitySolverType
	damping  float64
	epsilon  float64
	weights  []float64
}

// NewVelocitySolver returns a velocity solver for the chain using the strategy in cfg. Only the
// velocity related fields of cfg are validated here.
func NewVelocitySolver(chain *referenceframe.Chain, cfg SolverConfig) (*VelocitySolver, error) {
	switch cfg.VelocitySolver {
	case PseudoInverse, GivensPseudoInverse:
	case DampedLeastSquares:
		if !(cfg.Damping > 0) {
			return nil, errors.Errorf("damping must be positive for the %q velocity solver", DampedLeastSquares)
		}
	default:
		return nil, errors.Errorf("unknown velocity solver %q", cfg.VelocitySolver)
	}
	if len(cfg.TaskWeights) != 0 && len(cfg.TaskWeights) != spatialmath.TwistLen {
		return nil, referenceframe.NewIncorrectLengthError("task_weights", len(cfg.TaskWeights), spatialmath.TwistLen)
	}
	return &VelocitySolver{
		fk:       NewForwardSolver(chain),
		strategy: cfg.VelocitySolver,
		damping:  cfg.Damping,
		epsilon:  cfg.epsilon(),
		weights:  cfg.weights(),
	}, nil
}

// Solve returns the joint velocities that best produce twist (vx, vy, vz, wx, wy, wz) at the tip,
// expressed in the root frame, at joint values inputs.
func (vs *VelocitySolver) Solve(inputs []referenceframe.Input, twist []float64) ([]float64, error) {
	if err := vs.fk.chain.CheckInputs(inputs); err != nil {
		return nil, err
	}
	if len(twist) != spatialmath.TwistLen {
		return nil, referenceframe.NewIncorrectLengthError("twist", len(twist), spatialmath.TwistLen)
	}
	jac, err := vs.fk.Jacobian(inputs)
	if err != nil {
		return nil, err
	}
	return vs.solveJacobian(jac, twist)
}

// SolveTwist is Solve for a typed twist.
func (vs *VelocitySolver) SolveTwist(inputs []referenceframe.Input, twist spatialmath.Twist) ([]float64, error) {
	return vs.Solve(inputs, twist.Vector())
}

// Inverse returns the generalized inverse of the weighted Jacobian at inputs, an n x 6 matrix.
func (vs *VelocitySolver) Inverse(inputs []referenceframe.Input) (*mat.Dense, error) {
	jac, err := vs.fk.Jacobian(inputs)
	if err != nil {
		return nil, err
	}
	return vs.invert(kinmath.WeightRows(jac, vs.weights))
}

func (vs *VelocitySolver) solveJacobian(jac *mat.Dense, twist []float64) ([]float64, error) {
	inv, err := vs.invert(kinmath.WeightRows(jac, vs.weights))
	if err != nil {
		return nil, err
	}
	qdot := mat.NewVecDense(vs.fk.chain.NumJoints(), nil)
	qdot.MulVec(inv, mat.NewVecDense(spatialmath.TwistLen, kinmath.WeightVector(twist, vs.weights)))
	return qdot.RawVector().Data, nil
}

func (vs *VelocitySolver) invert(jac *mat.Dense) (*mat.Dense, error) {
	switch vs.strategy {
	case DampedLeastSquares:
		return kinmath.DampedLeastSquares(jac, vs.damping)
	case GivensPseudoInverse:
		return kinmath.PseudoInverseGivens(jac, vs.epsilon)
	case PseudoInverse:
	}
	return kinmath.PseudoInverseSVD(jac, vs.epsilon)
}
