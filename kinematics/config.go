package kinematics

import (
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/kinematics/kinematics/kinmath"
	"go.viam.com/kinematics/spatialmath"
	"go.viam.com/kinematics/utils"
)

// VelocitySolverType names a strategy for inverting the Jacobian.
type VelocitySolverType string

// The supported velocity solver strategies.
const (
	// PseudoInverse uses the SVD based Moore-Penrose pseudo-inverse.
	PseudoInverse VelocitySolverType = "pinv"
	// DampedLeastSquares uses J^T (J J^T + lambda^2 I)^-1.
	DampedLeastSquares VelocitySolverType = "dls"
	// GivensPseudoInverse computes the pseudo-inverse with Givens rotations instead of a library SVD.
	GivensPseudoInverse VelocitySolverType = "pinv_givens"
)

// SolverConfig holds every tunable of the velocity and position solvers. There are no defaults for
// the required tunables; Validate rejects a config that leaves them unset.
type SolverConfig struct {
	VelocitySolver       VelocitySolverType `json:"velocity_solver"`
	Damping              float64            `json:"damping,omitempty"`
	PositionTolerance    float64            `json:"position_tolerance"`
	OrientationTolerance float64            `json:"orientation_tolerance"`
	StepSize             float64            `json:"step_size"`
	MaxIterations        int                `json:"max_iterations"`
	// SingularValueEpsilon is the rank cutoff of the pseudo-inverse strategies. Zero means
	// kinmath.DefaultEpsilon.
	SingularValueEpsilon float64 `json:"singular_value_epsilon,omitempty"`
	// TaskWeights scale the rows (vx, vy, vz, wx, wy, wz) of the Jacobian and of the error. Empty
	// means all ones.
	TaskWeights []float64 `json:"task_weights,omitempty"`
	// Restarts is the number of extra seeds the combined solver tries.
	Restarts   int   `json:"restarts,omitempty"`
	RandomSeed int64 `json:"random_seed,omitempty"`
}

// Validate ensures all parts of the config are valid. Every problem is reported, not just the first.
func (cfg *SolverConfig) Validate(path string) error {
	var errs error
	switch cfg.VelocitySolver {
	case "":
		errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, "velocity_solver"))
	case PseudoInverse, GivensPseudoInverse:
	case DampedLeastSquares:
		if !(cfg.Damping > 0) {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("damping must be positive for the %q velocity solver, got %v", DampedLeastSquares, cfg.Damping)))
		}
	default:
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("unknown velocity_solver %q, supported are %q, %q and %q",
				cfg.VelocitySolver, PseudoInverse, DampedLeastSquares, GivensPseudoInverse)))
	}

	for _, field := range []struct {
		name  string
		value float64
	}{
		{"position_tolerance", cfg.PositionTolerance},
		{"orientation_tolerance", cfg.OrientationTolerance},
		{"step_size", cfg.StepSize},
		{"max_iterations", float64(cfg.MaxIterations)},
	} {
		switch {
		case field.value == 0:
			errs = multierr.Append(errs, utils.NewConfigValidationFieldRequiredError(path, field.name))
		case !(field.value > 0) || math.IsInf(field.value, 1):
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("%s must be a positive number, got %v", field.name, field.value)))
		}
	}

	if cfg.SingularValueEpsilon < 0 || math.IsNaN(cfg.SingularValueEpsilon) {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("singular_value_epsilon must not be negative, got %v", cfg.SingularValueEpsilon)))
	}
	if cfg.Restarts < 0 {
		errs = multierr.Append(errs, utils.NewConfigValidationError(path,
			errors.Errorf("restarts must not be negative, got %d", cfg.Restarts)))
	}

	if len(cfg.TaskWeights) > 0 {
		if len(cfg.TaskWeights) != spatialmath.TwistLen {
			errs = multierr.Append(errs, utils.NewConfigValidationError(path,
				errors.Errorf("task_weights needs %d values, got %d", spatialmath.TwistLen, len(cfg.TaskWeights))))
		} else {
			allZero := true
			for _, w := range cfg.TaskWeights {
				if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
					errs = multierr.Append(errs, utils.NewConfigValidationError(path,
						errors.Errorf("task_weights must be finite and non-negative, got %v", cfg.TaskWeights)))
					break
				}
				if w != 0 {
					allZero = false
				}
			}
			if allZero {
				errs = multierr.Append(errs, utils.NewConfigValidationError(path, errors.New("task_weights may not all be zero")))
			}
		}
	}
	return errs
}

func (cfg *SolverConfig) epsilon() float64 {
	if cfg.SingularValueEpsilon == 0 {
		return kinmath.DefaultEpsilon
	}
	return cfg.SingularValueEpsilon
}

// weights returns the task weights, or nil when every weight is one.
func (cfg *SolverConfig) weights() []float64 {
	for _, w := range cfg.TaskWeights {
		if w != 1 {
			return cfg.TaskWeights
		}
	}
	return nil
}
