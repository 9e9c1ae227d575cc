package referenceframe

import (
	"github.com/pkg/errors"
)

// ErrModel is the kind of every error describing an invalid chain model. Use errors.Is to test for it.
var ErrModel = errors.New("invalid chain model")

// ErrDimension is the kind of every error describing a vector of the wrong length.
var ErrDimension = errors.New("dimension mismatch")

// ErrNoModelInformation is used when there is no model information.
var ErrNoModelInformation = errors.Wrap(ErrModel, "no model information")

// ErrCircularReference is returned when a model's parent links form a loop.
var ErrCircularReference = errors.Wrap(ErrModel, "infinite loop finding path from end effector to root")

// ErrNeedOneEndEffector is returned when a model branches or has no end effector.
var ErrNeedOneEndEffector = errors.Wrap(ErrModel, "need exactly one end effector")

// NewModelError returns a ModelError with the given description.
func NewModelError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrModel, format, args...)
}

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not match
// the number of degrees of freedom it is applied to.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Wrapf(ErrDimension, "number of inputs does not match degrees of freedom. Expected %d, got %d", expected, actual)
}

// NewIncorrectLengthError returns a dimension error for any named vector.
func NewIncorrectLengthError(what string, actual, expected int) error {
	return errors.Wrapf(ErrDimension, "%s has length %d, expected %d", what, actual, expected)
}

// NewUnsupportedJointTypeError returns an error indicating that a given joint type is not supported.
func NewUnsupportedJointTypeError(jointType string) error {
	return NewModelError("unsupported joint type detected: %q", jointType)
}

// NewFrameNotInListOfTransformsError returns an error indicating that a parent is not part of the model.
func NewFrameNotInListOfTransformsError(frameName string) error {
	return NewModelError("frame %q is not in the list of transforms", frameName)
}
