package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// TwistLen is the number of components in a twist vector.
const TwistLen = 6

// Twist is a 6D spatial velocity or small displacement. Linear is the velocity of the reference
// point and Angular the rotational velocity, both expressed in the same frame.
type Twist struct {
	Linear  r3.Vector `json:"linear"`
	Angular r3.Vector `json:"angular"`
}

// NewTwistFromVector builds a twist from (vx, vy, vz, wx, wy, wz).
func NewTwistFromVector(v []float64) (Twist, error) {
	if len(v) != TwistLen {
		return Twist{}, errors.Errorf("twist needs %d components, got %d", TwistLen, len(v))
	}
	return Twist{
		Linear:  r3.Vector{X: v[0], Y: v[1], Z: v[2]},
		Angular: r3.Vector{X: v[3], Y: v[4], Z: v[5]},
	}, nil
}

// Vector returns the twist as (vx, vy, vz, wx, wy, wz).
func (t Twist) Vector() []float64 {
	return []float64{t.Linear.X, t.Linear.Y, t.Linear.Z, t.Angular.X, t.Angular.Y, t.Angular.Z}
}

// Norm returns the euclidean norm of all six components.
func (t Twist) Norm() float64 {
	return math.Sqrt(t.Linear.Norm2() + t.Angular.Norm2())
}

// Scale multiplies every component by s.
func (t Twist) Scale(s float64) Twist {
	return Twist{Linear: t.Linear.Mul(s), Angular: t.Angular.Mul(s)}
}

// PoseDelta returns the twist that moves pose `from` onto pose `to` in unit time, both expressed
// in the same frame. The linear part is the difference of the positions and the angular part is
// the rotation vector of the shortest rotation taking from's orientation to to's orientation.
func PoseDelta(from, to Pose) Twist {
	qFrom := normalizeQuat(from.Orientation().Quaternion())
	qTo := normalizeQuat(to.Orientation().Quaternion())
	return Twist{
		Linear:  to.Point().Sub(from.Point()),
		Angular: QuatToRotationVector(quat.Mul(qTo, quat.Conj(qFrom))),
	}
}
