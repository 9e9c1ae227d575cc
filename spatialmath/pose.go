package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose: a position in 3D space and an orientation about that position.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// dualQuaternion is the Pose implementation. The real part is the unit rotation quaternion r and
// the dual part is t*r/2 where t is the pure translation quaternion.
type dualQuaternion struct {
	dualquat.Number
}

// NewZeroPose returns a pose at (0,0,0) with the same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &dualQuaternion{dualquat.Number{Real: quat.Number{Real: 1}}}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	rot := normalizeQuat(o.Quaternion())
	return &dualQuaternion{dualquat.Number{
		Real: rot,
		Dual: quat.Scale(0.5, quat.Mul(quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}, rot)),
	}}
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a pose with no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return NewPose(point, NewZeroOrientation())
}

// NewPoseFromOrientation takes in an orientation and returns a pose with no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// Point returns the translation of the pose.
func (q *dualQuaternion) Point() r3.Vector {
	t := quat.Scale(2, quat.Mul(q.Dual, quat.Conj(q.Real)))
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation quaternion as an Orientation.
func (q *dualQuaternion) Orientation() Orientation {
	rot := Quaternion(q.Real)
	return &rot
}

func (q *dualQuaternion) String() string {
	pt := q.Point()
	aa := q.Orientation().AxisAngles()
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f TH:%.3f RX:%.3f RY:%.3f RZ:%.3f}", pt.X, pt.Y, pt.Z, aa.Theta, aa.RX, aa.RY, aa.RZ)
}

func toDualQuaternion(p Pose) *dualQuaternion {
	if dq, ok := p.(*dualQuaternion); ok {
		return dq
	}
	return NewPose(p.Point(), p.Orientation()).(*dualQuaternion)
}

// Compose takes two poses, converts to dual quaternions and multiplies them together. The returned
// pose is b expressed in the frame a is expressed in.
func Compose(a, b Pose) Pose {
	result := dualquat.Mul(toDualQuaternion(a).Number, toDualQuaternion(b).Number)

	// Keep the rotation unit length so long chains of products do not drift.
	if n := quat.Abs(result.Real); n != 1 && n > 0 {
		result.Real = quat.Scale(1/n, result.Real)
		result.Dual = quat.Scale(1/n, result.Dual)
	}
	return &dualQuaternion{result}
}

// PoseInverse returns the inverse of a pose.
func PoseInverse(p Pose) Pose {
	rotInv := quat.Conj(normalizeQuat(p.Orientation().Quaternion()))
	pt := p.Point()
	invPt := rotatePoint(rotInv, pt).Mul(-1)
	inv := Quaternion(rotInv)
	return NewPose(invPt, &inv)
}

// PoseBetween returns the difference between two poses, i.e. the pose that when composed with a
// gives b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same
// within the given translation epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return PoseAlmostCoincidentEps(a, b, epsilon) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// PoseAlmostCoincidentEps will return a bool describing whether 2 poses approximately are at the
// same 3D coordinate location within the given epsilon.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	ap := a.Point()
	bp := b.Point()
	return math.Abs(ap.X-bp.X) <= epsilon && math.Abs(ap.Y-bp.Y) <= epsilon && math.Abs(ap.Z-bp.Z) <= epsilon
}

// RotatePoint rotates a point by an orientation.
func RotatePoint(o Orientation, p r3.Vector) r3.Vector {
	return rotatePoint(normalizeQuat(o.Quaternion()), p)
}

func rotatePoint(q quat.Number, p r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: p.X, Jmag: p.Y, Kmag: p.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
