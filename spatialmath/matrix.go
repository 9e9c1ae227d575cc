package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// PoseToMatrix returns the 4x4 homogeneous transform of a pose.
func PoseToMatrix(p Pose) mgl64.Mat4 {
	q := normalizeQuat(p.Orientation().Quaternion())
	rot := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Mat4()
	pt := p.Point()
	return mgl64.Translate3D(pt.X, pt.Y, pt.Z).Mul4(rot)
}

// NewPoseFromMatrix builds a pose from the rotation and translation of a homogeneous transform.
func NewPoseFromMatrix(m mgl64.Mat4) Pose {
	q := mgl64.Mat4ToQuat(m).Normalize()
	orientation := Quaternion(quat.Number{Real: q.W, Imag: q.X(), Jmag: q.Y(), Kmag: q.Z()})
	return NewPose(r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}, &orientation)
}

// MatrixRows returns the matrix as row-major nested slices, which is how it is serialized.
func MatrixRows(m mgl64.Mat4) [][]float64 {
	rows := make([][]float64, 4)
	for i := range rows {
		row := m.Row(i)
		rows[i] = row[:]
	}
	return rows
}
